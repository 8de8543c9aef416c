package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Wyydra/yacall/internal/core/domain"
	"github.com/Wyydra/yacall/internal/core/port"
	goredis "github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

var _ port.Notifier = (*Notifier)(nil)

const publishTimeout = 2 * time.Second

// Publisher is the subset of the redis client the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

type Options struct {
	Addr     string
	Password string
	DB       int
}

// Notifier publishes notifications as JSON on a redis pub/sub channel. A
// single goroutine drains the queue so Notify never waits on the network.
type Notifier struct {
	pub     Publisher
	channel string

	queue chan []byte
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

func NewClient(opts Options) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

func NewNotifier(pub Publisher, channel string, queue int) *Notifier {
	if queue <= 0 {
		queue = 256
	}
	n := &Notifier{
		pub:     pub,
		channel: channel,
		queue:   make(chan []byte, queue),
		done:    make(chan struct{}),
	}
	n.wg.Add(1)
	go n.run()
	return n
}

func (n *Notifier) Notify(ctx context.Context, note domain.Notification) {
	data, err := json.Marshal(note)
	if err != nil {
		log.Error().Err(err).Str("kind", string(note.Kind)).Msg("Failed to encode notification")
		return
	}
	select {
	case <-n.done:
		return
	default:
	}
	select {
	case n.queue <- data:
	default:
		log.Warn().
			Str("call_id", note.CallID.String()).
			Str("kind", string(note.Kind)).
			Msg("Redis queue full, dropping notification")
	}
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for {
		select {
		case data := <-n.queue:
			n.publish(data)
		case <-n.done:
			// flush what was queued before Close
			for {
				select {
				case data := <-n.queue:
					n.publish(data)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) publish(data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := n.pub.Publish(ctx, n.channel, data).Err(); err != nil {
		log.Error().Err(err).Str("channel", n.channel).Msg("Failed to publish notification")
	}
}

// Close stops the publisher after draining the queue.
func (n *Notifier) Close() {
	n.once.Do(func() {
		close(n.done)
		n.wg.Wait()
	})
}
