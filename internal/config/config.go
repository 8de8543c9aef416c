// Package config reads the service configuration from the environment. A
// .env file in the working directory is loaded first when present.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Wyydra/yacall/internal/core/domain"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Notification backends.
const (
	NotifySSE   = "sse"
	NotifyRedis = "redis"
	NotifyBoth  = "both"
)

type Config struct {
	Server ServerConfig
	Log    LogConfig
	Notify NotifyConfig
	Policy domain.Policy
}

type ServerConfig struct {
	Addr            string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  zerolog.Level
	Format string // console | json
}

type NotifyConfig struct {
	Backend string
	Redis   RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

func (n NotifyConfig) UseSSE() bool { return n.Backend == NotifySSE || n.Backend == NotifyBoth }
func (n NotifyConfig) UseRedis() bool { return n.Backend == NotifyRedis || n.Backend == NotifyBoth }

func Load() (*Config, error) {
	// missing .env is fine, the environment wins anyway
	_ = godotenv.Load()

	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid LOG_LEVEL")
	}
	format := getEnv("LOG_FORMAT", "console")
	if format != "console" && format != "json" {
		return nil, errors.Errorf("invalid LOG_FORMAT %q", format)
	}

	shutdown, err := time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "5s"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid SHUTDOWN_TIMEOUT")
	}

	backend := getEnv("NOTIFY_BACKEND", NotifySSE)
	switch backend {
	case NotifySSE, NotifyRedis, NotifyBoth:
	default:
		return nil, errors.Errorf("invalid NOTIFY_BACKEND %q", backend)
	}
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid REDIS_DB")
	}

	policy, err := loadPolicy()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("SERVER_ADDR", ":8080"),
			CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "*")),
			ShutdownTimeout: shutdown,
		},
		Log: LogConfig{Level: level, Format: format},
		Notify: NotifyConfig{
			Backend: backend,
			Redis: RedisConfig{
				Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       db,
				Channel:  getEnv("REDIS_CHANNEL", "yacall:notifications"),
			},
		},
		Policy: policy,
	}, nil
}

func loadPolicy() (domain.Policy, error) {
	self := domain.Contact(getEnv("SELF_CONTACT", "test@localhost"))
	policy := domain.DefaultPolicy(self)

	if v, ok := os.LookupEnv("TRANSPORT_PREFERENCE"); ok {
		kinds, err := parseTransports(v)
		if err != nil {
			return policy, errors.Wrap(err, "invalid TRANSPORT_PREFERENCE")
		}
		if len(kinds) == 0 {
			return policy, errors.New("TRANSPORT_PREFERENCE is empty")
		}
		policy.TransportPreference = kinds
	}
	if v, ok := os.LookupEnv("PAIRED_TRANSPORTS"); ok {
		kinds, err := parseTransports(v)
		if err != nil {
			return policy, errors.Wrap(err, "invalid PAIRED_TRANSPORTS")
		}
		policy.PairedComponents = make(map[domain.TransportKind]bool, len(kinds))
		for _, k := range kinds {
			policy.PairedComponents[k] = true
		}
	}
	if v, ok := os.LookupEnv("AUDIO_CODECS"); ok {
		codecs, err := ParseCodecs(v)
		if err != nil {
			return policy, errors.Wrap(err, "invalid AUDIO_CODECS")
		}
		policy.AudioCodecs = codecs
	}
	if v, ok := os.LookupEnv("VIDEO_CODECS"); ok {
		codecs, err := ParseCodecs(v)
		if err != nil {
			return policy, errors.Wrap(err, "invalid VIDEO_CODECS")
		}
		policy.VideoCodecs = codecs
	}
	return policy, nil
}

func parseTransports(v string) ([]domain.TransportKind, error) {
	var kinds []domain.TransportKind
	for _, name := range splitList(v) {
		k, err := domain.ParseTransportKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// ParseCodecs reads a comma separated list of name/clock[/channels]:pt
// entries, e.g. "opus/48000/2:111,PCMU/8000:0".
func ParseCodecs(v string) ([]domain.Codec, error) {
	var codecs []domain.Codec
	for _, entry := range splitList(v) {
		enc, pt, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, errors.Errorf("codec %q has no payload type", entry)
		}
		id, err := strconv.ParseUint(pt, 10, 7)
		if err != nil {
			return nil, errors.Wrapf(err, "codec %q payload type", entry)
		}
		parts := strings.Split(enc, "/")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
			return nil, errors.Errorf("codec %q is not name/clock[/channels]", entry)
		}
		clock, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "codec %q clock rate", entry)
		}
		c := domain.Codec{ID: uint32(id), Name: parts[0], ClockRate: uint32(clock)}
		if len(parts) == 3 {
			ch, err := strconv.ParseUint(parts[2], 10, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "codec %q channels", entry)
			}
			c.Channels = uint32(ch)
		}
		codecs = append(codecs, c)
	}
	return codecs, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
