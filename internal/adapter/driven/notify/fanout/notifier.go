package fanout

import (
	"context"

	"github.com/Wyydra/yacall/internal/core/domain"
	"github.com/Wyydra/yacall/internal/core/port"
)

// Notifier forwards every notification to each sink in order.
type Notifier []port.Notifier

func (f Notifier) Notify(ctx context.Context, n domain.Notification) {
	for _, sink := range f {
		sink.Notify(ctx, n)
	}
}
