package fanout

import (
	"context"
	"testing"

	"github.com/Wyydra/yacall/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	got []domain.NotificationKind
}

func (r *recorder) Notify(ctx context.Context, n domain.Notification) {
	r.got = append(r.got, n.Kind)
}

func TestFanout(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	f := Notifier{a, b}
	f.Notify(context.Background(), domain.Notification{Kind: domain.NotifyContentAdded})
	f.Notify(context.Background(), domain.Notification{Kind: domain.NotifyContentRemoved})

	want := []domain.NotificationKind{domain.NotifyContentAdded, domain.NotifyContentRemoved}
	assert.Equal(t, want, a.got)
	assert.Equal(t, want, b.got)
}
