package notification

import (
	"context"

	"github.com/rs/zerolog/log"
)

// ChangeNotifier is told which community changed after a successful mutation.
// Consumers re-query; there is no payload.
type ChangeNotifier interface {
	OnChange(ctx context.Context, communityID string)
}

// NotifierFunc adapts a plain function to ChangeNotifier.
type NotifierFunc func(ctx context.Context, communityID string)

func (f NotifierFunc) OnChange(ctx context.Context, communityID string) {
	f(ctx, communityID)
}

// Nop discards notifications
type Nop struct{}

func (Nop) OnChange(context.Context, string) {}

// Multi fans a change out to several notifiers in order.
type Multi []ChangeNotifier

func (m Multi) OnChange(ctx context.Context, communityID string) {
	for _, n := range m {
		if n != nil {
			n.OnChange(ctx, communityID)
		}
	}
}

// LogNotifier writes every change to the debug log.
type LogNotifier struct{}

func (LogNotifier) OnChange(_ context.Context, communityID string) {
	log.Debug().Str("community_id", communityID).Msg("Community state changed")
}
