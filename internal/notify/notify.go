// Package notify sends fire-and-forget confirmations after committed actions.
// Notification failures are logged and never propagate to the caller.
package notify

import (
	"context"

	logx "github.com/Cardassist-core-poc/server/pkg/logger"
)

// Notifier delivers a message to the user over a side channel.
type Notifier interface {
	Notify(ctx context.Context, userID, message string) error
}

// LogNotifier writes notifications to the log. Used in development and tests.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, userID, message string) error {
	logx.Info().Str("user_id", userID).Str("message", message).Msg("Notification")
	return nil
}

var _ Notifier = LogNotifier{}
