// Package notify delivers password-reset codes to users.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Sender dispatches a reset code to the owner of email.
type Sender interface {
	SendResetCode(ctx context.Context, email, code string) error
}

// LogSender writes the code to the log instead of delivering it. Meant for
// local development only.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log.With(zap.String("notifier", "log"))}
}

func (s *LogSender) SendResetCode(_ context.Context, email, code string) error {
	s.log.Info("Password reset code generated",
		zap.String("email", email),
		zap.String("reset_code", code),
	)
	return nil
}
