package worker

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes outgoing notifications to the application log. It is
// the default delivery backend until a real channel (mail, messenger) is
// plugged in behind the same interface.
type LogNotifier struct {
	logger *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, userID, message string) error {
	n.logger.Info().
		Str("user_id", userID).
		Str("message", message).
		Msg("notification delivered")
	return nil
}
