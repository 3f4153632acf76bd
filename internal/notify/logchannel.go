package notify

import (
	"context"
	"fmt"

	"github.com/weathervane/weathervane/internal/pkg/ctxlog"
)

// LogChannel renders messages and writes them to the log. It is always
// ready and serves as the default channel when no Discord token is
// configured.
type LogChannel struct {
	renderer *Renderer
}

// NewLogChannel creates a log-backed delivery channel.
func NewLogChannel(renderer *Renderer) *LogChannel {
	return &LogChannel{renderer: renderer}
}

func (c *LogChannel) Name() string {
	return "log"
}

func (c *LogChannel) Ready(context.Context) error {
	return nil
}

func (c *LogChannel) Send(ctx context.Context, userID int64, msg Message) error {
	text, err := c.renderer.Render(msg)
	if err != nil {
		return fmt.Errorf("render message: %w", err)
	}

	ctxlog.FromContext(ctx).Info("notification delivered",
		"channel", c.Name(),
		"user_id", userID,
		"kind", msg.Kind(),
		"text", text,
	)
	return nil
}
