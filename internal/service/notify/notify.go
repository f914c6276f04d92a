package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"kiosk/internal/config"
	"kiosk/internal/logger"
)

// CommandTimeout bounds a single NOTIFY_COMMAND run.
const CommandTimeout = 10 * time.Second

// Notifier plays the welcome cue when a person walks up.
type Notifier interface {
	Welcome(ctx context.Context) error
}

// Console writes the welcome message to the log.
type Console struct {
	message string
	logger  *logger.Logger
}

// Command runs an external player, e.g. "aplay /usr/share/sounds/welcome.wav".
type Command struct {
	command []string
	logger  *logger.Logger
}

// None does nothing.
type None struct{}

// New builds the notifier selected by NOTIFIER.
func New(config *config.Config, logger *logger.Logger) (Notifier, error) {
	log := logger.Named("notify")
	switch strings.ToLower(config.Notifier) {
	case "", "console":
		return &Console{message: config.WelcomeMessage, logger: log}, nil
	case "command":
		fields := strings.Fields(config.NotifyCommand)
		if len(fields) == 0 {
			return nil, fmt.Errorf("NOTIFY_COMMAND is required for the command notifier")
		}
		return &Command{command: fields, logger: log}, nil
	case "none":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown notifier %q", config.Notifier)
	}
}

// Welcome logs the welcome message.
func (c *Console) Welcome(context.Context) error {
	c.logger.Info("%s", c.message)
	return nil
}

// Welcome runs the command and waits for it.
func (c *Command) Welcome(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, CommandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, c.command[0], c.command[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", c.command[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Welcome does nothing.
func (None) Welcome(context.Context) error {
	return nil
}
