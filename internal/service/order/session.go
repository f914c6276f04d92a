package order

import (
	"context"
	"os/exec"
	"strings"

	"kiosk/internal/config"
	"kiosk/internal/logger"
	"kiosk/internal/model"
)

// SessionOpener starts the ordering UI for an identified user.
type SessionOpener interface {
	OpenSession(ctx context.Context, user model.User) error
}

// CommandOpener runs SESSION_OPEN_COMMAND with ORDER_UI_URL as its last
// argument, e.g. "xdg-open".
type CommandOpener struct {
	command []string
	url     string
	logger  *logger.Logger
}

// NoopOpener only logs.
type NoopOpener struct {
	logger *logger.Logger
}

// NewSessionOpener picks the opener configured by SESSION_OPEN_COMMAND.
func NewSessionOpener(config *config.Config, logger *logger.Logger) SessionOpener {
	log := logger.Named("session")
	fields := strings.Fields(config.SessionOpenCommand)
	if len(fields) == 0 {
		return &NoopOpener{logger: log}
	}
	return &CommandOpener{command: fields, url: config.OrderUIURL, logger: log}
}

// OpenSession starts the command without waiting for it to exit. The
// launched UI outlives the kiosk process, so ctx is not attached to it.
func (o *CommandOpener) OpenSession(_ context.Context, user model.User) error {
	args := append(o.command[1:len(o.command):len(o.command)], o.url)
	cmd := exec.Command(o.command[0], args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	o.logger.Info("Opened ordering session for %s at %s", user.DisplayName(), o.url)
	go cmd.Wait()
	return nil
}

// OpenSession logs the session start.
func (o *NoopOpener) OpenSession(_ context.Context, user model.User) error {
	o.logger.Info("Ordering session ready for %s", user.DisplayName())
	return nil
}
