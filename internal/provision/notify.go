package provision

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edvin/agentdesk/internal/metrics"
	"github.com/edvin/agentdesk/internal/model"
	"github.com/edvin/agentdesk/internal/notify"
)

// Dispatcher sends the welcome message after the agent record is durable.
type Dispatcher struct {
	sender   notify.Sender
	loginURL string
	logger   zerolog.Logger
}

// NewDispatcher returns a dispatcher. A nil sender makes every Notify call
// report a NotificationError warning.
func NewDispatcher(sender notify.Sender, loginURL string, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sender:   sender,
		loginURL: loginURL,
		logger:   logger.With().Str("component", "notification-dispatcher").Logger(),
	}
}

// Notify renders and sends the welcome message. It never fails the run:
// any problem comes back as sent=false plus a warning.
func (d *Dispatcher) Notify(ctx context.Context, email, fullName, password string) (bool, *model.Warning) {
	if err := d.send(ctx, email, fullName, password); err != nil {
		d.logger.Warn().Err(err).Str("email", email).Msg("welcome notification not sent")
		metrics.ObserveNotification("failed")
		return false, &model.Warning{
			Kind:    model.WarningKindNotification,
			Message: fmt.Sprintf("welcome notification to %s not sent: %v", email, err),
		}
	}
	d.logger.Info().Str("email", email).Msg("welcome notification sent")
	metrics.ObserveNotification("sent")
	return true, nil
}

func (d *Dispatcher) send(ctx context.Context, email, fullName, password string) error {
	if d.sender == nil {
		return notify.ErrNotConfigured
	}
	subject, body, err := notify.RenderWelcome(notify.Welcome{
		FullName: fullName,
		Email:    email,
		Password: password,
		LoginURL: d.loginURL,
	})
	if err != nil {
		return err
	}
	return d.sender.Send(ctx, notify.Message{
		To:      []string{email},
		Subject: subject,
		Text:    body,
	})
}
