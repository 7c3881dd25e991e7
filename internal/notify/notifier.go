// Package notify delivers user notifications over a configured channel.
//
// Delivery is best effort. Callers hand messages to a Dispatcher, which sends
// them in the background and only logs failures.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/emilythestrangee/qanda/backend/internal/models"
)

var ErrNoAddress = errors.New("recipient has no address for channel")

// Notifier sends one message to one recipient address.
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) error
}

// LogNotifier writes messages to the log instead of delivering them.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(_ context.Context, to, subject, body string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification",
		"event", "notification_logged",
		"module", "notify",
		"layer", "adapter",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}

// AddressFunc picks the recipient address for a user.
type AddressFunc func(models.User) (string, error)

// EmailAddress returns the user's email.
func EmailAddress(u models.User) (string, error) {
	if u.Email == "" {
		return "", ErrNoAddress
	}
	return u.Email, nil
}

// PhoneAddress returns the user's phone number.
func PhoneAddress(u models.User) (string, error) {
	if u.Phone == "" {
		return "", ErrNoAddress
	}
	return u.Phone, nil
}
