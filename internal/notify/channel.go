package notify

import (
	"fmt"
	"log/slog"

	"github.com/emilythestrangee/qanda/backend/internal/config"
)

// FromConfig builds the notifier and address selector for the configured channel.
func FromConfig(cfg config.Notify, logger *slog.Logger) (Notifier, AddressFunc, error) {
	switch cfg.Channel {
	case config.ChannelLog, "":
		return LogNotifier{Logger: logger}, EmailAddress, nil
	case config.ChannelSMTP:
		return NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.From), EmailAddress, nil
	case config.ChannelSMS:
		return NewSMSNotifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom), PhoneAddress, nil
	default:
		return nil, nil, fmt.Errorf("unknown notify channel %q", cfg.Channel)
	}
}
