// Package config loads process configuration from an optional .env file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ChannelLog  = "log"
	ChannelSMTP = "smtp"
	ChannelSMS  = "sms"
)

type Config struct {
	Port     string
	GinMode  string
	LogLevel slog.Level

	Database Database
	Auth     Auth
	Notify   Notify
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	// LogLevel is the gorm logger level: silent, error, warn or info.
	LogLevel string
}

// DSN renders the key/value connection string understood by the pgx driver.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type Auth struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type Notify struct {
	Channel string
	From    string
	Workers int
	Timeout time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("log_level", "info")

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "qanda")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_log_level", "warn")

	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", 72*time.Hour)

	v.SetDefault("notify_channel", ChannelLog)
	v.SetDefault("notify_from", "noreply@example.com")
	v.SetDefault("notify_workers", 4)
	v.SetDefault("notify_timeout", 10*time.Second)
	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_username", "")
	v.SetDefault("smtp_password", "")
	v.SetDefault("twilio_account_sid", "")
	v.SetDefault("twilio_auth_token", "")
	v.SetDefault("twilio_from", "")
}

// Load reads envFile (when present) into the process environment, then builds
// a Config from environment variables layered over defaults.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := Config{
		Port:     v.GetString("port"),
		GinMode:  v.GetString("gin_mode"),
		LogLevel: level,
		Database: Database{
			Host:     v.GetString("db_host"),
			Port:     v.GetString("db_port"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			Name:     v.GetString("db_name"),
			SSLMode:  v.GetString("db_sslmode"),
			LogLevel: strings.ToLower(v.GetString("db_log_level")),
		},
		Auth: Auth{
			JWTSecret: v.GetString("jwt_secret"),
			TokenTTL:  v.GetDuration("token_ttl"),
		},
		Notify: Notify{
			Channel:          strings.ToLower(strings.TrimSpace(v.GetString("notify_channel"))),
			From:             v.GetString("notify_from"),
			Workers:          v.GetInt("notify_workers"),
			Timeout:          v.GetDuration("notify_timeout"),
			SMTPHost:         v.GetString("smtp_host"),
			SMTPPort:         v.GetInt("smtp_port"),
			SMTPUsername:     v.GetString("smtp_username"),
			SMTPPassword:     v.GetString("smtp_password"),
			TwilioAccountSID: v.GetString("twilio_account_sid"),
			TwilioAuthToken:  v.GetString("twilio_auth_token"),
			TwilioFrom:       v.GetString("twilio_from"),
		},
	}
	return cfg, nil
}

// Validate checks settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.Notify.Workers <= 0 {
		errs = append(errs, errors.New("NOTIFY_WORKERS must be positive"))
	}
	switch c.Notify.Channel {
	case ChannelLog:
	case ChannelSMTP:
		if c.Notify.SMTPHost == "" {
			errs = append(errs, errors.New("SMTP_HOST is required for the smtp channel"))
		}
	case ChannelSMS:
		if c.Notify.TwilioAccountSID == "" || c.Notify.TwilioAuthToken == "" || c.Notify.TwilioFrom == "" {
			errs = append(errs, errors.New("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM are required for the sms channel"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFY_CHANNEL %q", c.Notify.Channel))
	}
	return errors.Join(errs...)
}
