package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"appointment-booking-api/internal/notify"
)

// Mailer configures cmd/mailer, which drains the queue the server publishes
// to when NOTIFIER=amqp.
type Mailer struct {
	RabbitURL      string        `envconfig:"RABBIT_URL" required:"true"`
	NotifyExchange string        `envconfig:"NOTIFY_EXCHANGE" default:"notification.exchange"`
	NotifyQueue    string        `envconfig:"NOTIFY_QUEUE" default:"notification.email.q"`
	Prefetch       int           `envconfig:"MAILER_PREFETCH" default:"8"`
	NotifyTimeout  time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"30s"`

	SMTPEnv
	LogEnv
}

func LoadMailer() (*Mailer, error) {
	_ = godotenv.Load()
	return mailerFromEnv()
}

func mailerFromEnv() (*Mailer, error) {
	var m Mailer
	if err := envconfig.Process("", &m); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if m.RabbitURL == "" || m.EmailUser == "" || m.EmailPass == "" {
		return nil, errors.New("config: RABBIT_URL, EMAIL_USER and EMAIL_PASS are required")
	}
	return &m, nil
}

func (m *Mailer) AMQP() notify.AMQPConfig {
	return notify.AMQPConfig{
		URL:      m.RabbitURL,
		Exchange: m.NotifyExchange,
		Queue:    m.NotifyQueue,
		Prefetch: m.Prefetch,
		Timeout:  m.NotifyTimeout,
	}
}
