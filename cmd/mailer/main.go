// Command mailer drains the notification queue filled by the server when
// NOTIFIER=amqp and delivers each message over SMTP.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"appointment-booking-api/internal/config"
	"appointment-booking-api/internal/logging"
	"appointment-booking-api/internal/notify"
)

func main() {
	cfg, err := config.LoadMailer()
	if err != nil {
		logrus.Fatal(err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	cons := notify.NewAMQPConsumer(cfg.AMQP(), notify.NewSMTPSender(cfg.SMTP()), log)
	if err := cons.Connect(); err != nil {
		log.WithError(err).Fatal("rabbitmq")
	}
	defer cons.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infof("[mailer] consuming %s", cfg.NotifyQueue)
	if err := cons.Run(ctx); err != nil {
		log.WithError(err).Error("[mailer] consumer stopped")
		return
	}
	log.Info("[mailer] stopped")
}
