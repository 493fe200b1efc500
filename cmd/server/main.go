package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"appointment-booking-api/internal/auth"
	"appointment-booking-api/internal/config"
	"appointment-booking-api/internal/handler"
	"appointment-booking-api/internal/logging"
	"appointment-booking-api/internal/notify"
	"appointment-booking-api/internal/rpc"
	"appointment-booking-api/internal/service"
	"appointment-booking-api/internal/store"
	"appointment-booking-api/internal/store/memstore"
	"appointment-booking-api/internal/store/mongostore"
)

type bookingStore interface {
	service.AppointmentStore
	service.AdminStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if !cfg.IsLocal() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// storage
	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("store")
	}
	defer closeStore()

	// notifications
	sender, closeSender, err := newSender(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("notifier")
	}
	defer closeSender()
	disp := notify.NewDispatcher(sender, log, cfg.Dispatch())

	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	appts := service.NewAppointments(st, disp, log)
	creds := service.NewCredentials(st, tokens, log)

	// grpc server
	var gs interface{ GracefulStop() }
	if cfg.GRPCPort != "" {
		srv := rpc.NewGRPCServer(rpc.NewServer(appts, creds, log), creds)
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			log.WithError(err).Fatal("grpc listen")
		}
		go func() {
			log.Infof("grpc on :%s", cfg.GRPCPort)
			if err := srv.Serve(lis); err != nil {
				log.WithError(err).Error("grpc")
			}
		}()
		gs = srv
	}

	// http server
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.New(appts, creds, log).Router(log, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("http on :%s", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http")
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if gs != nil {
		gs.GracefulStop()
	}
	if err := disp.Close(shutdownCtx); err != nil {
		log.WithError(err).Warn("notifications still pending at shutdown")
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (bookingStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		st, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		log.Info("connected to mongo")
		return st, func() {
			c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = st.Close(c)
		}, nil
	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on restart")
		st := memstore.New()
		return st, st.Close, nil
	default:
		st, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("connected to postgres")
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, nil, err
		}
		log.Info("migration applied")
		return st, st.Close, nil
	}
}

func newSender(cfg *config.Config, log *logrus.Logger) (notify.Sender, func(), error) {
	switch cfg.Notifier {
	case config.NotifierSMTP:
		log.Infof("mail via %s:%d", cfg.SMTPHost, cfg.SMTPPort)
		return notify.NewSMTPSender(cfg.SMTP()), func() {}, nil
	case config.NotifierAMQP:
		pub, err := notify.NewAMQPPublisher(cfg.RabbitURL, cfg.NotifyExchange)
		if err != nil {
			return nil, nil, err
		}
		log.Infof("mail via amqp exchange %s", cfg.NotifyExchange)
		return pub, func() { _ = pub.Close() }, nil
	default:
		return notify.LogSender{Log: log}, func() {}, nil
	}
}
