package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	httpapp "github.com/BariVakhidov/eventboard/internal/app/http"
	prometheusapp "github.com/BariVakhidov/eventboard/internal/app/prometheus"
	storageapp "github.com/BariVakhidov/eventboard/internal/app/storage"
	redisapp "github.com/BariVakhidov/eventboard/internal/app/storage/redis"
	"github.com/BariVakhidov/eventboard/internal/config"
	"github.com/BariVakhidov/eventboard/internal/http/handlers"
	"github.com/BariVakhidov/eventboard/internal/http/web"
	"github.com/BariVakhidov/eventboard/internal/kafka"
	"github.com/BariVakhidov/eventboard/internal/lib/validation"
	eventsender "github.com/BariVakhidov/eventboard/internal/services/event_sender"
	"github.com/BariVakhidov/eventboard/internal/services/eventstore"
)

type App struct {
	log           *slog.Logger
	cfg           *config.Config
	ctx           context.Context
	cancel        context.CancelFunc
	httpServer    *httpapp.App
	metrics       *prometheusapp.App
	storage       *storageapp.App
	redisStorage  *redisapp.App
	kafkaProducer *kafka.Producer
	eventSender   *eventsender.Sender

	Store *eventstore.Store
}

func New(log *slog.Logger, cfg *config.Config) *App {
	ctx, cancel := context.WithCancel(context.Background())

	metrics := prometheusapp.New(log, cfg.Metrics.Port)
	storage := storageapp.MustCreateApp(ctx, cfg.Storage, log)
	redisApp := redisapp.New(log, cfg.Redis)

	opts := eventstore.Opts{Operations: metrics.Operations}
	if redisApp != nil {
		opts.Mirror = redisApp.Storage
	}

	var (
		kafkaProducer *kafka.Producer
		eventSender   *eventsender.Sender
	)
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer = kafka.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		eventSender = eventsender.NewSender(log, kafkaProducer, cfg.Kafka.OutboxSize)
		opts.Notifier = eventSender
	} else {
		log.Info("no kafka brokers configured, notifications are off")
	}

	store := eventstore.New(log, storage.Storage, storage.Storage, storage.Storage, storage.Storage, opts)

	h := handlers.New(ctx, log, store,
		validation.New(nil, cfg.Location()),
		web.MustParse(),
		handlers.Opts{
			Static:     http.FileServerFS(web.Static()),
			Rejections: metrics.Rejections,
			Location:   cfg.Location(),
		},
	)
	handler := handlers.Instrument(log, metrics.RequestDuration, metrics.PanicsCounter, h.Routes())

	return &App{
		log:           log,
		cfg:           cfg,
		ctx:           ctx,
		cancel:        cancel,
		httpServer:    httpapp.New(log, cfg.HTTP, handler),
		metrics:       metrics,
		storage:       storage,
		redisStorage:  redisApp,
		kafkaProducer: kafkaProducer,
		eventSender:   eventSender,
		Store:         store,
	}
}

// MustRun starts every server in the background and triggers the first fetch.
func (a *App) MustRun() {
	go a.httpServer.MustRun()
	if a.cfg.Metrics.Port != 0 {
		go a.metrics.MustRun()
	}
	if a.eventSender != nil {
		a.eventSender.StartProducing(a.ctx, a.cfg.Kafka.BatchLimit, a.cfg.Kafka.FlushInterval)
	}

	a.Store.EnsureLoaded(a.ctx)
}

func (a *App) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	var errs []error
	errs = append(errs, a.httpServer.Stop(ctx))
	if a.cfg.Metrics.Port != 0 {
		errs = append(errs, a.metrics.Stop(ctx))
	}

	if a.eventSender != nil {
		a.eventSender.Drain(ctx)
		errs = append(errs, a.kafkaProducer.Close())
	}
	a.cancel()

	a.storage.Stop()
	errs = append(errs, a.redisStorage.Stop())

	return errors.Join(errs...)
}
