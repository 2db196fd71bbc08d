package eventsender

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BariVakhidov/eventboard/internal/domain/models"
	"github.com/BariVakhidov/eventboard/internal/lib/logger/sl"
	"github.com/google/uuid"
)

type EventPublisher interface {
	Publish(ctx context.Context, key, data []byte) error
}

// Sender buffers notifications in a bounded outbox and publishes them in batches.
type Sender struct {
	log            *slog.Logger
	eventPublisher EventPublisher
	outbox         chan models.Notification
	stopChan       chan struct{}
	stopOnce       sync.Once
	started        atomic.Bool
	loopDone       chan struct{}
}

func NewSender(log *slog.Logger, eventPublisher EventPublisher, capacity int) *Sender {
	return &Sender{
		log:            log,
		eventPublisher: eventPublisher,
		outbox:         make(chan models.Notification, capacity),
		stopChan:       make(chan struct{}),
		loopDone:       make(chan struct{}),
	}
}

// Enqueue adds a notification without blocking. It reports false when the outbox is full.
func (s *Sender) Enqueue(kind string, payload []byte) bool {
	const op = "service.event_sender.Enqueue"

	n := models.Notification{ID: uuid.New(), Kind: kind, Payload: payload}
	select {
	case s.outbox <- n:
		return true
	default:
		s.log.With(slog.String("op", op)).Warn("outbox full, dropping notification",
			slog.String("kind", kind), slog.String("id", n.ID.String()))
		return false
	}
}

func (s *Sender) StartProducing(ctx context.Context, limit int, interval time.Duration) {
	const op = "service.event_sender.StartProducing"
	log := s.log.With(slog.String("op", op))

	log.Info("starting producing events", slog.Int("limit", limit), slog.Duration("interval", interval))

	s.started.Store(true)
	if err := ctx.Err(); err != nil {
		close(s.loopDone)
		log.Info("stopping event producing", sl.Err(err))
		return
	}

	ticker := time.NewTicker(interval)

	go func() {
		defer func() {
			ticker.Stop()
			close(s.loopDone)
			log.Info("stopping event producing")
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.flush(ctx, limit)
			}
		}
	}()
}

// flush publishes up to limit queued notifications concurrently.
func (s *Sender) flush(ctx context.Context, limit int) {
	batch := make([]models.Notification, 0, limit)
	for len(batch) < limit {
		select {
		case n := <-s.outbox:
			batch = append(batch, n)
			continue
		default:
		}
		break
	}

	wg := &sync.WaitGroup{}
	for _, n := range batch {
		wg.Add(1)
		go s.processEvent(ctx, wg, n)
	}
	wg.Wait()
}

func (s *Sender) processEvent(ctx context.Context, wg *sync.WaitGroup, n models.Notification) {
	const op = "service.event_sender.processEvent"
	log := s.log.With(slog.String("op", op))

	defer wg.Done()

	if err := s.eventPublisher.Publish(ctx, []byte(n.Kind), n.Payload); err != nil {
		log.Error("failed to publish notification", slog.String("id", n.ID.String()), sl.Err(err))
		return
	}

	log.Debug("notification published", slog.String("id", n.ID.String()), slog.String("kind", n.Kind))
}

// Pending returns the number of queued notifications.
func (s *Sender) Pending() int {
	return len(s.outbox)
}

func (s *Sender) StopSending() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// Drain stops the producing loop, waits for it to exit and publishes what is
// left in the outbox. Whatever is still queued when ctx is done is dropped.
func (s *Sender) Drain(ctx context.Context) {
	const op = "service.event_sender.Drain"
	log := s.log.With(slog.String("op", op))

	s.StopSending()
	if s.started.Load() {
		select {
		case <-s.loopDone:
		case <-ctx.Done():
		}
	}

	for s.Pending() > 0 && ctx.Err() == nil {
		s.flush(ctx, s.Pending())
	}

	if n := s.Pending(); n > 0 {
		log.Warn("dropping unsent notifications", slog.Int("pending", n), sl.Err(ctx.Err()))
		return
	}

	log.Info("outbox drained")
}
