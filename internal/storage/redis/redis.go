package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BariVakhidov/eventboard/internal/domain/models"
	"github.com/BariVakhidov/eventboard/internal/storage"
	"github.com/redis/go-redis/v9"
)

const snapshotKey = "eventboard:events:snapshot"

// client is the part of *redis.Client the mirror uses.
type client interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Close() error
}

// Storage mirrors the last successfully fetched event list so a fresh process
// has something to show when its first fetch fails.
type Storage struct {
	client client
	ttl    time.Duration
}

func New(addr, password string, db int, ttl time.Duration) *Storage {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &Storage{client: client, ttl: ttl}
}

func (s *Storage) SaveSnapshot(ctx context.Context, events []models.Event) error {
	const op = "storage.redis.SaveSnapshot"

	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = s.client.Set(ctx, snapshotKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Snapshot(ctx context.Context) ([]models.Event, error) {
	const op = "storage.redis.Snapshot"

	data, err := s.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrSnapshotEmpty)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var events []models.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

func (s *Storage) Stop() error {
	const op = "storage.redis.Stop"

	if err := s.client.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
