package mappings

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Store serves role tables through a Redis read-through cache.
type Store struct {
	repo   Repository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewStore builds the store. A nil client disables caching.
func NewStore(repo Repository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{repo: repo, client: client, ttl: ttl, logger: logger}
}

// Defaults returns the role table of the organization.
func (s *Store) Defaults(ctx context.Context, organizationID string) (Defaults, error) {
	rows, err := s.fetch(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	return NewDefaults(rows), nil
}

func (s *Store) fetch(ctx context.Context, organizationID string) ([]AccountDefault, error) {
	if s.client == nil {
		return s.repo.List(ctx, organizationID)
	}
	key := shared.DefaultsCacheKey(organizationID)
	payload, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		var rows []AccountDefault
		if err := json.Unmarshal(payload, &rows); err == nil {
			return rows, nil
		}
		s.logger.Warn("discarding corrupt defaults cache", slog.String("key", key))
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn("defaults cache unavailable", slog.Any("error", err))
		return s.repo.List(ctx, organizationID)
	}

	rows, err := s.repo.List(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("populate defaults cache", slog.Any("error", err))
	}
	return rows, nil
}

// Invalidate drops the cached table. Call after the writing transaction commits.
func (s *Store) Invalidate(ctx context.Context, organizationID string) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, shared.DefaultsCacheKey(organizationID)).Err()
}
