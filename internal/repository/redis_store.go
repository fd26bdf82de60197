package repository

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
)

// listClient is the subset of the Redis client used by RedisStore
type listClient interface {
	PushFront(ctx context.Context, key string, value string) (int64, error)
	Range(ctx context.Context, key string) ([]string, error)
	Set(ctx context.Context, key string, value interface{}) error
	Ping(ctx context.Context) error
}

// RedisStore keeps records as JSON elements of a Redis list, newest first
type RedisStore struct {
	redis    listClient
	key      string
	totalKey string
	logger   *slog.Logger
}

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(client listClient, key string, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{
		redis:    client,
		key:      key,
		totalKey: key + ":total",
		logger:   logger,
	}
}

// LoadAll returns every record in list order
func (s *RedisStore) LoadAll(ctx context.Context) ([]domain.RawRecord, error) {
	items, err := s.redis.Range(ctx, s.key)
	if err != nil {
		return nil, &domain.TransportError{Op: "redis range", Err: err}
	}

	records := make([]domain.RawRecord, 0, len(items))
	for _, item := range items {
		rec, err := decodeRecord([]byte(item))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Append pushes the record to the head of the list and refreshes the total
func (s *RedisStore) Append(ctx context.Context, rec domain.RawRecord) (domain.RawRecord, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, &domain.FormatError{Source: "record", Err: err}
	}

	n, err := s.redis.PushFront(ctx, s.key, string(data))
	if err != nil {
		return nil, &domain.TransportError{Op: "redis push", Err: err}
	}
	if err := s.redis.Set(ctx, s.totalKey, n); err != nil {
		return nil, &domain.TransportError{Op: "redis total", Err: err}
	}

	s.logger.Debug("record appended", slog.String("key", s.key), slog.Int64("total", n))
	return cloneRecord(rec), nil
}

// Ping checks Redis connectivity
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx)
}
