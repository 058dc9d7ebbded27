package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/kickoff/internal/domain/model"
	"github.com/okian/kickoff/pkg/logger"
	"github.com/okian/kickoff/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	backendRedis = "redis"
	scanBatch    = 200
)

// RedisStore keeps each match as a JSON string under <prefix>match:<id>.
// Updates use WATCH/MULTI so concurrent writers never lose each other's
// changes.
type RedisStore struct {
	client *redis.Client
	opts   options
	log    logger.Logger

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// DialRedis parses url, connects and verifies the connection with PING.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisStore wraps an existing client. The store owns the client and
// closes it on Close.
func NewRedisStore(ctx context.Context, client *redis.Client, opts ...Option) *RedisStore {
	s := &RedisStore{
		client:   client,
		opts:     defaultOptions(),
		log:      logger.Named("redis-store"),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	s.startMetricsUpdater(ctx)
	return s
}

func (s *RedisStore) key(id string) string {
	return s.opts.keyPrefix + "match:" + id
}

func (s *RedisStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				n, err := s.Count(ctx)
				if err != nil {
					s.log.Warn(ctx, "count matches", logger.Error(err))
					continue
				}
				metrics.UpdateMatchCount(n)
			}
		}
	}()
}

// Close stops background work and closes the client.
func (s *RedisStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return s.client.Close()
}

// Create implements Store.Create with SET NX.
func (s *RedisStore) Create(ctx context.Context, m *model.Match) error {
	start := time.Now()
	defer observe(backendRedis, "create", start)

	if m == nil || m.ID == "" {
		return ErrInvalidMatch
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode match %s: %w", m.ID, err)
	}
	ok, err := s.client.SetNX(ctx, s.key(m.ID), data, s.opts.ttl).Result()
	if err != nil {
		metrics.RecordErrorByComponent("repository", "redis_create")
		return fmt.Errorf("create match %s: %w", m.ID, err)
	}
	if !ok {
		return ErrAlreadyExists
	}
	return nil
}

// Get implements Store.Get.
func (s *RedisStore) Get(ctx context.Context, id string) (*model.Match, error) {
	start := time.Now()
	defer observe(backendRedis, "get", start)

	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		metrics.RecordErrorByComponent("repository", "redis_get")
		return nil, fmt.Errorf("get match %s: %w", id, err)
	}
	return decodeMatch(id, raw)
}

// Update implements Store.Update with optimistic locking. fn may run more
// than once when another writer wins the race.
func (s *RedisStore) Update(ctx context.Context, id string, fn MutateFunc) (*model.Match, error) {
	start := time.Now()
	defer observe(backendRedis, "update", start)

	key := s.key(id)
	var out *model.Match
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}
		m, err := decodeMatch(id, raw)
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
		m.ID = id
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode match %s: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.opts.ttl)
			return nil
		})
		if err == nil {
			out = m
		}
		return err
	}

	for attempt := 0; attempt < s.opts.maxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	metrics.RecordErrorByComponent("repository", "redis_conflict")
	return nil, ErrConflict
}

// Count implements Store.Count by scanning match keys.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, s.key("*"), scanBatch).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan matches: %w", err)
	}
	return n, nil
}

func decodeMatch(id string, raw []byte) (*model.Match, error) {
	var m model.Match
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode match %s: %w", id, err)
	}
	return &m, nil
}
