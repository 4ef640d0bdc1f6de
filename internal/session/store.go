package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"fintrack/internal/cache"
	"fintrack/internal/storage"
)

// ErrNotFound is returned when no live session has the requested id.
var ErrNotFound = errors.New("session not found")

// Store persists sessions between requests.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	// Touch slides the expiry of a live session without rewriting it.
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

func encode(s *Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// MemoryStore keeps encoded sessions in an LRU cache. Sessions are stored
// encoded so callers never share a *Session across requests.
type MemoryStore struct {
	cache *cache.LRUCache[[]byte]
	ttl   time.Duration
}

func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.NewLRUCache[[]byte](maxEntries, ttl), ttl: ttl}
}

// Cleaner exposes the cache for periodic expiry sweeps.
func (m *MemoryStore) Cleaner() cache.Cleaner {
	return m.cache
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	data, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	m.cache.SetWithTTL(s.ID, data, m.ttl)
	return nil
}

func (m *MemoryStore) Touch(_ context.Context, id string) error {
	if !m.cache.Touch(id, m.ttl) {
		return ErrNotFound
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}

func (m *MemoryStore) Count(context.Context) (int, error) {
	return m.cache.Size(), nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

// SQLiteStore persists sessions through the storage repository.
type SQLiteStore struct {
	repo *storage.SQLiteRepository
	ttl  time.Duration
}

func NewSQLiteStore(repo *storage.SQLiteRepository, ttl time.Duration) *SQLiteStore {
	return &SQLiteStore{repo: repo, ttl: ttl}
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.repo.GetSession(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func (s *SQLiteStore) Save(ctx context.Context, sess *Session) error {
	data, err := encode(sess)
	if err != nil {
		return err
	}
	return s.repo.PutSession(ctx, sess.ID, data, s.ttl)
}

func (s *SQLiteStore) Touch(ctx context.Context, id string) error {
	err := s.repo.TouchSession(ctx, id, s.ttl)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	n, err := s.repo.CountSessions(ctx)
	return int(n), err
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// CleanExpired removes expired rows so the cache manager can sweep them.
func (s *SQLiteStore) CleanExpired() int {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	n, err := s.repo.PurgeExpired(ctx)
	if err != nil {
		return 0
	}
	return int(n)
}

func (s *SQLiteStore) Close() error {
	return s.repo.Close()
}

const redisKeyPrefix = "fintrack:session:"

// RedisStore keeps sessions in Redis with a native expiry.
type RedisStore struct {
	client rueidis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig describes how to reach Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig, ttl time.Duration) (*RedisStore, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{cfg.Addr},
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: create client: %w", err)
	}

	s := &RedisStore{client: client, prefix: redisKeyPrefix, ttl: ttl}
	if err := s.Ping(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Do(ctx, s.client.B().Get().Key(s.key(id)).Build()).AsBytes()
	if rueidis.IsRedisNil(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decode(data)
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	data, err := encode(sess)
	if err != nil {
		return err
	}
	cmd := s.client.B().Set().Key(s.key(sess.ID)).Value(string(data)).Ex(s.ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Touch(ctx context.Context, id string) error {
	cmd := s.client.B().Expire().Key(s.key(id)).Seconds(int64(s.ttl / time.Second)).Build()
	n, err := s.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		return fmt.Errorf("redis expire: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Do(ctx, s.client.B().Del().Key(s.key(id)).Build()).Error(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Count walks the session keyspace with SCAN.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		cmd := s.client.B().Scan().Cursor(cursor).Match(s.prefix + "*").Count(500).Build()
		entry, err := s.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return 0, fmt.Errorf("redis scan: %w", err)
		}
		for _, k := range entry.Elements {
			if strings.HasPrefix(k, s.prefix) {
				total++
			}
		}
		cursor = entry.Cursor
		if cursor == 0 {
			return total, nil
		}
	}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	s.client.Close()
	return nil
}
