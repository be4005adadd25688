package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"petzap/internal/cart"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrCartNotFound is returned when a cart expired or never existed.
var ErrCartNotFound = errors.New("cart not found")

// CartStore keeps in-progress carts between requests.
type CartStore interface {
	Get(ctx context.Context, id uuid.UUID) (*cart.Cart, error)
	Save(ctx context.Context, c *cart.Cart) error
	Delete(ctx context.Context, id uuid.UUID) error
}

const cartKeyPrefix = "cart:"

func cartKey(id uuid.UUID) string { return cartKeyPrefix + id.String() }

// ── Redis ────────────────────────────────────────────────────────────────────

type redisCartStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCartStore stores carts as JSON strings. Every save refreshes the TTL.
func NewRedisCartStore(rdb *redis.Client, ttl time.Duration) CartStore {
	return &redisCartStore{rdb: rdb, ttl: ttl}
}

func (s *redisCartStore) Get(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	raw, err := s.rdb.Get(ctx, cartKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cart store: get: %w", err)
	}
	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("cart store: decode: %w", err)
	}
	return &c, nil
}

func (s *redisCartStore) Save(ctx context.Context, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("cart store: encode: %w", err)
	}
	return s.rdb.Set(ctx, cartKey(c.ID), data, s.ttl).Err()
}

func (s *redisCartStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.rdb.Del(ctx, cartKey(id)).Err()
}

// ── Memory ───────────────────────────────────────────────────────────────────

type memoryCartStore struct {
	mu    sync.Mutex
	carts map[uuid.UUID][]byte
}

// NewMemoryCartStore keeps carts in process. Used by tests and when Redis is down.
func NewMemoryCartStore() CartStore {
	return &memoryCartStore{carts: make(map[uuid.UUID][]byte)}
}

func (s *memoryCartStore) Get(_ context.Context, id uuid.UUID) (*cart.Cart, error) {
	s.mu.Lock()
	raw, ok := s.carts[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrCartNotFound
	}
	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *memoryCartStore) Save(_ context.Context, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.carts[c.ID] = data
	s.mu.Unlock()
	return nil
}

func (s *memoryCartStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	delete(s.carts, id)
	s.mu.Unlock()
	return nil
}
