package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSessionTTL keeps an idle checkout session for one shift.
const DefaultSessionTTL = 8 * time.Hour

// SessionStore persists carts by checkout session id. Loading an unknown
// session yields an empty cart.
//
// BeginSubmit moves the stored cart to submitting as one atomic step, so at
// most one of several concurrent submits on a session wins.
type SessionStore interface {
	Load(ctx context.Context, id string) (*Cart, error)
	Save(ctx context.Context, id string, cart *Cart) error
	Delete(ctx context.Context, id string) error
	BeginSubmit(ctx context.Context, id string, now time.Time) (*Cart, error)
}

type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]Cart)}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[id]
	if !ok {
		return &Cart{State: StateEmpty}, nil
	}
	c.Lines = append([]Line(nil), c.Lines...)
	return &c, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, cart *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *cart
	c.Lines = append([]Line(nil), cart.Lines...)
	s.carts[id] = c
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, id)
	return nil
}

func (s *MemoryStore) BeginSubmit(_ context.Context, id string, now time.Time) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.carts[id]
	c.Lines = append([]Line(nil), c.Lines...)
	if err := c.BeginSubmit(now); err != nil {
		return nil, err
	}
	s.carts[id] = c

	out := c
	out.Lines = append([]Line(nil), c.Lines...)
	return &out, nil
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisStore{client: client, ttl: ttl, prefix: "checkout:session:"}
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Cart, error) {
	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Cart{State: StateEmpty}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &c, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, cart *Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}
	if err := s.client.Set(ctx, s.prefix+id, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// BeginSubmit watches the session key so a write by a concurrent submit
// between the read and the write aborts this one with ErrCheckoutInProgress.
func (s *RedisStore) BeginSubmit(ctx context.Context, id string, now time.Time) (*Cart, error) {
	key := s.prefix + id
	var cart Cart

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		cart = Cart{}
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("load session %s: %w", id, err)
		default:
			if err := json.Unmarshal(data, &cart); err != nil {
				return fmt.Errorf("decode session %s: %w", id, err)
			}
		}

		if err := cart.BeginSubmit(now); err != nil {
			return err
		}

		data, err = json.Marshal(&cart)
		if err != nil {
			return fmt.Errorf("encode session %s: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return nil, ErrCheckoutInProgress
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}
