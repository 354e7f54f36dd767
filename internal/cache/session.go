package cache

import (
	"context"
	"time"
)

// SessionStorage adapts a Cache to fiber.Storage for the session
// middleware. Keys live in their own namespace so Reset leaves the
// processed set alone.
type SessionStorage struct {
	cache   Cache
	timeout time.Duration
}

func NewSessionStorage(c Cache) *SessionStorage {
	return &SessionStorage{cache: c, timeout: 5 * time.Second}
}

func (s *SessionStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *SessionStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return s.cache.Get(ctx, sessionSpace+key)
}

func (s *SessionStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return s.cache.Set(ctx, sessionSpace+key, val, exp)
}

func (s *SessionStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return s.cache.Delete(ctx, sessionSpace+key)
}

func (s *SessionStorage) Reset() error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.cache.DeletePrefix(ctx, sessionSpace)
}

// Close is a no-op; the owner of the Cache closes it.
func (s *SessionStorage) Close() error {
	return nil
}
