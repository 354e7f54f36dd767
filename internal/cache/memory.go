package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	val     []byte
	expires time.Time
}

// Memory is an in-process Cache for development and tests.
type Memory struct {
	mu     sync.Mutex
	data   map[string]entry
	prefix string
	now    func() time.Time
}

func NewMemory(prefix string) *Memory {
	return &Memory{
		data:   make(map[string]entry),
		prefix: prefix,
		now:    time.Now,
	}
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) IsProcessed(ctx context.Context, hash string) (bool, error) {
	val, err := m.Get(ctx, processedSpace+hash)
	return val != nil, err
}

func (m *Memory) MarkProcessed(ctx context.Context, hash string, ttl time.Duration) error {
	return m.Set(ctx, processedSpace+hash, []byte("1"), ttl)
}

func (m *Memory) ClearProcessed(ctx context.Context) error {
	return m.DeletePrefix(ctx, processedSpace)
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[m.prefix+key]
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.data, m.prefix+key)
		return nil, nil
	}
	return append([]byte(nil), e.val...), nil
}

// Set stores val under key. A ttl of zero or less never expires.
func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.data[m.prefix+key] = e
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, m.prefix+key)
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, sub string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, m.prefix+sub) {
			delete(m.data, k)
		}
	}
	return nil
}
