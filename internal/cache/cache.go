// Package cache stores rendered responses for the public listing endpoints.
// Memory backs single-process and test setups; Redis is used when
// REDIS_ADDR is configured.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	DeletePrefix(ctx context.Context, prefix string) error
}

type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	m       map[string]entry
	sweepAt time.Time
}

type entry struct {
	val []byte
	exp time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Memory{
		ttl: ttl,
		now: time.Now,
		m:   make(map[string]entry),
	}
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false, nil
	}

	return e.val, true, nil
}

func (c *Memory) Set(_ context.Context, key string, val []byte) error {
	now := c.now()

	c.mu.Lock()
	c.sweep(now)
	c.m[key] = entry{val: val, exp: now.Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

// Len counts stored entries, expired or not.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// caller holds c.mu
func (c *Memory) sweep(now time.Time) {
	if now.Before(c.sweepAt) {
		return
	}
	for k, e := range c.m {
		if now.After(e.exp) {
			delete(c.m, k)
		}
	}
	c.sweepAt = now.Add(c.ttl)
}

func (c *Memory) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	for k := range c.m {
		if strings.HasPrefix(k, prefix) {
			delete(c.m, k)
		}
	}
	c.mu.Unlock()
	return nil
}
