// Package memstore is an in-process cache.Store backed by an LRU, for
// deployments that run without Redis.
package memstore

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/RaparthiSrikar/CityAssist/internal/cache"
)

type entry struct {
	val       []byte
	expiresAt time.Time
}

type Store struct {
	lru *lru.Cache[string, entry]
	now func() time.Time
}

var _ cache.Store = (*Store)(nil)

func New(size int) *Store {
	if size <= 0 {
		size = 4096
	}
	c, _ := lru.New[string, entry](size)
	return &Store{lru: c, now: time.Now}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := s.lru.Get(key)
	if !ok {
		return nil, cache.ErrNotFound
	}
	if s.now().After(e.expiresAt) {
		s.lru.Remove(key)
		return nil, cache.ErrNotFound
	}
	return e.val, nil
}

func (s *Store) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	s.lru.Add(key, entry{val: val, expiresAt: s.now().Add(ttl)})
	return nil
}

func (s *Store) Close() error { return nil }
