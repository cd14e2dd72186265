package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/shrimpsizemoose/haksa/internal/view"
)

// Sessions keeps one view controller per browser session. The registry is
// bounded: idle sessions expire after ttl and the least recently used one
// is evicted once maxSessions is reached.
type Sessions struct {
	cache   *expirable.LRU[string, *view.Controller]
	factory func() *view.Controller
}

func NewSessions(maxSessions int, ttl time.Duration, factory func() *view.Controller) *Sessions {
	// a dropped session must not keep a derivation running
	onEvict := func(_ string, c *view.Controller) {
		c.Reset()
	}
	return &Sessions{
		cache:   expirable.NewLRU[string, *view.Controller](maxSessions, onEvict, ttl),
		factory: factory,
	}
}

// Lookup returns the live controller for id without creating one, and
// restarts its idle timer.
func (s *Sessions) Lookup(id string) (*view.Controller, bool) {
	if id == "" {
		return nil, false
	}
	c, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	s.cache.Add(id, c)
	return c, true
}

// Get returns the controller for id, creating a fresh session (and id)
// when id is unknown or expired.
func (s *Sessions) Get(id string) (string, *view.Controller) {
	if c, ok := s.Lookup(id); ok {
		return id, c
	}

	id = uuid.NewString()
	c := s.factory()
	s.cache.Add(id, c)
	return id, c
}

func (s *Sessions) Len() int {
	return s.cache.Len()
}
