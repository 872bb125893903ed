// Package cache remembers extraction results by blob object id, so a file
// that did not change between commits is extracted once.
package cache

import (
	"fmt"
	"io"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// DefaultMemoryEntries bounds the in-memory layer
const DefaultMemoryEntries = 50000

// Key builds the cache key of a blob extracted as lang
func Key(lang, oid string) string {
	return lang + ":" + oid
}

// Store is a backing layer for extraction results
type Store interface {
	Get(key string) ([]string, bool, error)
	Put(key string, specifiers []string) error
	Close() error
}

// Stats counts cache traffic
type Stats struct {
	Hits       int
	Misses     int
	DiskHits   int
	DiskErrors int
}

// Manager layers an LRU over an optional persistent Store. Store failures are
// logged and treated as misses.
type Manager struct {
	mem    *lru.Cache[string, []string]
	disk   Store
	logger logrus.FieldLogger

	mu    sync.Mutex
	stats Stats
}

// NewManager creates a manager holding up to entries results in memory.
// disk may be nil.
func NewManager(entries int, disk Store, logger logrus.FieldLogger) (*Manager, error) {
	if entries <= 0 {
		entries = DefaultMemoryEntries
	}
	mem, err := lru.New[string, []string](entries)
	if err != nil {
		return nil, fmt.Errorf("create memory cache: %w", err)
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Manager{mem: mem, disk: disk, logger: logger}, nil
}

// Get looks up a result, promoting disk hits into memory
func (m *Manager) Get(key string) ([]string, bool) {
	if v, ok := m.mem.Get(key); ok {
		m.count(func(s *Stats) { s.Hits++ })
		return v, true
	}
	if m.disk != nil {
		v, ok, err := m.disk.Get(key)
		if err != nil {
			m.count(func(s *Stats) { s.DiskErrors++ })
			m.logger.WithError(err).WithField("key", key).Debug("cache read failed")
		} else if ok {
			m.count(func(s *Stats) {
				s.Hits++
				s.DiskHits++
			})
			m.mem.Add(key, v)
			return v, true
		}
	}
	m.count(func(s *Stats) { s.Misses++ })
	return nil, false
}

// Put records a result in every layer
func (m *Manager) Put(key string, specifiers []string) {
	if specifiers == nil {
		specifiers = []string{}
	}
	m.mem.Add(key, specifiers)
	if m.disk == nil {
		return
	}
	if err := m.disk.Put(key, specifiers); err != nil {
		m.count(func(s *Stats) { s.DiskErrors++ })
		m.logger.WithError(err).WithField("key", key).Debug("cache write failed")
	}
}

// Stats returns traffic counters so far
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *Manager) count(update func(*Stats)) {
	m.mu.Lock()
	update(&m.stats)
	m.mu.Unlock()
}

// Close releases the persistent layer
func (m *Manager) Close() error {
	if m.disk == nil {
		return nil
	}
	return m.disk.Close()
}
