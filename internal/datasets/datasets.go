// Package datasets caches loaded dataset snapshots behind server-assigned
// handle IDs with idle-TTL eviction. Snapshots are immutable combined
// tables, so handles are safe to share across concurrent readers.
package datasets

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goldenstatedata/gr237/config"
	"github.com/goldenstatedata/gr237/internal/dataset"
	"github.com/goldenstatedata/gr237/internal/pipeline"
)

// ErrSnapshotNotFound indicates an unknown or expired dataset handle ID.
var ErrSnapshotNotFound = errors.New("datasets: snapshot not found")

// Snapshot pairs a loaded table with its processing reports and TTL
// bookkeeping.
type Snapshot struct {
	ID      string
	Files   []string
	Table   *dataset.Table
	Reports []pipeline.Report

	LoadedAt  time.Time
	expiresAt time.Time
	mu        sync.Mutex
}

// DatasetGate coordinates capacity for open snapshots (backed by
// runtime.Controller).
type DatasetGate interface {
	AcquireDataset(ctx context.Context) error
	ReleaseDataset()
}

// Store registers snapshots and evicts them after idle TTL.
type Store struct {
	mu           sync.RWMutex
	snapshots    map[string]*Snapshot
	ttl          time.Duration
	cleanupEvery time.Duration
	clock        func() time.Time
	gate         DatasetGate
	stopCh       chan struct{}
	cleanupWG    sync.WaitGroup
}

// NewStore constructs a snapshot store. Pass ttl or cleanupEvery <= 0 to use
// defaults; gate can be nil for tests; clock defaults to time.Now when nil.
func NewStore(ttl, cleanupEvery time.Duration, gate DatasetGate, clock func() time.Time) *Store {
	if ttl <= 0 {
		ttl = config.DefaultDatasetIdleTTL
	}
	if cleanupEvery <= 0 {
		cleanupEvery = config.DefaultDatasetCleanupPeriod
	}
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		snapshots:    make(map[string]*Snapshot),
		ttl:          ttl,
		cleanupEvery: cleanupEvery,
		clock:        clock,
		gate:         gate,
		stopCh:       make(chan struct{}),
	}
}

// Start launches periodic eviction of expired snapshots.
func (s *Store) Start() {
	s.cleanupWG.Add(1)
	ticker := time.NewTicker(s.cleanupEvery)
	go func() {
		defer s.cleanupWG.Done()
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.EvictExpired()
			}
		}
	}()
}

// Close stops background cleanup and releases all snapshots.
func (s *Store) Close(ctx context.Context) error {
	close(s.stopCh)
	done := make(chan struct{})
	go func() { s.cleanupWG.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.snapshots {
		delete(s.snapshots, id)
		if s.gate != nil {
			s.gate.ReleaseDataset()
		}
	}
	return nil
}

// Register stores a loaded table under a fresh handle ID, enforcing open
// capacity via the gate when provided.
func (s *Store) Register(ctx context.Context, files []string, table *dataset.Table, reports []pipeline.Report) (string, error) {
	if table == nil {
		return "", errors.New("datasets: nil table")
	}
	if s.gate != nil {
		if err := s.gate.AcquireDataset(ctx); err != nil {
			return "", err
		}
	}
	now := s.clock()
	snap := &Snapshot{
		ID:        uuid.NewString(),
		Files:     append([]string(nil), files...),
		Table:     table,
		Reports:   reports,
		LoadedAt:  now,
		expiresAt: now.Add(s.ttl),
	}
	s.mu.Lock()
	s.snapshots[snap.ID] = snap
	s.mu.Unlock()
	return snap.ID, nil
}

// Get returns the snapshot when present and refreshes its idle TTL.
func (s *Store) Get(id string) (*Snapshot, bool) {
	s.mu.RLock()
	snap, ok := s.snapshots[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	now := s.clock()
	snap.mu.Lock()
	snap.expiresAt = now.Add(s.ttl)
	snap.mu.Unlock()
	return snap, true
}

// Release removes a snapshot by ID, freeing capacity via the gate.
func (s *Store) Release(id string) error {
	s.mu.Lock()
	_, ok := s.snapshots[id]
	if ok {
		delete(s.snapshots, id)
	}
	s.mu.Unlock()
	if !ok {
		return ErrSnapshotNotFound
	}
	if s.gate != nil {
		s.gate.ReleaseDataset()
	}
	return nil
}

// EvictExpired drops snapshots whose idle TTL has elapsed.
func (s *Store) EvictExpired() {
	now := s.clock()
	var expired []string

	s.mu.RLock()
	for id, snap := range s.snapshots {
		snap.mu.Lock()
		isExpired := now.After(snap.expiresAt)
		snap.mu.Unlock()
		if isExpired {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range expired {
		s.mu.Lock()
		_, ok := s.snapshots[id]
		if ok {
			delete(s.snapshots, id)
		}
		s.mu.Unlock()
		if ok && s.gate != nil {
			s.gate.ReleaseDataset()
		}
	}
}

// Count returns the current number of cached snapshots.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

// Expired reports whether the snapshot has reached its TTL.
func (snap *Snapshot) Expired(now time.Time) bool {
	snap.mu.Lock()
	defer snap.mu.Unlock()
	return now.After(snap.expiresAt)
}
