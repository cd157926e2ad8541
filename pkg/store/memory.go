package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/topolens/topolens/pkg/errors"
	"github.com/topolens/topolens/pkg/inventory"
)

// MemoryStore is an in-memory snapshot store for development and the CLI.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Save stores a snapshot under a fresh uuid.
func (s *MemoryStore) Save(ctx context.Context, name string, snap inventory.Snapshot) (*Record, error) {
	rec := &Record{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		VMCount:   len(snap.VMs),
		HostCount: len(snap.Hosts),
		Snapshot:  snap,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec

	out := *rec
	return &out, nil
}

// Get retrieves a snapshot by id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeSnapshotNotFound, "snapshot %q not found", id)
	}

	out := *rec
	return &out, nil
}

// List returns metadata for all stored snapshots, newest first.
func (s *MemoryStore) List(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		meta := *rec
		meta.Snapshot = inventory.Snapshot{}
		out = append(out, meta)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a snapshot.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return errors.New(errors.ErrCodeSnapshotNotFound, "snapshot %q not found", id)
	}
	delete(s.records, id)
	return nil
}

// Close does nothing for the memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
