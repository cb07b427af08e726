package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ashureev/time-agent/internal/archive"
	"github.com/ashureev/time-agent/internal/domain"
)

// ArchiveKey is the single blob key holding the persisted topic archive.
const ArchiveKey = "kiro_archived_rooms"

// ArchiveStore loads and saves the dynamic topic archive as one JSON blob.
type ArchiveStore struct {
	blobs BlobStore
	key   string
	mu    sync.Mutex
}

// NewArchiveStore wraps a BlobStore.
func NewArchiveStore(blobs BlobStore) *ArchiveStore {
	return &ArchiveStore{blobs: blobs, key: ArchiveKey}
}

// Load reads the archive. A missing or unparseable blob yields an empty
// archive; corruption is logged and never returned to the caller.
func (s *ArchiveStore) Load(ctx context.Context) (*archive.Archive, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *ArchiveStore) load(ctx context.Context) (*archive.Archive, error) {
	data, ok, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load archive: %w", err)
	}
	if !ok || len(data) == 0 {
		return archive.New(), nil
	}

	a := archive.New()
	if err := json.Unmarshal(data, a); err != nil {
		slog.Warn("Discarding unreadable archive",
			"key", s.key,
			"error", fmt.Errorf("%w: %v", domain.ErrStorageCorruption, err))
		return archive.New(), nil
	}
	return a, nil
}

// Save writes the archive wholesale.
func (s *ArchiveStore) Save(ctx context.Context, a *archive.Archive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, a)
}

func (s *ArchiveStore) save(ctx context.Context, a *archive.Archive) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}
	if err := s.blobs.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("save archive: %w", err)
	}
	return nil
}

// Update loads the archive, applies fn and saves the result while holding
// the store lock, so concurrent merges cannot lose each other's writes.
func (s *ArchiveStore) Update(ctx context.Context, fn func(*archive.Archive) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(a); err != nil {
		return err
	}
	return s.save(ctx, a)
}
