package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ashureev/time-agent/internal/archive"
	"github.com/ashureev/time-agent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleSet(topic string, n int) domain.PuzzleSet {
	set := domain.PuzzleSet{Topic: topic, Narrative: "n"}
	for i := range n {
		set.Puzzles = append(set.Puzzles, domain.Puzzle{
			ID:            fmt.Sprintf("p%d", i),
			Type:          domain.MultipleChoice,
			Description:   "d",
			Question:      fmt.Sprintf("question %d", i),
			Explanation:   "e",
			Options:       []string{"a", "b"},
			CorrectAnswer: domain.IntPtr(0),
		})
	}
	return set
}

func TestSQLiteGetPut(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "k", []byte("v1")))
	require.NoError(t, s.Put(ctx, "k", []byte("v2")))

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v2"), v)
	require.NoError(t, s.Ping(ctx))
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "archive.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, ArchiveKey, []byte(`{}`)))
	require.NoError(t, s.Close())

	s2, err := NewSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	v, ok, err := s2.Get(ctx, ArchiveKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{}`), v)
}

func TestArchiveStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, blobs := range map[string]BlobStore{
		"memory": NewMemory(),
		"sqlite": newSQLite(t),
	} {
		t.Run(name, func(t *testing.T) {
			as := NewArchiveStore(blobs)

			a, err := as.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, a.Len())

			archive.Merge(a, sampleSet("Zeta", 2), archive.DefaultLimits())
			archive.Merge(a, sampleSet("Alpha", 3), archive.DefaultLimits())
			require.NoError(t, as.Save(ctx, a))

			back, err := as.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"zeta", "alpha"}, back.Keys())
			set, ok := back.Get("alpha")
			require.True(t, ok)
			assert.Len(t, set.Puzzles, 3)
		})
	}
}

func TestArchiveStoreCorruptionIsEmpty(t *testing.T) {
	ctx := context.Background()
	blobs := NewMemory()
	require.NoError(t, blobs.Put(ctx, ArchiveKey, []byte("{not json")))

	a, err := NewArchiveStore(blobs).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, a.Len())
}

func TestArchiveServiceMergeGenerated(t *testing.T) {
	ctx := context.Background()
	as := NewArchiveStore(NewMemory())
	svc := archive.NewService(as, archive.Limits{MaxPuzzlesPerTopic: 4, MaxTopics: 2})

	res, err := svc.MergeGenerated(ctx, sampleSet("Herzl", 3))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Added)

	res, err = svc.MergeGenerated(ctx, sampleSet("Herzl", 6))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 2, res.Dropped)

	_, err = svc.MergeGenerated(ctx, sampleSet("Aliyah", 1))
	require.NoError(t, err)
	res, err = svc.MergeGenerated(ctx, sampleSet("Crusades", 1))
	require.NoError(t, err)
	assert.Equal(t, "herzl", res.Evicted)

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"aliyah", "crusades"}, snap.Keys())
}
