package fsmeta

import (
	"context"
	"io/fs"
	"testing"

	"github.com/IvanBrykalov/sizecache/cache"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTree(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/data/sub", 0o755))
	require.NoError(t, afero.WriteFile(fsys, "/data/a.txt", []byte("abc"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/data/b.txt", []byte("hello"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/data/sub/c.txt", []byte("1234567"), 0o644))
	return fsys
}

func TestStore_StatCachesEntry(t *testing.T) {
	s := New(newTree(t), Options{MaxSize: 10, Strict: true})
	defer s.Close()
	ctx := context.Background()

	e, err := s.Stat(ctx, "/data/./a.txt")
	require.NoError(t, err)
	assert.Equal(t, "/data/a.txt", e.Path)
	assert.Equal(t, "a.txt", e.Name)
	assert.Equal(t, int64(3), e.Size)
	assert.False(t, e.IsDir)
	assert.True(t, s.Cached("/data/a.txt"))

	_, err = s.Stat(ctx, "/data/a.txt")
	require.NoError(t, err)
	st := s.Cache().Stats()
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
}

func TestStore_InvalidateRereads(t *testing.T) {
	fsys := newTree(t)
	s := New(fsys, Options{MaxSize: 10, Strict: true})
	ctx := context.Background()

	_, err := s.Stat(ctx, "/data/a.txt")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fsys, "/data/a.txt", []byte("abcdefgh"), 0o644))

	e, err := s.Stat(ctx, "/data/a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(3), e.Size, "stale until invalidated")

	assert.True(t, s.Invalidate("/data/a.txt"))
	assert.False(t, s.Invalidate("/data/a.txt"))

	e, err = s.Stat(ctx, "/data/a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(8), e.Size)
}

func TestStore_MissingPath(t *testing.T) {
	s := New(newTree(t), Options{MaxSize: 10, Strict: true})

	_, err := s.Stat(context.Background(), "/nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.False(t, s.Cached("/nope"))
	assert.Zero(t, s.Cache().Len())
}

func TestStore_UnitsPerEntryBoundsResidency(t *testing.T) {
	s := New(newTree(t), Options{MaxSize: 10, UnitsPerEntry: 4, Strict: true})
	ctx := context.Background()
	assert.Equal(t, int64(4), s.UnitsPerEntry())

	for _, p := range []string{"/data/a.txt", "/data/b.txt", "/data/sub/c.txt"} {
		_, err := s.Stat(ctx, p)
		require.NoError(t, err)
	}
	c := s.Cache()
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(8), c.Size())
	assert.False(t, s.Cached("/data/a.txt"), "least recently used entry is evicted")
	assert.True(t, s.Cached("/data/b.txt"))
	assert.True(t, s.Cached("/data/sub/c.txt"))
}

func TestStore_EntryHeavierThanCacheIsServedUncached(t *testing.T) {
	s := New(newTree(t), Options{MaxSize: 3, UnitsPerEntry: 4, Strict: true})

	e, err := s.Stat(context.Background(), "/data/b.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(5), e.Size)
	assert.False(t, s.Cached("/data/b.txt"))
	assert.Equal(t, int64(1), s.Cache().Stats().Rejects)
}

func TestStore_Scan(t *testing.T) {
	for _, shards := range []int{1, 4} {
		s := New(newTree(t), Options{MaxSize: 100, Shards: shards, Strict: true})
		ctx := context.Background()

		first, err := s.Scan(ctx, "/data")
		require.NoError(t, err)
		assert.Equal(t, ScanReport{Files: 3, Dirs: 2, Bytes: 15, Misses: 5}, first)
		assert.Zero(t, first.HitRate())

		second, err := s.Scan(ctx, "/data")
		require.NoError(t, err)
		assert.Equal(t, ScanReport{Files: 3, Dirs: 2, Bytes: 15, Hits: 5}, second)
		assert.InDelta(t, 1.0, second.HitRate(), 1e-9)

		if shards > 1 {
			_, ok := s.Cache().(*cache.Sharded[string, Entry])
			assert.True(t, ok)
		}
	}
}

func TestStore_ScanCancelled(t *testing.T) {
	s := New(newTree(t), Options{MaxSize: 100, Strict: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := s.Scan(ctx, "/data")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, rep.Files+rep.Dirs)
}

func TestScanReport_HitRateEmpty(t *testing.T) {
	assert.Zero(t, ScanReport{}.HitRate())
}
