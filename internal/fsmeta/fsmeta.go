// Package fsmeta caches file metadata for a file-manager view. Each resident
// entry costs a configurable number of size units in the underlying cache.
package fsmeta

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/IvanBrykalov/sizecache/cache"
	"github.com/spf13/afero"
)

// Entry is the cached view of one file or directory.
type Entry struct {
	Path    string
	Name    string
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
	IsDir   bool
}

// Options configures a Store.
type Options struct {
	MaxSize int64
	// Shards: 1 or less = one global LRU, otherwise a sharded cache.
	Shards int
	// UnitsPerEntry is the weight of one Entry; 0 means 1.
	UnitsPerEntry int64
	Metrics       cache.Metrics
	Logger        *slog.Logger
	Strict        bool
}

// Store serves Stat calls through a size-bounded LRU over an afero.Fs.
type Store struct {
	fs    afero.Fs
	c     cache.LoadingCache[string, Entry]
	units int64
	log   *slog.Logger
}

// New builds a Store reading metadata from fsys.
func New(fsys afero.Fs, opt Options) *Store {
	if opt.UnitsPerEntry <= 0 {
		opt.UnitsPerEntry = 1
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{fs: fsys, units: opt.UnitsPerEntry, log: opt.Logger}

	co := cache.Options[string, Entry]{
		MaxSize: opt.MaxSize,
		Shards:  opt.Shards,
		Loader:  s.load,
		Sizer:   func(Entry) int64 { return s.units },
		Metrics: opt.Metrics,
		Logger:  opt.Logger,
		Strict:  opt.Strict,
	}
	if opt.Shards > 1 {
		s.c = cache.NewSharded(co)
	} else {
		s.c = cache.NewSynced(co)
	}
	return s
}

// Stat returns metadata for path, hitting the filesystem only on a miss.
func (s *Store) Stat(ctx context.Context, path string) (Entry, error) {
	return s.c.GetOrLoad(ctx, filepath.Clean(path))
}

// Cached reports whether path is resident without touching recency.
func (s *Store) Cached(path string) bool { return s.c.Contains(filepath.Clean(path)) }

// Invalidate drops path so the next Stat re-reads it.
func (s *Store) Invalidate(path string) bool { return s.c.Remove(filepath.Clean(path)) }

// UnitsPerEntry returns the weight of one cached entry.
func (s *Store) UnitsPerEntry() int64 { return s.units }

// Cache exposes the underlying cache, e.g. for Stats or SetMaxSize.
func (s *Store) Cache() cache.LoadingCache[string, Entry] { return s.c }

// Close releases the cache.
func (s *Store) Close() error { return s.c.Close() }

func (s *Store) load(ctx context.Context, path string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	fi, err := s.fs.Stat(path)
	if err != nil {
		return Entry{}, fmt.Errorf("stat %s: %w", path, err)
	}
	s.log.Debug("metadata loaded", "path", path)
	return Entry{
		Path:    path,
		Name:    fi.Name(),
		Size:    fi.Size(),
		Mode:    fi.Mode(),
		ModTime: fi.ModTime(),
		IsDir:   fi.IsDir(),
	}, nil
}

// ScanReport summarizes one Scan.
type ScanReport struct {
	Files  int
	Dirs   int
	Bytes  int64
	Hits   int
	Misses int
}

// HitRate returns hits / (hits + misses), or 0 for an empty scan.
func (r ScanReport) HitRate() float64 {
	total := r.Hits + r.Misses
	if total == 0 {
		return 0
	}
	return float64(r.Hits) / float64(total)
}

// errStop aborts afero.Walk when ctx is cancelled.
var errStop = errors.New("scan stopped")

// Scan walks root and stats every path through the cache, the way a
// file-manager listing would. A path already resident counts as a hit.
func (s *Store) Scan(ctx context.Context, root string) (ScanReport, error) {
	var rep ScanReport
	err := afero.Walk(s.fs, root, func(path string, _ fs.FileInfo, werr error) error {
		if werr != nil {
			return werr
		}
		if ctx.Err() != nil {
			return errStop
		}
		if s.Cached(path) {
			rep.Hits++
		} else {
			rep.Misses++
		}
		e, err := s.Stat(ctx, path)
		if err != nil {
			return err
		}
		if e.IsDir {
			rep.Dirs++
		} else {
			rep.Files++
			rep.Bytes += e.Size
		}
		return nil
	})
	if errors.Is(err, errStop) {
		return rep, ctx.Err()
	}
	if err != nil {
		return rep, fmt.Errorf("scan %s: %w", root, err)
	}
	s.log.Debug("scan finished", "root", root, "files", rep.Files, "dirs", rep.Dirs, "hits", rep.Hits)
	return rep, nil
}
