package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Scan limits for directory listings
const (
	scanMaxDepth  = 5
	scanFileLimit = 100
	scanTimeLimit = 3 * time.Second
	scanCacheTTL  = 5 * time.Minute
)

// ScanResult is one listing of the PDF files below a directory
type ScanResult struct {
	Files     []FileInfo
	FromCache bool
	Truncated bool
}

type cacheEntry struct {
	result  ScanResult
	scanned time.Time
}

// Files lists PDF files below a directory. Listings are cached per directory
// for a few minutes and bounded in depth, count and time.
type Files struct {
	maxFileSize int64
	ttl         time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewFiles creates a lister that skips files larger than maxFileSize
func NewFiles(maxFileSize int64) *Files {
	return &Files{
		maxFileSize: maxFileSize,
		ttl:         scanCacheTTL,
		entries:     make(map[string]cacheEntry),
	}
}

// List returns the PDF files below root, sorted by path
func (f *Files) List(ctx context.Context, root string) (*ScanResult, error) {
	f.mu.Lock()
	if e, ok := f.entries[root]; ok && time.Since(e.scanned) <= f.ttl {
		f.mu.Unlock()
		res := e.result
		res.FromCache = true
		return &res, nil
	}
	f.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, scanTimeLimit)
	defer cancel()

	s := &scan{files: f, visited: make(map[string]bool), found: []FileInfo{}}
	err := s.walk(ctx, root, 0)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	sort.Slice(s.found, func(i, j int) bool { return s.found[i].Path < s.found[j].Path })

	res := ScanResult{Files: s.found, Truncated: s.truncated || err != nil}
	f.mu.Lock()
	f.entries[root] = cacheEntry{result: res, scanned: time.Now()}
	f.mu.Unlock()
	return &res, nil
}

// Forget drops the cached listing of root
func (f *Files) Forget(root string) {
	f.mu.Lock()
	delete(f.entries, root)
	f.mu.Unlock()
}

type scan struct {
	files     *Files
	visited   map[string]bool
	found     []FileInfo
	truncated bool
}

func (s *scan) walk(ctx context.Context, dir string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth >= scanMaxDepth {
		return nil
	}

	// symlink cycles
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil || s.visited[resolved] {
		return nil
	}
	s.visited[resolved] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		if len(s.found) >= scanFileLimit {
			s.truncated = true
			return nil
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || entry.Type()&os.ModeSymlink != 0 {
			continue
		}
		path := filepath.Join(dir, name)
		if entry.IsDir() {
			if err := s.walk(ctx, path, depth+1); err != nil {
				return err
			}
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() == 0 || info.Size() > s.files.maxFileSize {
			continue
		}
		s.found = append(s.found, FileInfo{
			Path:         path,
			Name:         name,
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
	}
	return nil
}
