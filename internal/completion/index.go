// Package completion builds filename suggestion entries by walking a
// directory tree. Rebuilds are throttled and run on the shared worker
// pool so callers never block on filesystem churn.
package completion

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/cliwrap/cliwrap/internal/logging"
	"github.com/cliwrap/cliwrap/internal/pool"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultRebuildInterval is the minimum time between two index rebuilds.
const DefaultRebuildInterval = 30 * time.Second

// Entry is one suggestion: what the dropdown shows and what gets inserted
// on selection.
type Entry struct {
	Display string `json:"display"`
	Insert  string `json:"insert"`
}

// Config configures an Index.
type Config struct {
	// Root is the directory tree to walk.
	Root string

	// Ignore holds doublestar patterns matched against relative paths;
	// matches are excluded from the index.
	Ignore []string

	// RebuildInterval overrides DefaultRebuildInterval.
	RebuildInterval time.Duration
}

// Index holds the current suggestion entries for one directory tree.
type Index struct {
	cfg     Config
	workers *pool.Pool
	log     *logging.Logger
	limiter *rate.Limiter

	building atomic.Bool

	mu      sync.RWMutex
	entries []Entry
	builtAt time.Time
}

// NewIndex creates an index over cfg.Root. No walk happens until Rebuild.
func NewIndex(cfg Config, workers *pool.Pool, log *logging.Logger) *Index {
	if cfg.RebuildInterval <= 0 {
		cfg.RebuildInterval = DefaultRebuildInterval
	}
	if log == nil {
		log = logging.NewDefault()
	}
	return &Index{
		cfg:     cfg,
		workers: workers,
		log:     log,
		limiter: rate.NewLimiter(rate.Every(cfg.RebuildInterval), 1),
	}
}

// Entries returns a snapshot of the current suggestions.
func (i *Index) Entries() []Entry {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]Entry, len(i.entries))
	copy(out, i.entries)
	return out
}

// BuiltAt returns when the index was last built, zero if never.
func (i *Index) BuiltAt() time.Time {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.builtAt
}

// Rebuild schedules a walk on the worker pool. Requests are coalesced
// while a build is in flight and throttled to one per rebuild interval.
// It reports whether a build was actually scheduled.
//
// The throttle token is only spent on a scheduled build: a request that
// loses the in-flight race never reaches the limiter, and a refused
// submit cancels its reservation.
func (i *Index) Rebuild() bool {
	if !i.building.CompareAndSwap(false, true) {
		return false
	}
	res := i.limiter.Reserve()
	if !res.OK() || res.Delay() > 0 {
		res.Cancel()
		i.building.Store(false)
		return false
	}
	if !i.workers.Submit(i.build) {
		res.Cancel()
		i.building.Store(false)
		return false
	}
	return true
}

// BuildNow walks the tree synchronously, bypassing the throttle. Used at
// startup and in tests.
func (i *Index) BuildNow() {
	i.building.Store(true)
	i.build()
}

func (i *Index) build() {
	defer i.building.Store(false)

	i.log.Info("building completions", zap.String("root", i.cfg.Root))
	entries := i.walk()

	i.mu.Lock()
	i.entries = entries
	i.builtAt = time.Now()
	i.mu.Unlock()

	i.log.Info("finished building completions", zap.Int("entries", len(entries)))
}

// walk collects one entry per directory and file under the root, skipping
// dot-files, dot-directories, and ignored paths. Directories are labelled
// "(dir)"; .sql files insert without their extension.
func (i *Index) walk() []Entry {
	var (
		mu      sync.Mutex
		entries []Entry
	)

	conf := fastwalk.Config{Follow: true}
	err := fastwalk.Walk(&conf, i.cfg.Root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are just skipped
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && p != i.cfg.Root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, rerr := filepath.Rel(i.cfg.Root, p)
		if rerr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if i.ignored(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		entry := fileEntry(rel, d.IsDir())
		mu.Lock()
		entries = append(entries, entry)
		mu.Unlock()
		return nil
	})
	if err != nil {
		i.log.Warn("completion walk failed", zap.String("root", i.cfg.Root), zap.Error(err))
	}

	sort.Slice(entries, func(a, b int) bool { return entries[a].Display < entries[b].Display })
	return entries
}

// ignored reports whether rel matches any ignore pattern.
func (i *Index) ignored(rel string) bool {
	for _, pattern := range i.cfg.Ignore {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// fileEntry builds the suggestion for one relative path.
func fileEntry(rel string, isDir bool) Entry {
	if isDir {
		return Entry{Display: rel + "\t(dir)", Insert: rel}
	}
	insert := rel
	if strings.HasSuffix(strings.ToLower(rel), ".sql") {
		insert = rel[:len(rel)-len(".sql")]
	}
	return Entry{Display: rel, Insert: insert}
}

// Usage extracts a one-line usage string from a .sql file: the remainder
// of the first line containing "usage:". Non-SQL files and unreadable
// files yield "".
func Usage(path string) string {
	if !strings.HasSuffix(strings.ToLower(path), ".sql") {
		return ""
	}
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(strings.ToLower(line), "usage:"); idx >= 0 {
			return strings.TrimSpace(line[idx+len("usage:"):])
		}
	}
	return ""
}
