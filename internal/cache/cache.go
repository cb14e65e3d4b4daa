// Package cache persists aggregated results as one JSON file per
// (location type, region, calendar day). Entries expire on the calendar
// date boundary, not after an elapsed duration: a file written at 23:59 is
// stale at the next midnight.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/geoatlas/poifetch/internal/model"
)

const dateLayout = "20060102"

// Store is a day-scoped on-disk cache. The only cross-request mutable state
// in the pipeline lives here; writes are atomic per key so concurrent
// fetches of the same key never expose a half-written file.
type Store struct {
	dir string
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock, for calendar-day tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates the cache directory if needed.
func NewStore(dir string, opts ...Option) (*Store, error) {
	s := &Store{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "cache: create directory %s", dir)
	}
	return s, nil
}

// Dir returns the cache root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns today's cache file path for the key. The name is derived
// deterministically from (type, region, date) and never parsed back, so
// lookups are exact by construction.
func (s *Store) Path(locationType, region string) string {
	return filepath.Join(s.dir, s.filename(locationType, region))
}

func (s *Store) filename(locationType, region string) string {
	date := s.now().Format(dateLayout)
	return locationType + "_" + region + "_" + date + ".json"
}

// Get returns the cached result for (type, region) if an entry exists for
// the current calendar date. A missing, unreadable or corrupt file is a
// miss, never an error: the caller can always fall back to a fresh fetch.
func (s *Store) Get(locationType, region string) (*model.AggregatedResult, bool) {
	path := s.Path(locationType, region)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			zap.L().Warn("cache: unreadable entry treated as miss",
				zap.String("path", path), zap.Error(err))
		}
		return nil, false
	}

	var result model.AggregatedResult
	if err := json.Unmarshal(data, &result); err != nil {
		zap.L().Warn("cache: corrupt entry treated as miss",
			zap.String("path", path), zap.Error(err))
		return nil, false
	}

	return &result, true
}

// Put stores the result under today's key, overwriting any previous entry.
// The write goes to a temp file in the same directory followed by a rename,
// so a crash mid-write cannot leave a partial file under the real name.
func (s *Store) Put(locationType, region string, result *model.AggregatedResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "cache: encode result")
	}

	tmp, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		return eris.Wrap(err, "cache: create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "cache: write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "cache: close temp file")
	}

	path := s.Path(locationType, region)
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "cache: rename into place %s", path)
	}
	return nil
}

// List returns the cache file names (not paths), sorted. Temp files from
// in-flight writes are excluded.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, eris.Wrapf(err, "cache: list %s", s.dir)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Load reads one cache file by name, regardless of its date. Used by the
// filter and stats commands, which operate on previously fetched files.
func (s *Store) Load(name string) (*model.AggregatedResult, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, eris.Wrapf(err, "cache: read %s", name)
	}
	var result model.AggregatedResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, eris.Wrapf(err, "cache: decode %s", name)
	}
	return &result, nil
}
