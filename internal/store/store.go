package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/zepa1/nfekey/internal/extract"
)

// TimeLayout is the timestamp format written to the CSV file.
const TimeLayout = "2006-01-02 15:04:05"

var header = []string{"access_key", "timestamp"}

// Record is one collected access key with its capture time.
type Record struct {
	AccessKey string    `json:"access_key"`
	Timestamp time.Time `json:"timestamp"`
}

// Store keeps collected access keys in a flat CSV file, one row per key.
// Appends are written through immediately; duplicates are rejected in memory
// before touching the file.
type Store struct {
	path string

	mu   sync.RWMutex
	keys map[string]struct{}
	recs []Record
}

// Open loads the store at path. A missing file is an empty store; the file is
// only created on the first accepted append.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		keys: make(map[string]struct{}),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the location of the backing CSV file.
func (s *Store) Path() string { return s.path }

// Contains reports whether key is already recorded.
func (s *Store) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[key]
	return ok
}

// Append records key at ts and writes the row through to disk. It returns
// false with a nil error when the key is already recorded; a duplicate is
// informational, not a failure, and leaves the file untouched.
func (s *Store) Append(key string, ts time.Time) (bool, error) {
	if !extract.Valid(key) {
		return false, fmt.Errorf("append: %q is not a 44-digit access key", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key]; ok {
		return false, nil
	}

	if err := s.writeRow(key, ts); err != nil {
		return false, err
	}

	s.keys[key] = struct{}{}
	s.recs = append(s.recs, Record{AccessKey: key, Timestamp: ts})
	return true, nil
}

// All returns the recorded keys in append order.
func (s *Store) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.recs))
	copy(out, s.recs)
	return out
}

// Count returns the number of recorded keys.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs)
}

// Export writes the store as CSV, header included, regardless of whether the
// backing file exists yet.
func (s *Store) Export(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	for _, r := range s.recs {
		if err := cw.Write([]string{r.AccessKey, r.Timestamp.Format(TimeLayout)}); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// Clear removes every record and deletes the backing file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear store: %w", err)
	}
	s.keys = make(map[string]struct{})
	s.recs = nil
	return nil
}

func (s *Store) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open store: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return fmt.Errorf("read store %s: %w", s.path, err)
	}
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == header[0] {
			continue
		}
		if len(row) != 2 {
			return fmt.Errorf("read store %s: row %d has %d columns, want 2", s.path, i+1, len(row))
		}
		ts, err := time.ParseInLocation(TimeLayout, row[1], time.Local)
		if err != nil {
			return fmt.Errorf("read store %s: row %d: %w", s.path, i+1, err)
		}
		s.keys[row[0]] = struct{}{}
		s.recs = append(s.recs, Record{AccessKey: row[0], Timestamp: ts})
	}
	return nil
}

// writeRow appends one CSV row, creating the file with a header row first.
// Caller holds s.mu.
func (s *Store) writeRow(key string, ts time.Time) error {
	_, statErr := os.Stat(s.path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if fresh {
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("write store header: %w", err)
		}
	}
	if err := cw.Write([]string{key, ts.Format(TimeLayout)}); err != nil {
		return fmt.Errorf("write store row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write store row: %w", err)
	}
	return f.Sync()
}
