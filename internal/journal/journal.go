// Package journal keeps an append-only log of every scan outcome. Entries are
// hash-chained so edits to past history are detectable.
package journal

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Entry is one scan event. PrevHash and Hash are filled in by Append.
type Entry struct {
	ID        string    `json:"id"`
	FrameID   string    `json:"frame_id"`
	Source    string    `json:"source"`
	AccessKey string    `json:"access_key,omitempty"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	PrevHash  string    `json:"prev_hash"`
	Hash      string    `json:"hash"`
}

// digest hashes the entry contents together with the previous entry's hash.
func (e Entry) digest() string {
	sum := blake2b.Sum256([]byte(strings.Join([]string{
		e.PrevHash,
		e.ID,
		e.FrameID,
		e.Source,
		e.AccessKey,
		e.Status,
		e.Timestamp.UTC().Format(time.RFC3339Nano),
	}, "\n")))
	return hex.EncodeToString(sum[:])
}

// Journal is a JSONL file with one Entry per line. The first entry has an
// empty prev_hash.
type Journal struct {
	path string

	mu   sync.Mutex
	last string
}

// Open attaches to the journal at path, reading the existing file (if any) to
// find the tip of the hash chain.
func Open(path string) (*Journal, error) {
	j := &Journal{path: path}
	entries, err := j.read()
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		j.last = entries[len(entries)-1].Hash
	}
	return j, nil
}

// Append assigns e an ID, chains it to the previous entry and writes it
// through to disk.
func (j *Journal) Append(e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	e.PrevHash = j.last
	e.Hash = e.digest()

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write journal entry: %w", err)
	}

	j.last = e.Hash
	return nil
}

// Entries returns every recorded entry in append order.
func (j *Journal) Entries() ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.read()
}

// Verify walks the hash chain and returns an error on the first entry whose
// hash does not match its contents or its predecessor.
func (j *Journal) Verify() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.read()
	if err != nil {
		return err
	}
	prev := ""
	for i, e := range entries {
		if e.PrevHash != prev {
			return fmt.Errorf("journal entry %d: prev_hash mismatch", i+1)
		}
		if e.digest() != e.Hash {
			return fmt.Errorf("journal entry %d: hash mismatch", i+1)
		}
		prev = e.Hash
	}
	return nil
}

// read loads the file without touching the chain tip. Caller holds j.mu
// except during Open.
func (j *Journal) read() ([]Entry, error) {
	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("read journal %s: line %d: %w", j.path, len(entries)+1, err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read journal %s: %w", j.path, err)
	}
	return entries, nil
}
