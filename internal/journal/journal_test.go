package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "35170523456789000144650010000123451000123456"

func tempJournal(t *testing.T) (*Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan_journal.jsonl")
	j, err := Open(path)
	require.NoError(t, err)
	return j, path
}

func TestAppendChainsEntries(t *testing.T) {
	j, _ := tempJournal(t)

	require.NoError(t, j.Append(Entry{FrameID: "f1", Source: "upload", AccessKey: testKey, Status: "saved"}))
	require.NoError(t, j.Append(Entry{FrameID: "f2", Source: "upload", AccessKey: testKey, Status: "duplicate"}))
	require.NoError(t, j.Append(Entry{FrameID: "f3", Source: "webcam", Status: "no_qr"}))

	entries, err := j.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Empty(t, entries[0].PrevHash)
	assert.Equal(t, entries[0].Hash, entries[1].PrevHash)
	assert.Equal(t, entries[1].Hash, entries[2].PrevHash)
	for _, e := range entries {
		assert.NotEmpty(t, e.ID)
		assert.NotEmpty(t, e.Hash)
		assert.False(t, e.Timestamp.IsZero())
	}

	assert.NoError(t, j.Verify())
}

func TestReopenContinuesChain(t *testing.T) {
	j, path := tempJournal(t)

	require.NoError(t, j.Append(Entry{FrameID: "f1", Source: "upload", AccessKey: testKey, Status: "saved"}))

	reopened, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, reopened.Append(Entry{FrameID: "f2", Source: "file", Status: "no_key"}))

	entries, err := reopened.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entries[0].Hash, entries[1].PrevHash)
	assert.NoError(t, reopened.Verify())
}

func TestVerifyDetectsTampering(t *testing.T) {
	j, path := tempJournal(t)

	require.NoError(t, j.Append(Entry{FrameID: "f1", Source: "upload", AccessKey: testKey, Status: "saved"}))
	require.NoError(t, j.Append(Entry{FrameID: "f2", Source: "upload", Status: "no_key"}))
	require.NoError(t, j.Verify())

	// Flip one digit of the recorded key behind the journal's back.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), testKey, "9"+testKey[1:], 1)
	require.NotEqual(t, string(data), tampered)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0644))

	assert.Error(t, j.Verify())
}

func TestEmptyJournal(t *testing.T) {
	j, _ := tempJournal(t)

	entries, err := j.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, j.Verify())
}
