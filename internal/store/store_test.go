package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	keyA = "35170523456789000144650010000123451000123456"
	keyB = "98765432109876543210987654321098765432109876"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "access_keys.csv"))
	require.NoError(t, err)
	return s
}

func TestAppendAndContains(t *testing.T) {
	s := tempStore(t)

	assert.False(t, s.Contains(keyA))

	stored, err := s.Append(keyA, time.Now())
	require.NoError(t, err)
	assert.True(t, stored)
	assert.True(t, s.Contains(keyA))
	assert.Equal(t, 1, s.Count())
}

func TestAppendDuplicateKeepsOneRow(t *testing.T) {
	s := tempStore(t)

	stored, err := s.Append(keyA, time.Now())
	require.NoError(t, err)
	require.True(t, stored)

	stored, err = s.Append(keyA, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, stored, "duplicate append must be a no-op")
	assert.Equal(t, 1, s.Count())

	// One header row plus one record on disk.
	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(data, []byte("\n")))
}

func TestAppendRejectsMalformedKey(t *testing.T) {
	s := tempStore(t)

	_, err := s.Append("not-a-key", time.Now())
	assert.Error(t, err)
	_, err = s.Append(keyA[:43], time.Now())
	assert.Error(t, err)
	assert.Equal(t, 0, s.Count())

	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr), "rejected append must not create the file")
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access_keys.csv")

	s, err := Open(path)
	require.NoError(t, err)
	ts := time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local)
	_, err = s.Append(keyA, ts)
	require.NoError(t, err)
	_, err = s.Append(keyB, ts.Add(time.Minute))
	require.NoError(t, err)

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.True(t, reopened.Contains(keyA))
	assert.True(t, reopened.Contains(keyB))

	recs := reopened.All()
	require.Len(t, recs, 2)
	assert.Equal(t, keyA, recs[0].AccessKey)
	assert.True(t, ts.Equal(recs[0].Timestamp))
	assert.Equal(t, keyB, recs[1].AccessKey)

	// Dedup survives the reopen too.
	stored, err := reopened.Append(keyA, time.Now())
	require.NoError(t, err)
	assert.False(t, stored)
}

func TestClear(t *testing.T) {
	s := tempStore(t)

	_, err := s.Append(keyA, time.Now())
	require.NoError(t, err)

	require.NoError(t, s.Clear())
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.All())
	assert.False(t, s.Contains(keyA))

	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr))

	// Clearing an already-empty store is fine.
	require.NoError(t, s.Clear())
}

func TestExportGolden(t *testing.T) {
	s := tempStore(t)

	ts := time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local)
	_, err := s.Append(keyA, ts)
	require.NoError(t, err)
	_, err = s.Append(keyB, ts.Add(time.Minute))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.Export(&buf))

	g := goldie.New(t)
	g.Assert(t, "export", buf.Bytes())
}

func TestExportEmptyStoreWritesHeader(t *testing.T) {
	s := tempStore(t)

	var buf bytes.Buffer
	require.NoError(t, s.Export(&buf))
	assert.Equal(t, "access_key,timestamp\n", buf.String())
}
