package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadNoReceipt(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.Load()
	require.ErrorIs(t, err, ErrNoReceipt)
}

func TestWriteLoadRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())

	want := &Receipt{
		ManifestHash:  "abc123",
		Requirements:  []string{"requests==2.31.0", "beautifulsoup4>=4.12"},
		PythonVersion: "3.11.6",
		WheelDir:      "/tmp/wheels",
		CreatedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Write(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, got.Matches("abc123"))
	assert.False(t, got.Matches("other"))
}

func TestLoadCorruptReceipt(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))

	_, err := s.Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoReceipt)
}

func TestClear(t *testing.T) {
	s := NewStore(t.TempDir())

	// Clearing when nothing exists is fine.
	require.NoError(t, s.Clear())

	require.NoError(t, s.Write(&Receipt{ManifestHash: "x"}))
	require.NoError(t, s.Clear())
	_, err := s.Load()
	require.ErrorIs(t, err, ErrNoReceipt)
}

func TestMatchesNil(t *testing.T) {
	var r *Receipt
	assert.False(t, r.Matches("abc"))
	assert.False(t, (&Receipt{}).Matches(""))
}

func TestHashManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "requirements.txt")
	require.NoError(t, os.WriteFile(path, []byte("requests==2.31.0\n"), 0o644))

	h1, err := HashManifest(path)
	require.NoError(t, err)
	assert.Len(t, h1, 64)

	require.NoError(t, os.WriteFile(path, []byte("requests==2.30.0\n"), 0o644))
	h2, err := HashManifest(path)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	_, err = HashManifest(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
