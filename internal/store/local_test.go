package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/nexus/internal/chat"
)

func TestLocalSaveThenLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache.json")
	local := NewLocal(path, nil)

	transcript := []chat.Message{
		chat.NewUserMessage("hello", []chat.Attachment{{ID: "a", Name: "f.txt", MimeType: "text/plain", Data: "aGk="}}),
		chat.NewThoughtMessage("raw draft"),
		chat.NewModelMessage("final answer"),
	}
	local.Save(transcript)

	got := local.Load()
	require.Len(t, got, 3)
	assert.Equal(t, transcript, got)
}

func TestLocalLoadMissingCacheReturnsEmpty(t *testing.T) {
	t.Parallel()

	local := NewLocal(filepath.Join(t.TempDir(), "absent.json"), nil)
	assert.Empty(t, local.Load())
}

func TestLocalLoadCorruptCacheReturnsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json at all"), 0o644))

	local := NewLocal(path, nil)
	assert.Empty(t, local.Load(), "corrupt cache must yield an empty transcript, not an error")
}

func TestLocalSaveCreatesParentDirs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "deep", "cache.json")
	local := NewLocal(path, nil)
	local.Save([]chat.Message{chat.NewModelMessage("hi")})

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}
}

func TestLocalSaveFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// A directory at the cache path forces the write to fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "cache.json"), 0o755))
	local := NewLocal(filepath.Join(dir, "cache.json"), nil)

	local.Save([]chat.Message{chat.NewModelMessage("hi")}) // must not panic
}

func TestLocalClearRemovesCache(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache.json")
	local := NewLocal(path, nil)
	local.Save([]chat.Message{chat.NewModelMessage("hi")})
	local.Clear()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected cache removed, stat err = %v", err)
	}
}
