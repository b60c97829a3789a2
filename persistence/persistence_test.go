package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreDeepCopiesOnWriteAndRead(t *testing.T) {
	store := NewInMemoryStore()
	original := ConversationData{SessionID: "s1", Messages: nil, CreatedAt: 1, UpdatedAt: 1}
	require.NoError(t, store.Save(original))

	loaded, err := store.Load("s1")
	require.NoError(t, err)
	loaded.UpdatedAt = 999

	reloaded, err := store.Load("s1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.UpdatedAt)
}

func TestInMemoryStoreMissingLoadReturnsNil(t *testing.T) {
	store := NewInMemoryStore()
	loaded, err := store.Load("nope")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	store := NewFileStore(dir)

	data := ConversationData{SessionID: "weird/id with spaces!", CreatedAt: 1, UpdatedAt: 2}
	require.NoError(t, store.Save(data))

	loaded, err := store.Load("weird/id with spaces!")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, data.SessionID, loaded.SessionID)

	names, err := store.List()
	require.NoError(t, err)
	assert.Len(t, names, 1)

	require.NoError(t, store.Delete("weird/id with spaces!"))
	loaded, err = store.Load("weird/id with spaces!")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileStoreMissingDirListReturnsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist"))
	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFileStoreDeleteMissingIsNoop(t *testing.T) {
	store := NewFileStore(t.TempDir())
	require.NoError(t, store.Delete("nonexistent"))
}
