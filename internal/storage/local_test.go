package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"arqv-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalObjectStoreRoundTrip(t *testing.T) {
	store, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	err = store.PutObject(ctx, "uploads/session-1/report.txt", strings.NewReader("conteudo do anexo"))
	require.NoError(t, err)

	obj, err := store.GetObject(ctx, "uploads/session-1/report.txt")
	require.NoError(t, err)
	defer obj.Close()

	data, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, "conteudo do anexo", string(data))
}

func TestLocalObjectStoreList(t *testing.T) {
	store, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, store.PutObject(ctx, "uploads/session-1/a.txt", strings.NewReader("aaa")))
	require.NoError(t, store.PutObject(ctx, "uploads/session-1/b.txt", strings.NewReader("bb")))
	require.NoError(t, store.PutObject(ctx, "uploads/session-2/c.txt", strings.NewReader("c")))

	objects, err := store.ListObjects(ctx, "uploads/session-1")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "uploads/session-1/a.txt", objects[0].Name)
	assert.Equal(t, int64(3), objects[0].Size)
}

func TestLocalObjectStoreDelete(t *testing.T) {
	store, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, store.PutObject(ctx, "uploads/session-1/a.txt", strings.NewReader("aaa")))
	require.NoError(t, store.PutObject(ctx, "uploads/session-2/keep.txt", strings.NewReader("keep")))

	require.NoError(t, store.DeleteObjects(ctx, "uploads/session-1"))

	_, err = store.GetObject(ctx, "uploads/session-1/a.txt")
	assert.Error(t, err)

	_, err = store.GetObject(ctx, "uploads/session-2/keep.txt")
	assert.NoError(t, err)
}

func TestLocalObjectStoreMissingPrefixList(t *testing.T) {
	store, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)

	objects, err := store.ListObjects(context.Background(), "uploads/nope")
	require.NoError(t, err)
	assert.Empty(t, objects)
}
