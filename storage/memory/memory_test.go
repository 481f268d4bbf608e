package memory_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/cvdrop/storage"
	"github.com/jmcleod/cvdrop/storage/memory"
)

func TestStoreRoundTrip(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	saved, err := store.Save(ctx, "cv.pdf", strings.NewReader("bytes"))
	require.NoError(t, err)

	rc, meta, err := store.Open(ctx, saved.StoredName)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(data))
	assert.Equal(t, "cv.pdf", meta.OriginalName)
}

func TestStoreOpenMissing(t *testing.T) {
	store := memory.NewStore()
	_, _, err := store.Open(context.Background(), "missing")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestStoreCountsListCalls(t *testing.T) {
	store := memory.NewStore()
	assert.Equal(t, 0, store.ListCalls())

	_, err := store.List(context.Background())
	require.NoError(t, err)
	_, err = store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.ListCalls())
}

func TestIndexRoundTrip(t *testing.T) {
	idx := memory.NewIndex()
	file := storage.UploadedFile{StoredName: "k", OriginalName: "cv.pdf"}
	require.NoError(t, idx.Record(file))

	got, ok, err := idx.Lookup("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "cv.pdf", got.OriginalName)

	_, ok, err = idx.Lookup("absent")
	require.NoError(t, err)
	assert.False(t, ok)
}
