// Package memory provides thread-safe in-memory implementations of
// storage.Store and storage.Index. Suitable for testing and demos.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jmcleod/cvdrop/storage"
)

// Store keeps uploaded bytes in process memory. It counts List calls so
// tests can assert that denied listing requests never touch the store.
type Store struct {
	mu        sync.RWMutex
	files     map[string]entry
	listCalls int
}

type entry struct {
	meta storage.UploadedFile
	data []byte
}

var _ storage.Store = (*Store)(nil)

// NewStore creates a new empty in-memory Store.
func NewStore() *Store {
	return &Store{files: make(map[string]entry)}
}

func (s *Store) Save(ctx context.Context, originalName string, content io.Reader) (storage.UploadedFile, error) {
	if err := ctx.Err(); err != nil {
		return storage.UploadedFile{}, err
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return storage.UploadedFile{}, fmt.Errorf("reading content: %w", storage.ErrStorage)
	}
	now := time.Now().UTC()
	meta := storage.UploadedFile{
		StoredName:   storage.NewStoredName(originalName, now),
		OriginalName: originalName,
		Size:         int64(len(data)),
		UploadedAt:   now,
	}
	s.mu.Lock()
	s.files[meta.StoredName] = entry{meta: meta, data: data}
	s.mu.Unlock()
	return meta, nil
}

func (s *Store) Open(ctx context.Context, storedName string) (io.ReadCloser, storage.UploadedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.UploadedFile{}, err
	}
	s.mu.RLock()
	e, ok := s.files[storedName]
	s.mu.RUnlock()
	if !ok {
		return nil, storage.UploadedFile{}, fmt.Errorf("%s: %w", storedName, storage.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(e.data)), e.meta, nil
}

func (s *Store) List(ctx context.Context) ([]storage.UploadedFile, error) {
	s.mu.Lock()
	s.listCalls++
	files := make([]storage.UploadedFile, 0, len(s.files))
	for _, e := range s.files {
		files = append(files, e.meta)
	}
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].StoredName < files[j].StoredName })
	return files, nil
}

// ListCalls returns how many times List has been invoked.
func (s *Store) ListCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listCalls
}

// Index is a thread-safe in-memory storage.Index.
type Index struct {
	mu    sync.RWMutex
	files map[string]storage.UploadedFile
}

var _ storage.Index = (*Index)(nil)

// NewIndex creates a new empty in-memory Index.
func NewIndex() *Index {
	return &Index{files: make(map[string]storage.UploadedFile)}
}

func (i *Index) Record(file storage.UploadedFile) error {
	i.mu.Lock()
	i.files[file.StoredName] = file
	i.mu.Unlock()
	return nil
}

func (i *Index) Lookup(storedName string) (storage.UploadedFile, bool, error) {
	i.mu.RLock()
	file, ok := i.files[storedName]
	i.mu.RUnlock()
	return file, ok, nil
}
