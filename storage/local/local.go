// Package local provides a filesystem-backed storage.Store keeping all
// uploads in a single flat directory.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jmcleod/cvdrop/storage"
)

// Store writes uploads under a fixed root directory. Stored names are
// generated, so concurrent saves never contend for the same path.
type Store struct {
	root  string
	index storage.Index
}

var _ storage.Store = (*Store)(nil)

// New creates the upload root if needed and returns a Store over it.
func New(root string, index storage.Index) (*Store, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("creating upload root %s: %w", root, err)
	}
	return &Store{root: root, index: index}, nil
}

// Root returns the directory uploads are written to.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) Save(ctx context.Context, originalName string, content io.Reader) (storage.UploadedFile, error) {
	if err := ctx.Err(); err != nil {
		return storage.UploadedFile{}, err
	}
	now := time.Now().UTC()
	stored := storage.NewStoredName(originalName, now)
	path := filepath.Join(s.root, stored)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return storage.UploadedFile{}, fmt.Errorf("creating %s: %w", stored, storage.ErrStorage)
	}
	n, err := io.Copy(f, content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Do not leave partial writes behind.
		os.Remove(path)
		return storage.UploadedFile{}, fmt.Errorf("writing %s: %w", stored, storage.ErrStorage)
	}

	file := storage.UploadedFile{
		StoredName:   stored,
		OriginalName: originalName,
		Size:         n,
		UploadedAt:   now,
	}
	if err := s.index.Record(file); err != nil {
		os.Remove(path)
		return storage.UploadedFile{}, fmt.Errorf("indexing %s: %w", stored, storage.ErrStorage)
	}
	return file, nil
}

func (s *Store) Open(ctx context.Context, storedName string) (io.ReadCloser, storage.UploadedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.UploadedFile{}, err
	}
	if !storage.ValidStoredName(storedName) {
		return nil, storage.UploadedFile{}, fmt.Errorf("%s: %w", storedName, storage.ErrNotFound)
	}
	f, err := os.Open(filepath.Join(s.root, storedName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.UploadedFile{}, fmt.Errorf("%s: %w", storedName, storage.ErrNotFound)
		}
		return nil, storage.UploadedFile{}, fmt.Errorf("opening %s: %w", storedName, storage.ErrStorage)
	}
	meta, err := s.metaFor(storedName, f)
	if err != nil {
		f.Close()
		return nil, storage.UploadedFile{}, err
	}
	return f, meta, nil
}

func (s *Store) metaFor(storedName string, f *os.File) (storage.UploadedFile, error) {
	if meta, ok, err := s.index.Lookup(storedName); err == nil && ok {
		return meta, nil
	}
	// Index entry missing (file placed out of band) — fall back to stat.
	info, err := f.Stat()
	if err != nil {
		return storage.UploadedFile{}, fmt.Errorf("stat %s: %w", storedName, storage.ErrStorage)
	}
	return storage.UploadedFile{
		StoredName:   storedName,
		OriginalName: storedName,
		Size:         info.Size(),
		UploadedAt:   info.ModTime().UTC(),
	}, nil
}

// List enumerates the upload root. The directory contents are the source of
// truth; the index only contributes original names for entries it knows.
func (s *Store) List(ctx context.Context) ([]storage.UploadedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading upload root: %w", storage.ErrStorage)
	}
	files := make([]storage.UploadedFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if meta, ok, err := s.index.Lookup(name); err == nil && ok {
			files = append(files, meta)
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, storage.UploadedFile{
			StoredName:   name,
			OriginalName: name,
			Size:         info.Size(),
			UploadedAt:   info.ModTime().UTC(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].StoredName < files[j].StoredName })
	return files, nil
}
