// Package bboltindex provides a BBolt-backed upload index.
package bboltindex

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/jmcleod/cvdrop/storage"
)

var bucketName = []byte("uploads")

// Index maps stored names to upload metadata in a BBolt database.
type Index struct {
	db *bbolt.DB
}

var _ storage.Index = (*Index)(nil)

// New returns an Index backed by the given BBolt database.
func New(db *bbolt.DB) *Index {
	return &Index{db: db}
}

// NewFromFile opens a BBolt database at the given path and returns a new Index.
func NewFromFile(path string, options *bbolt.Options) (*Index, error) {
	db, err := bbolt.Open(path, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return New(db), nil
}

// Close closes the underlying BBolt database.
func (i *Index) Close() error {
	return i.db.Close()
}

// DB exposes the underlying database so other stores (persisted sessions)
// can share the same file.
func (i *Index) DB() *bbolt.DB {
	return i.db
}

func (i *Index) Record(file storage.UploadedFile) error {
	return i.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		data, err := json.Marshal(file)
		if err != nil {
			return err
		}
		return b.Put([]byte(file.StoredName), data)
	})
}

func (i *Index) Lookup(storedName string) (storage.UploadedFile, bool, error) {
	var file storage.UploadedFile
	var found bool
	err := i.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		data := b.Get([]byte(storedName))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &file); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return storage.UploadedFile{}, false, err
	}
	return file, found, nil
}
