// Package s3 provides a storage.Store backed by an S3-compatible object
// store (AWS S3, MinIO).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jmcleod/cvdrop/storage"
)

// Config holds the object-store connection settings.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional BaseEndpoint override, e.g. a local MinIO
	AccessKey string
	SecretKey string
}

// Store keeps each upload as one object in a bucket. Metadata lives in the
// shared index, same as the local backend.
type Store struct {
	client *awss3.Client
	bucket string
	index  storage.Index
}

var _ storage.Store = (*Store)(nil)

// New builds an S3 client from static credentials and returns a Store.
func New(ctx context.Context, cfg Config, index storage.Index) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Store{client: client, bucket: cfg.Bucket, index: index}, nil
}

func (s *Store) Save(ctx context.Context, originalName string, content io.Reader) (storage.UploadedFile, error) {
	now := time.Now().UTC()
	stored := storage.NewStoredName(originalName, now)

	// PutObject needs a known length; buffer the stream first.
	data, err := io.ReadAll(content)
	if err != nil {
		return storage.UploadedFile{}, fmt.Errorf("reading content: %w", storage.ErrStorage)
	}
	_, err = s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(stored),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return storage.UploadedFile{}, fmt.Errorf("putting %s: %w", stored, storage.ErrStorage)
	}

	file := storage.UploadedFile{
		StoredName:   stored,
		OriginalName: originalName,
		Size:         int64(len(data)),
		UploadedAt:   now,
	}
	if err := s.index.Record(file); err != nil {
		_, _ = s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(stored),
		})
		return storage.UploadedFile{}, fmt.Errorf("indexing %s: %w", stored, storage.ErrStorage)
	}
	return file, nil
}

func (s *Store) Open(ctx context.Context, storedName string) (io.ReadCloser, storage.UploadedFile, error) {
	if !storage.ValidStoredName(storedName) {
		return nil, storage.UploadedFile{}, fmt.Errorf("%s: %w", storedName, storage.ErrNotFound)
	}
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storedName),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, storage.UploadedFile{}, fmt.Errorf("%s: %w", storedName, storage.ErrNotFound)
		}
		return nil, storage.UploadedFile{}, fmt.Errorf("getting %s: %w", storedName, storage.ErrStorage)
	}
	meta, ok, err := s.index.Lookup(storedName)
	if err != nil || !ok {
		meta = storage.UploadedFile{
			StoredName:   storedName,
			OriginalName: storedName,
			Size:         aws.ToInt64(out.ContentLength),
			UploadedAt:   aws.ToTime(out.LastModified),
		}
	}
	return out.Body, meta, nil
}

// List enumerates the bucket; objects are the source of truth and the index
// contributes original names where it can.
func (s *Store) List(ctx context.Context) ([]storage.UploadedFile, error) {
	var files []storage.UploadedFile
	paginator := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing bucket: %w", storage.ErrStorage)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if meta, ok, err := s.index.Lookup(key); err == nil && ok {
				files = append(files, meta)
				continue
			}
			files = append(files, storage.UploadedFile{
				StoredName:   key,
				OriginalName: key,
				Size:         aws.ToInt64(obj.Size),
				UploadedAt:   aws.ToTime(obj.LastModified),
			})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].StoredName < files[j].StoredName })
	return files, nil
}
