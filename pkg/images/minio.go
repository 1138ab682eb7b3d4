package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultPrefix is the object key prefix used for uploaded images.
const DefaultPrefix = "uploaded_images/"

// MinioConfig describes an S3 compatible bucket.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Prefix    string
}

// MinioStore keeps images as objects in an S3 compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ Store = (*MinioStore)(nil)

// NewMinioStore connects to the bucket and creates it when missing.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, prefix: prefix}, nil
}

func (s *MinioStore) key(filename string) (string, error) {
	name, err := CleanName(filename)
	if err != nil {
		return "", err
	}
	return path.Join(s.prefix, name), nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func (s *MinioStore) Put(ctx context.Context, filename string, data []byte, contentType string) error {
	key, err := s.key(filename)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = ContentType(filename, data)
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *MinioStore) Get(ctx context.Context, filename string) (Image, error) {
	key, err := s.key(filename)
	if err != nil {
		return Image{}, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return Image{}, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()
	info, err := obj.Stat()
	if err != nil {
		if isNoSuchKey(err) {
			return Image{}, ErrNotFound
		}
		return Image{}, fmt.Errorf("stat object %s: %w", key, err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return Image{}, fmt.Errorf("read object %s: %w", key, err)
	}
	ct := ContentType(filename, data)
	if ct == "application/octet-stream" && info.ContentType != "" {
		ct = info.ContentType
	}
	return Image{Data: data, ContentType: ct}, nil
}

func (s *MinioStore) Delete(ctx context.Context, filename string) error {
	key, err := s.key(filename)
	if err != nil {
		return err
	}
	// RemoveObject succeeds for missing keys.
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return ErrNotFound
		}
		return fmt.Errorf("stat object %s: %w", key, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

func (s *MinioStore) DeleteAll(ctx context.Context) (int, error) {
	var (
		removed int
		errs    []error
	)
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix, Recursive: true}) {
		if obj.Err != nil {
			errs = append(errs, obj.Err)
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("remove object %s: %w", obj.Key, err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
