package filestorage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/quantract/certledger/internal/config"
	"go.uber.org/zap"
)

const cidMetaKey = "Cid"

func NewMinioClient(cfg *config.MinioConfig) (*minio.Client, error) {
	return minio.New(cfg.ENDPOINT, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.ACCESS_KEY, cfg.SECRET_KEY, ""),
		Secure: cfg.USE_SSL,
		Region: cfg.Region,
	})
}

// MinioStore keeps revision PDFs in a single S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	logger *zap.SugaredLogger
}

// NewMinioStore creates the bucket when it does not exist yet.
func NewMinioStore(ctx context.Context, client *minio.Client, bucket string, logger *zap.SugaredLogger) (*MinioStore, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, unavailable("bucket exists", bucket, err)
	}

	if !exists {
		logger.Infof("Creating bucket %s", bucket)
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, unavailable("make bucket", bucket, err)
		}
	}

	return &MinioStore{client: client, bucket: bucket, logger: logger}, nil
}

func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapError("get", key, err)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key only surfaces on first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapError("get", key, err)
	}
	return data, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, data []byte, meta Meta) error {
	if err := validateKey(key); err != nil {
		return err
	}

	opts := minio.PutObjectOptions{ContentType: meta.ContentType}
	if meta.CID != "" {
		opts.UserMetadata = map[string]string{cidMetaKey: meta.CID}
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return s.mapError("put", key, err)
	}

	s.logger.Debugf("Put object %s/%s (%d bytes, etag %s)", s.bucket, key, info.Size, info.ETag)
	return nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return s.mapError("delete", key, err)
	}
	return nil
}

func (s *MinioStore) mapError(op, key string, err error) error {
	if mapped := mapMinioError(err); mapped != nil {
		return fmt.Errorf("%w: %s", mapped, key)
	}
	s.logger.Warnw("Object storage request failed", "op", op, "bucket", s.bucket, "key", key, "error", err)
	return unavailable(op, key, err)
}

// mapMinioError returns ErrNotFound for missing objects and nil for
// everything else.
func mapMinioError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return ErrNotFound
	}
	return nil
}
