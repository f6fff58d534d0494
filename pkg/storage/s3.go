package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ilkoid/aicore/pkg/config"
)

// S3 — бэкенд хранилища поверх S3-совместимого API.
type S3 struct {
	api    *minio.Client
	bucket string
}

var _ Storage = (*S3)(nil)

// NewS3 создает клиент, используя S3_* опции конфигурации.
func NewS3(cfg config.S3Config) (*S3, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("storage: S3_ENDPOINT is not configured")
	}
	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}
	return &S3{api: api, bucket: cfg.Bucket}, nil
}

func (s *S3) Write(ctx context.Context, name string, data []byte) (string, error) {
	_, err := s.api.PutObject(ctx, s.bucket, name,
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("storage: put %s: %w", name, err)
	}
	return name, nil
}

func (s *S3) Read(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.api.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, obj); err != nil {
		return nil, fmt.Errorf("storage: get %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (s *S3) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.api.StatObject(ctx, s.bucket, name, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *S3) Delete(ctx context.Context, name string) error {
	return s.api.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{})
}

// List возвращает ключи всех объектов по префиксу.
// Сам "каталог" (ключ, равный префиксу со слешем) пропускается.
func (s *S3) List(ctx context.Context, prefix string) ([]string, error) {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var keys []string
	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: true}
	for obj := range s.api.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.Key == prefix {
			continue
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}
