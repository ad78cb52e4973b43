// Package gcs 提供与 Google Cloud Storage 交互的基础设施封装。
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/go-kratos/kratos/v2/log"

	loader "github.com/bionicotaku/lingo-services-journal/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-journal/internal/services"
)

// MediaStore 是 services.MediaStore 的 GCS 实现。
// 对象按 prefix/objectName 寻址，引用以 gs:// URL 形式持久化。
type MediaStore struct {
	bucket *storage.BucketHandle
	name   string
	prefix string
	log    *log.Helper
}

// NewMediaStore 构造 GCS 媒体存储。返回的 cleanup 关闭底层客户端。
func NewMediaStore(ctx context.Context, cfg loader.StorageConfig, logger log.Logger) (services.MediaStore, func(), error) {
	if cfg.Bucket == "" {
		return nil, nil, errors.New("media store: bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("init gcs client: %w", err)
	}

	store := &MediaStore{
		bucket: client.Bucket(cfg.Bucket),
		name:   cfg.Bucket,
		prefix: cfg.Prefix,
		log:    log.NewHelper(logger),
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			store.log.Warnf("close gcs client: %v", err)
		}
	}
	return store, cleanup, nil
}

// Put 流式写入对象。写入中断时 GCS 丢弃未完成的对象，无需手工回滚。
func (s *MediaStore) Put(ctx context.Context, objectName, contentType string, r io.Reader) (string, error) {
	obj := s.bucket.Object(s.objectPath(objectName))
	w := obj.NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write media object %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize media object %s: %w", objectName, err)
	}

	url := fmt.Sprintf("gs://%s/%s", s.name, obj.ObjectName())
	s.log.WithContext(ctx).Infof("media object stored: %s content_type=%s", url, contentType)
	return url, nil
}

// Delete 删除对象。对象不存在视为成功，保证删除重试幂等。
func (s *MediaStore) Delete(ctx context.Context, objectName string) error {
	err := s.bucket.Object(s.objectPath(objectName)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete media object %s: %w", objectName, err)
	}
	return nil
}

func (s *MediaStore) objectPath(objectName string) string {
	if s.prefix == "" {
		return objectName
	}
	return path.Join(s.prefix, objectName)
}
