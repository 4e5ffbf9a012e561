package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/kurin/blazer/b2"
)

// B2Storage Backblaze B2 对象存储
type B2Storage struct {
	client *b2.Client
	bucket *b2.Bucket
}

var _ Storage = (*B2Storage)(nil)

// NewB2Storage 连接 B2 并定位桶
func NewB2Storage(ctx context.Context, keyID, appKey, bucketName string) (*B2Storage, error) {
	client, err := b2.NewClient(ctx, keyID, appKey)
	if err != nil {
		return nil, fmt.Errorf("创建 B2 客户端失败: %w", err)
	}

	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("获取 B2 桶失败: %w", err)
	}

	return &B2Storage{client: client, bucket: bucket}, nil
}

func (s *B2Storage) Put(ctx context.Context, key string, r io.Reader) error {
	w := s.bucket.Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("写入 B2 对象失败: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("提交 B2 对象失败: %w", err)
	}
	return nil
}

func (s *B2Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj := s.bucket.Object(key)
	if _, err := obj.Attrs(ctx); err != nil {
		if b2.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("读取 B2 对象属性失败: %w", err)
	}
	return obj.NewReader(ctx), nil
}

func (s *B2Storage) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil && !b2.IsNotExist(err) {
		return fmt.Errorf("删除 B2 对象失败: %w", err)
	}
	return nil
}
