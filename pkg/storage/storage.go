package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"pfe-hub/backend/config"
)

// ErrObjectNotFound 存储对象不存在
var ErrObjectNotFound = errors.New("文件不存在")

// Storage 文档文件存储接口
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// New 按配置创建存储实现
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Driver {
	case "local":
		return NewLocalStorage(cfg.LocalDir)
	case "b2":
		s, err := NewB2Storage(ctx, cfg.B2KeyID, cfg.B2AppKey, cfg.B2Bucket)
		if err != nil {
			return nil, err
		}
		logger.Info("已连接 B2 对象存储", zap.String("bucket", cfg.B2Bucket))
		return s, nil
	default:
		return nil, fmt.Errorf("不支持的存储驱动: %s", cfg.Driver)
	}
}
