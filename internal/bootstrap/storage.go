package bootstrap

import (
	"context"
	"fmt"

	"docqa-backend/internal/config"
	"docqa-backend/internal/storage/object"
	"docqa-backend/internal/storage/object/local"
	"docqa-backend/internal/storage/object/minio"
	"docqa-backend/internal/storage/object/s3"
)

func newObjectStore(ctx context.Context, cfg config.StorageConfig) (object.Store, error) {
	switch cfg.Driver {
	case "local":
		return local.New(cfg.LocalDir)
	case "s3":
		return s3.New(ctx, s3.Options{
			Region:    cfg.Region,
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})
	case "minio":
		return minio.New(ctx, minio.Options{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
