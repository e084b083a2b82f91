package fetcher

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	cfg "github.com/locapass/docverify/config"
	"github.com/locapass/docverify/pkg/logger"
)

// MinioFetcher 从 MinIO 拉取 minio://bucket/key 定位符指向的文档
type MinioFetcher struct {
	client *minio.Client
	logger logger.Logger
}

func NewMinioFetcher(log logger.Logger) (*MinioFetcher, error) {
	minioConfig := cfg.GetMinioConfig()
	if minioConfig.AccessKey == "" {
		return nil, fmt.Errorf("minio credentials not configured")
	}

	client, err := minio.New(minioConfig.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(minioConfig.AccessKey, minioConfig.SecretKey, ""),
		Secure: minioConfig.UseSSL,
		Region: minioConfig.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinioFetcher{
		client: client,
		logger: log,
	}, nil
}

func (f *MinioFetcher) Fetch(ctx context.Context, locator string) (io.ReadCloser, error) {
	bucket, key, err := splitObjectLocator(locator)
	if err != nil {
		return nil, err
	}

	obj, err := f.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		f.logger.Error("Failed to get object from MinIO",
			logger.String("bucket", bucket),
			logger.String("key", key),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	return obj, nil
}
