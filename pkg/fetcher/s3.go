package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	cfg "github.com/locapass/docverify/config"
	"github.com/locapass/docverify/pkg/logger"
)

// S3Fetcher 从 S3 拉取 s3://bucket/key 定位符指向的文档
type S3Fetcher struct {
	client *s3.Client
	logger logger.Logger
}

func NewS3Fetcher(log logger.Logger) (*S3Fetcher, error) {
	s3Config := cfg.GetS3Config()
	if s3Config.AccessKey == "" {
		return nil, fmt.Errorf("s3 credentials not configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(s3Config.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s3Config.AccessKey,
			s3Config.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Fetcher{
		client: s3.NewFromConfig(awsCfg),
		logger: log,
	}, nil
}

func (f *S3Fetcher) Fetch(ctx context.Context, locator string) (io.ReadCloser, error) {
	bucket, key, err := splitObjectLocator(locator)
	if err != nil {
		return nil, err
	}

	result, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		f.logger.Error("Failed to get object from S3",
			logger.String("bucket", bucket),
			logger.String("key", key),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	return result.Body, nil
}

// splitObjectLocator 将 scheme://bucket/key 拆分为 bucket 和 key
func splitObjectLocator(locator string) (string, string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", "", fmt.Errorf("invalid object locator %q: %w", locator, err)
	}

	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("object locator %q must be scheme://bucket/key", locator)
	}

	return u.Host, key, nil
}
