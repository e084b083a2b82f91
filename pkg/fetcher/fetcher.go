package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/locapass/docverify/pkg/logger"
)

// Fetcher 按定位符获取文档字节流
//
// A locator is any fetchable URL: http(s)://, s3://bucket/key or
// minio://bucket/key. The pipeline does not inspect content beyond
// what the OCR engine accepts.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (io.ReadCloser, error)
}

type dispatchFetcher struct {
	backends map[string]Fetcher
	logger   logger.Logger
}

// NewFetcher 创建按 URL scheme 分发的 Fetcher
func NewFetcher(log logger.Logger) (Fetcher, error) {
	httpFetcher := NewHTTPFetcher(log)

	backends := map[string]Fetcher{
		"http":  httpFetcher,
		"https": httpFetcher,
	}

	// Object-store backends are optional: a missing config only
	// matters when a locator with that scheme actually shows up.
	if s3Fetcher, err := NewS3Fetcher(log); err == nil {
		backends["s3"] = s3Fetcher
	} else {
		log.Warn("S3 fetcher unavailable", logger.Error(err))
	}

	if minioFetcher, err := NewMinioFetcher(log); err == nil {
		backends["minio"] = minioFetcher
	} else {
		log.Warn("MinIO fetcher unavailable", logger.Error(err))
	}

	return &dispatchFetcher{
		backends: backends,
		logger:   log,
	}, nil
}

func (f *dispatchFetcher) Fetch(ctx context.Context, locator string) (io.ReadCloser, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return nil, fmt.Errorf("invalid locator %q: %w", locator, err)
	}

	backend, ok := f.backends[u.Scheme]
	if !ok {
		return nil, fmt.Errorf("unsupported locator scheme: %s", u.Scheme)
	}

	return backend.Fetch(ctx, locator)
}
