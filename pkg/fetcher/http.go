package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/locapass/docverify/pkg/logger"
)

// HTTPFetcher 通过 HTTP(S) 拉取文档
type HTTPFetcher struct {
	client *http.Client
	logger logger.Logger
}

func NewHTTPFetcher(log logger.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, locator string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("Failed to fetch document",
			logger.String("locator", locator),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, locator)
	}

	return resp.Body, nil
}
