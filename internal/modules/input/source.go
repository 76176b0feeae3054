package input

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/actorwatch/runtime/internal/errhandling"
	"github.com/actorwatch/runtime/internal/logger"
	"github.com/actorwatch/runtime/internal/pathutil"
)

// Default configuration values
const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "actorwatch/1.0"
)

func defaultClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// openLocation opens a local file or starts a GET request for an http(s) URL.
// The caller closes the returned reader.
func openLocation(ctx context.Context, client *http.Client, moduleType, location string) (io.ReadCloser, error) {
	if pathutil.IsURL(location) {
		return download(ctx, client, moduleType, location)
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, errhandling.NewIOError("opening source "+location, err)
	}
	return f, nil
}

func download(ctx context.Context, client *http.Client, moduleType, endpoint string) (io.ReadCloser, error) {
	requestStart := time.Now()

	logger.Debug("http request started",
		"module_type", moduleType,
		"endpoint", endpoint,
		"method", http.MethodGet,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errhandling.NewIOError("creating http request", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := client.Do(req)
	requestDuration := time.Since(requestStart)
	if err != nil {
		logger.Error("http request failed",
			"module_type", moduleType,
			"endpoint", endpoint,
			"duration", requestDuration,
			"error", err.Error(),
		)
		return nil, errhandling.ClassifyNetworkError(err)
	}

	if resp.StatusCode >= 400 {
		_ = resp.Body.Close()
		logger.Error("http error response",
			"module_type", moduleType,
			"endpoint", endpoint,
			"status_code", resp.StatusCode,
			"status", resp.Status,
			"duration", requestDuration,
		)
		classified := errhandling.ClassifyHTTPStatus(resp.StatusCode, resp.Status)
		classified.Message += ": " + endpoint
		return nil, classified
	}

	logger.Debug("http response received",
		"module_type", moduleType,
		"endpoint", endpoint,
		"status_code", resp.StatusCode,
		"duration", requestDuration,
		"content_length", resp.ContentLength,
	)
	return resp.Body, nil
}
