package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// UserAgent identifies the pipeline to partner feed hosts.
const UserAgent = "SkickaBlomma/1.0 Feed Fetcher"

// maxFeedBytes caps a single feed download.
const maxFeedBytes = 256 << 20

// ErrFeedTooLarge is returned for a body larger than the transport's cap.
var ErrFeedTooLarge = errors.New("feed too large")

// HTTPTransport fetches feeds with a plain HTTP GET.
type HTTPTransport struct {
	Client *http.Client
	// MaxBytes caps the body size; 0 means 256 MB.
	MaxBytes int64
}

func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{Client: &http.Client{}}
}

func (t *HTTPTransport) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/xml, text/xml, */*")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	limit := t.MaxBytes
	if limit <= 0 {
		limit = maxFeedBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrFeedTooLarge, limit)
	}
	return body, nil
}
