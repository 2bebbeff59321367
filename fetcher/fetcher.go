// Package fetcher downloads partner feed documents with a per-attempt timeout
// and a retry policy. A response that does not look like XML counts as a
// failed attempt.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"feed-ingest/models"
	"feed-ingest/utils"
)

// DefaultTimeout bounds a single fetch attempt.
const DefaultTimeout = 30 * time.Second

// Transport retrieves the raw body behind url.
type Transport interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Fetcher retries a Transport under a RetryPolicy.
type Fetcher struct {
	transport Transport
	policy    *utils.RetryPolicy
	timeout   time.Duration
	logger    *utils.Logger
}

// New creates a Fetcher. A nil policy means four retries on the default
// backoff schedule; timeout <= 0 uses DefaultTimeout.
func New(transport Transport, policy *utils.RetryPolicy, timeout time.Duration, logger *utils.Logger) *Fetcher {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	if policy == nil {
		policy = utils.NewRetryPolicy(4, logger)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{transport: transport, policy: policy, timeout: timeout, logger: logger}
}

var errNotXML = errors.New("response is not an XML document")

// Fetch returns the feed body. When every attempt fails the error is a
// *models.NetworkError; a cancelled ctx surfaces as ctx.Err() inside it.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	attempts := 0

	err := f.policy.Do(ctx, "fetch "+url, func(ctx context.Context) error {
		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()

		data, err := f.transport.Get(attemptCtx, url)
		if err != nil {
			return err
		}
		if !LooksLikeXML(data) {
			return fmt.Errorf("%w (%d bytes)", errNotXML, len(data))
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, &models.NetworkError{URL: url, Attempts: attempts, Err: err}
	}

	f.logger.Debug("[fetcher] %s: %d bytes after %d attempt(s)", url, len(body), attempts)
	return body, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LooksLikeXML reports whether data starts with an XML prolog or an opening
// tag, ignoring a UTF-8 BOM and leading whitespace.
func LooksLikeXML(data []byte) bool {
	data = bytes.TrimLeft(bytes.TrimPrefix(data, utf8BOM), " \t\r\n")
	if len(data) < 2 || data[0] != '<' {
		return false
	}
	if bytes.HasPrefix(data, []byte("<?xml")) {
		return true
	}
	c := data[1]
	return c == '_' || c == '!' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
