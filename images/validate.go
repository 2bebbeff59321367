package images

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"feed-ingest/utils"
)

// MaxImageBytes is the largest partner image accepted.
const MaxImageBytes = 10 * 1024 * 1024

var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/avif": "avif",
	"image/gif":  "gif",
}

// Validation is the outcome of probing one image URL.
type Validation struct {
	Valid    bool   `json:"valid"`
	Reason   string `json:"reason,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Format   string `json:"format,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// Validator decides whether a partner image URL is usable.
type Validator interface {
	Validate(ctx context.Context, imageURL string) Validation
}

// HTTPValidator probes images with HEAD, falling back to GET for hosts that
// refuse HEAD. Results are cached when a Cache is set.
type HTTPValidator struct {
	client  *http.Client
	timeout time.Duration
	cache   Cache
	logger  *utils.Logger
}

// NewHTTPValidator creates an HTTPValidator; cache may be nil.
func NewHTTPValidator(timeout time.Duration, cache Cache, logger *utils.Logger) *HTTPValidator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &HTTPValidator{
		client:  &http.Client{},
		timeout: timeout,
		cache:   cache,
		logger:  logger,
	}
}

func (v *HTTPValidator) Validate(ctx context.Context, imageURL string) Validation {
	if v.cache != nil {
		if cached, ok := v.cache.Get(ctx, imageURL); ok {
			return cached
		}
	}

	res, status := v.probe(ctx, http.MethodHead, imageURL)
	switch status {
	case http.StatusMethodNotAllowed, http.StatusNotImplemented, http.StatusForbidden:
		res, _ = v.probe(ctx, http.MethodGet, imageURL)
	}
	if !res.Valid {
		v.logger.Debug("[images] %s rejected: %s", imageURL, res.Reason)
	}

	// a cancelled run says nothing about the image
	if ctx.Err() == nil && v.cache != nil {
		v.cache.Set(ctx, imageURL, res)
	}
	return res
}

func (v *HTTPValidator) probe(ctx context.Context, method, imageURL string) (Validation, int) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, imageURL, nil)
	if err != nil {
		return Validation{Reason: fmt.Sprintf("bad request: %v", err)}, 0
	}
	req.Header.Set("User-Agent", "SkickaBlomma/1.0 Image Validator")

	resp, err := v.client.Do(req)
	if err != nil {
		return Validation{Reason: fmt.Sprintf("request failed: %v", err)}, 0
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Validation{Reason: fmt.Sprintf("HTTP %d", resp.StatusCode)}, resp.StatusCode
	}

	res := Validation{Size: resp.ContentLength}
	if res.Size > MaxImageBytes {
		res.Reason = fmt.Sprintf("file too large: %d bytes", res.Size)
		return res, resp.StatusCode
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		res.Format = FormatFromURL(imageURL)
		res.Valid = true
		return res, resp.StatusCode
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		res.Reason = fmt.Sprintf("invalid content type: %q", ct)
		return res, resp.StatusCode
	}
	format, ok := allowedTypes[strings.ToLower(mt)]
	if !ok {
		res.Reason = fmt.Sprintf("invalid content type: %s", mt)
		return res, resp.StatusCode
	}
	res.MimeType = mt
	res.Format = format
	res.Valid = true
	return res, resp.StatusCode
}

// FormatFromURL guesses the image format from the URL's extension.
// Unknown extensions are reported as jpg.
func FormatFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "jpg"
	}
	switch ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), "."); ext {
	case "png", "webp", "avif", "gif", "svg":
		return ext
	default:
		return "jpg"
	}
}

// IsHTTPURL reports whether s is an absolute http(s) URL with a host.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
