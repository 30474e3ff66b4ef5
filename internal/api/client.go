package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

const (
	userAgent       = "agency-catalog/1.0"
	maxPayloadBytes = 32 << 20
)

// TransportError reports a failed backend call: the request never completed,
// or the server answered with a non-2xx status.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d from %s", e.Op, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Options configures a Client.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	Retries      int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Logger       logrus.FieldLogger
}

// Client is the HTTP Provider for the agency CMS API.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
}

var _ Provider = (*Client)(nil)

// NewClient creates a client for the API rooted at opts.BaseURL.
func NewClient(opts Options) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.Retries
	if rc.RetryMax < 0 {
		rc.RetryMax = 0
	}
	if opts.RetryWaitMin > 0 {
		rc.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		rc.RetryWaitMax = opts.RetryWaitMax
	}
	if opts.Timeout > 0 {
		rc.HTTPClient.Timeout = opts.Timeout
	}
	if opts.Logger != nil {
		rc.Logger = leveledLogger{opts.Logger}
	} else {
		rc.Logger = nil
	}
	// Keep the final response so non-2xx statuses surface with their code.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		httpClient: rc,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchCategories lists categories.
func (c *Client) FetchCategories(ctx context.Context, q CategoryQuery) ([]byte, error) {
	return c.get(ctx, "fetching categories", "/categories", q.Values())
}

// FetchSubCategories lists subcategories, optionally for one category.
func (c *Client) FetchSubCategories(ctx context.Context, q SubCategoryQuery) ([]byte, error) {
	return c.get(ctx, "fetching subcategories", "/subcategories", q.Values())
}

// FetchItems lists projects.
func (c *Client) FetchItems(ctx context.Context, q ItemQuery) ([]byte, error) {
	return c.get(ctx, "fetching projects", "/projects", q.Values())
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &TransportError{Op: op, URL: reqURL, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		// Surface cancellation unwrapped so callers can tell it from a failure.
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		return nil, &TransportError{Op: op, URL: reqURL, Err: fmt.Errorf("executing request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &TransportError{Op: op, URL: reqURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, &TransportError{Op: op, URL: reqURL, Err: fmt.Errorf("reading response: %w", err)}
	}
	return body, nil
}

// leveledLogger adapts a logrus logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log logrus.FieldLogger
}

func (l leveledLogger) fields(kv []interface{}) logrus.FieldLogger {
	entry := l.log
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			entry = entry.WithField(k, kv[i+1])
		}
	}
	return entry
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.fields(kv).Error(msg) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.fields(kv).Debug(msg) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.fields(kv).Debug(msg) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.fields(kv).Warn(msg) }
