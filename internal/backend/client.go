package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/hallboard/internal/ctxutil"
	"github.com/Spok95/hallboard/internal/metrics"
)

// Client issues JSON requests to one remote service. No retries.
type Client struct {
	name    string
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func New(name, baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.Named("backend." + name),
	}
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Path, e.Code, e.Body)
}

func (e *StatusError) StatusCode() int { return e.Code }

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

type Option func(*http.Request)

// WithBearer sets the Authorization header; an empty token leaves it unset.
func WithBearer(token string) Option {
	return func(r *http.Request) {
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

func WithQuery(q url.Values) Option {
	return func(r *http.Request) {
		r.URL.RawQuery = q.Encode()
	}
}

func WithHeader(k, v string) Option {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func (c *Client) Get(ctx context.Context, path string, out any, opts ...Option) error {
	return c.do(ctx, http.MethodGet, path, nil, out, opts)
}

func (c *Client) Post(ctx context.Context, path string, in, out any, opts ...Option) error {
	return c.do(ctx, http.MethodPost, path, in, out, opts)
}

func (c *Client) Put(ctx context.Context, path string, in, out any, opts ...Option) error {
	return c.do(ctx, http.MethodPut, path, in, out, opts)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...Option) error {
	return c.do(ctx, http.MethodDelete, path, nil, out, opts)
}

const maxErrBody = 4 << 10

func (c *Client) do(ctx context.Context, method, path string, in, out any, opts []Option) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id, ok := ctxutil.RequestID(ctx); ok {
		req.Header.Set("X-Request-ID", id)
	}
	for _, o := range opts {
		o(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveBackend(c.name, method, 0, time.Since(start))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.ObserveBackend(c.name, method, resp.StatusCode, time.Since(start))

	c.log.Debug("backend call",
		append(ctxutil.Fields(ctx),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("took", time.Since(start)),
		)...)

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return &StatusError{Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: decode response: %w", path, err)
	}
	return nil
}
