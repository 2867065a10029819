package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config holds API client configuration. Per-call options merge over these
// defaults.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	Cache      bool
	CacheTTL   time.Duration
	Headers    map[string]string
}

// DefaultConfig returns sensible defaults for the API client.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:    baseURL,
		Timeout:    30 * time.Second,
		Retries:    3,
		RetryDelay: time.Second,
		Cache:      false,
		CacheTTL:   5 * time.Minute,
	}
}

// Options holds per-call overrides. Zero values fall back to the client
// configuration.
type Options struct {
	Headers    map[string]string
	Timeout    time.Duration
	Retries    *int
	RetryDelay time.Duration
	Cache      *bool
	CacheTTL   time.Duration
}

// Response is the uniform result shape for every request, success or failure.
// Callers branch on OK and Status regardless of the failure cause.
type Response struct {
	OK         bool
	Status     int
	StatusText string
	Header     http.Header
	Body       []byte
	FromCache  bool
}

// RequestInterceptor inspects or mutates an outgoing request before dispatch.
type RequestInterceptor func(req *http.Request) error

// ResponseInterceptor runs on every successful response before it is returned
// (and before it is cached).
type ResponseInterceptor func(resp *Response) error

// ErrorInterceptor runs on the terminal error response after retries are
// exhausted.
type ErrorInterceptor func(resp *Response, err error)

// Lifecycle events emitted to registered hooks.
const (
	EventRequestStart   = "requestStart"
	EventRequestSuccess = "requestSuccess"
	EventRequestError   = "requestError"
	EventCacheHit       = "cacheHit"
)

// Hook observes client lifecycle events.
type Hook func(event, method, url string)

// inflight tracks one underlying attempt sequence shared by concurrent
// identical requests.
type inflight struct {
	done chan struct{}
	resp *Response
	err  error
}

// Client wraps net/http with retry, response caching, and in-flight request
// de-duplication.
//
// When two callers race on an identical request, the first caller's
// configuration governs the shared attempt sequence; the second caller
// observes its outcome.
type Client struct {
	httpClient *http.Client
	cfg        Config

	reqInterceptors  []RequestInterceptor
	respInterceptors []ResponseInterceptor
	errInterceptors  []ErrorInterceptor
	hooks            []Hook

	cache *responseCache

	mu       sync.Mutex
	pending  map[string]*inflight
	nowFunc  func() time.Time    // injectable clock for cache tests
	sleepCtx func(context.Context, time.Duration) error
}

// New creates a new API client with the given configuration.
func New(cfg Config) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{Transport: transport},
		cfg:        cfg,
		cache:      newResponseCache(),
		pending:    make(map[string]*inflight),
		nowFunc:    time.Now,
		sleepCtx:   sleepContext,
	}
}

// UseRequestInterceptor appends an interceptor run before every dispatch,
// in registration order.
func (c *Client) UseRequestInterceptor(i RequestInterceptor) {
	c.reqInterceptors = append(c.reqInterceptors, i)
}

// UseResponseInterceptor appends an interceptor run on every successful
// response.
func (c *Client) UseResponseInterceptor(i ResponseInterceptor) {
	c.respInterceptors = append(c.respInterceptors, i)
}

// UseErrorInterceptor appends an interceptor run on terminal errors.
func (c *Client) UseErrorInterceptor(i ErrorInterceptor) {
	c.errInterceptors = append(c.errInterceptors, i)
}

// Subscribe registers a lifecycle event hook.
func (c *Client) Subscribe(h Hook) {
	c.hooks = append(c.hooks, h)
}

// Get issues a GET request for the given path.
func (c *Client) Get(ctx context.Context, path string, opts *Options) (*Response, error) {
	return c.Request(ctx, http.MethodGet, path, nil, opts)
}

// Post issues a POST request with the given JSON body.
func (c *Client) Post(ctx context.Context, path string, body []byte, opts *Options) (*Response, error) {
	return c.Request(ctx, http.MethodPost, path, body, opts)
}

// Put issues a PUT request with the given JSON body.
func (c *Client) Put(ctx context.Context, path string, body []byte, opts *Options) (*Response, error) {
	return c.Request(ctx, http.MethodPut, path, body, opts)
}

// Delete issues a DELETE request for the given path.
func (c *Client) Delete(ctx context.Context, path string, opts *Options) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, path, nil, opts)
}

// Request issues an HTTP request with retry, caching, and de-duplication.
//
// Cached GET responses are returned without a network call while their TTL
// holds. Concurrent identical requests (same method, URL, and body) share a
// single underlying attempt sequence. Failures are retried with exponential
// backoff (RetryDelay × 2^attempt) except client errors in [400,500) other
// than 408 and 429, which fail fast.
func (c *Client) Request(ctx context.Context, method, path string, body []byte, opts *Options) (*Response, error) {
	if opts == nil {
		opts = &Options{}
	}

	url := c.buildURL(path)
	useCache := c.cfg.Cache
	if opts.Cache != nil {
		useCache = *opts.Cache
	}
	cacheTTL := c.cfg.CacheTTL
	if opts.CacheTTL > 0 {
		cacheTTL = opts.CacheTTL
	}

	key := dedupKey(method, url, body)

	// Serve cached GETs synchronously.
	if method == http.MethodGet && useCache {
		if cached, ok := c.cache.get(url, c.nowFunc()); ok {
			cacheHitsTotal.Inc()
			c.emit(EventCacheHit, method, url)
			return cached, nil
		}
	}

	// Join an in-flight identical request if one exists; otherwise claim
	// the slot.
	c.mu.Lock()
	if call, ok := c.pending[key]; ok {
		c.mu.Unlock()
		dedupJoinsTotal.Inc()
		select {
		case <-call.done:
			return call.resp, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &inflight{done: make(chan struct{})}
	c.pending[key] = call
	c.mu.Unlock()

	resp, err := c.attempt(ctx, method, url, body, opts, useCache, cacheTTL)

	call.resp, call.err = resp, err
	c.mu.Lock()
	delete(c.pending, key)
	c.mu.Unlock()
	close(call.done)

	return resp, err
}

// attempt runs the retry loop for a single logical request.
func (c *Client) attempt(ctx context.Context, method, url string, body []byte, opts *Options, useCache bool, cacheTTL time.Duration) (*Response, error) {
	retries := c.cfg.Retries
	if opts.Retries != nil {
		retries = *opts.Retries
	}
	retryDelay := c.cfg.RetryDelay
	if opts.RetryDelay > 0 {
		retryDelay = opts.RetryDelay
	}
	timeout := c.cfg.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	c.emit(EventRequestStart, method, url)

	var (
		lastStatus     int
		lastStatusText string
		lastErr        error
	)

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			retriesTotal.Inc()
			wait := retryDelay << uint(attempt-1)
			if err := c.sleepCtx(ctx, wait); err != nil {
				return c.fail(method, url, lastStatus, lastStatusText, err)
			}
		}

		resp, status, statusText, err := c.dispatch(ctx, method, url, body, opts, timeout)
		if err != nil {
			lastStatus, lastStatusText, lastErr = status, statusText, err
			if !retryable(status, err) {
				return c.fail(method, url, status, statusText, err)
			}
			continue
		}

		// Success: run response interceptors, then cache eligible GETs.
		for _, i := range c.respInterceptors {
			if ierr := i(resp); ierr != nil {
				return c.fail(method, url, resp.Status, resp.StatusText, fmt.Errorf("response interceptor: %w", ierr))
			}
		}
		if method == http.MethodGet && useCache {
			c.cache.set(url, resp, c.nowFunc().Add(cacheTTL))
		}

		requestsTotal.WithLabelValues(method, "success").Inc()
		c.emit(EventRequestSuccess, method, url)
		return resp, nil
	}

	return c.fail(method, url, lastStatus, lastStatusText,
		fmt.Errorf("request failed after %d attempts: %w", retries+1, lastErr))
}

// dispatch performs one network attempt. A non-2xx status is returned as an
// error alongside the status for retry classification.
func (c *Client) dispatch(ctx context.Context, method, url string, body []byte, opts *Options, timeout time.Duration) (*Response, int, string, error) {
	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, url, reader)
	if err != nil {
		return nil, 0, "", &localError{fmt.Errorf("create request: %w", err)}
	}

	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if len(body) > 0 && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	for _, i := range c.reqInterceptors {
		if ierr := i(req); ierr != nil {
			return nil, 0, "", &localError{fmt.Errorf("request interceptor: %w", ierr)}
		}
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, "", fmt.Errorf("dispatch %s %s: %w", method, url, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, httpResp.StatusCode, httpResp.Status, fmt.Errorf("read response body: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		return nil, httpResp.StatusCode, httpResp.Status,
			fmt.Errorf("%s %s returned status %d", method, url, httpResp.StatusCode)
	}

	return &Response{
		OK:         true,
		Status:     httpResp.StatusCode,
		StatusText: httpResp.Status,
		Header:     httpResp.Header.Clone(),
		Body:       respBody,
	}, httpResp.StatusCode, httpResp.Status, nil
}

// fail constructs the uniform terminal error response and routes it through
// the error interceptors.
func (c *Client) fail(method, url string, status int, statusText string, err error) (*Response, error) {
	resp := &Response{
		OK:         false,
		Status:     status,
		StatusText: statusText,
	}
	for _, i := range c.errInterceptors {
		i(resp, err)
	}
	requestsTotal.WithLabelValues(method, "error").Inc()
	c.emit(EventRequestError, method, url)
	return resp, err
}

// localError marks a failure that happened before the request left the
// process, such as a bad URL or a request interceptor refusing the call.
// Retrying cannot change the outcome.
type localError struct {
	err error
}

func (e *localError) Error() string { return e.err.Error() }
func (e *localError) Unwrap() error { return e.err }

// retryable classifies a failed attempt. Network errors, timeouts, 5xx, 408,
// and 429 are retryable; local pre-dispatch failures and other client errors
// are not. Caller cancellation is never retried.
func retryable(status int, err error) bool {
	var le *localError
	if errors.As(err, &le) {
		return false
	}
	if status == 0 {
		return err != nil && !isCanceled(err)
	}
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests {
		return true
	}
	if status >= 400 && status < 500 {
		return false
	}
	return status >= 500
}

// isCanceled reports whether err stems from caller cancellation. Per-attempt
// deadline expiry is a timeout and stays retryable.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

func (c *Client) buildURL(path string) string {
	if path == "" {
		return c.cfg.BaseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

func (c *Client) emit(event, method, url string) {
	for _, h := range c.hooks {
		h(event, method, url)
	}
}

// InvalidateCache drops the cached response for the given path, if present.
func (c *Client) InvalidateCache(path string) {
	c.cache.invalidate(c.buildURL(path))
}

func dedupKey(method, url string, body []byte) string {
	return method + " " + url + " " + string(body)
}

// sleepContext waits for the given duration or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
