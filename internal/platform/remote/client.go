// Package remote reads whole collections from the external record store.
//
// The store exposes a paginated collection endpoint (GET {base}/items/{collection})
// that answers with {"data": [...]}. Client walks the pages until the store is
// exhausted and never fails hard: callers receive whatever was read together
// with a completeness flag.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// PagingPage requests pages with limit/page parameters.
	PagingPage = "page"
	// PagingOffset requests pages with limit/offset parameters.
	PagingOffset = "offset"

	defaultPageSize = 1000
	defaultMaxPages = 200
	defaultTimeout  = 30 * time.Second
)

// ErrStatus is wrapped by results stopped by a non-success HTTP status.
var ErrStatus = errors.New("remote: unexpected status")

// Config carries everything the client needs. It is built once at startup.
type Config struct {
	BaseURL   string
	Token     string
	PageSize  int
	MaxPages  int
	Paging    string
	Timeout   time.Duration
	RateLimit float64
	Retry     RetryConfig
}

// Observer receives per-page outcomes, typically for metrics.
type Observer interface {
	ObservePage(collection string, status int, records int, elapsed time.Duration)
	ObservePartial(collection string)
}

// Result is the outcome of a FetchAll call.
type Result struct {
	Collection string
	Records    []json.RawMessage
	Pages      int
	// Complete is false when pagination stopped early; Records may then be
	// only part of the collection.
	Complete bool
	Err      error
}

// Client reads collections from the record store.
type Client struct {
	baseURL    string
	token      string
	pageSize   int
	maxPages   int
	paging     string
	httpClient *http.Client
	limiter    *rate.Limiter
	observer   Observer
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The retry transport is
// not applied to a client supplied this way.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithObserver installs an Observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient validates cfg and constructs a Client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("remote: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("remote: invalid base url: %w", err)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	switch cfg.Paging {
	case "":
		cfg.Paging = PagingPage
	case PagingPage, PagingOffset:
	default:
		return nil, fmt.Errorf("remote: unknown paging mode %q", cfg.Paging)
	}

	c := &Client{
		baseURL:  base,
		token:    cfg.Token,
		pageSize: cfg.PageSize,
		maxPages: cfg.MaxPages,
		paging:   cfg.Paging,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: NewRetryTransport(http.DefaultTransport, cfg.Retry),
		},
	}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// PageSize reports the configured page size.
func (c *Client) PageSize() int {
	return c.pageSize
}

type listEnvelope struct {
	Data []json.RawMessage `json:"data"`
}

// FetchAll reads every record of collection matching q. It never returns an
// error directly; see Result.Complete and Result.Err.
func (c *Client) FetchAll(ctx context.Context, collection string, q Query) Result {
	res := Result{Collection: collection}
	for page := 1; page <= c.maxPages; page++ {
		records, err := c.fetchPage(ctx, collection, q, page)
		if err != nil {
			res.Err = err
			if c.observer != nil {
				c.observer.ObservePartial(collection)
			}
			return res
		}
		res.Pages++
		res.Records = append(res.Records, records...)
		if len(records) < c.pageSize {
			res.Complete = true
			return res
		}
	}
	// Safety cap reached; the collection may hold more.
	res.Err = fmt.Errorf("remote: %s: page cap %d reached", collection, c.maxPages)
	if c.observer != nil {
		c.observer.ObservePartial(collection)
	}
	return res
}

func (c *Client) fetchPage(ctx context.Context, collection string, q Query, page int) ([]json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	endpoint := c.pageURL(collection, q, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.observe(collection, resp.StatusCode, 0, start)
		return nil, fmt.Errorf("%w: %s page %d: %d", ErrStatus, collection, page, resp.StatusCode)
	}

	var env listEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.observe(collection, resp.StatusCode, 0, start)
		return nil, fmt.Errorf("remote: decode %s page %d: %w", collection, page, err)
	}
	c.observe(collection, resp.StatusCode, len(env.Data), start)
	return env.Data, nil
}

func (c *Client) observe(collection string, status, records int, start time.Time) {
	if c.observer != nil {
		c.observer.ObservePage(collection, status, records, time.Since(start))
	}
}

func (c *Client) pageURL(collection string, q Query, page int) string {
	params := q.Values()
	params.Set("limit", strconv.Itoa(c.pageSize))
	if c.paging == PagingOffset {
		params.Set("offset", strconv.Itoa((page-1)*c.pageSize))
	} else {
		params.Set("page", strconv.Itoa(page))
	}
	return c.baseURL + "/items/" + url.PathEscape(collection) + "?" + params.Encode()
}

type requestIDKey struct{}

// ContextWithRequestID tags outgoing requests issued with ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
