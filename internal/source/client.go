// Package source fetches statistics from the stats HTTP API.
//
// Every call is a GET with query parameters and a JSON body in response.
// Failures of any kind come back as *NetworkError tagged with the operation
// so callers can show a fixed message per operation.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nixlim/scopetop/internal/filter"
	"github.com/nixlim/scopetop/internal/histogram"
	"github.com/nixlim/scopetop/internal/stats"
	"github.com/nixlim/scopetop/internal/window"
)

const maxErrorBody = 512

// Query is the selection every stats request is scoped to.
type Query struct {
	Window window.Window
	Filter filter.State
	// Reset asks the server to discard its current aggregation. Only
	// top-level loads send it.
	Reset bool
}

func (q Query) values() url.Values {
	v := url.Values{}
	q.Window.Encode(v)
	q.Filter.Encode(v)
	return v
}

type Client struct {
	baseURL string
	http    *http.Client
	metrics *Metrics
	logger  zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for the API rooted at baseURL, e.g.
// http://host:8080/endoscope. Requests time out after timeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Top loads the top-level nodes for q.
func (c *Client) Top(ctx context.Context, q Query) (stats.TopLevel, error) {
	params := q.values()
	if q.Reset {
		params.Set("reset", "true")
	}
	var top stats.TopLevel
	if err := c.get(ctx, OpTop, "/data/top", params, &top); err != nil {
		return nil, err
	}
	if top == nil {
		top = stats.TopLevel{}
	}
	return top, nil
}

type detailsResponse struct {
	ID     string      `json:"id"`
	Merged *stats.Node `json:"merged"`
}

// Details loads the full subtree rooted at the top-level node id.
func (c *Client) Details(ctx context.Context, id string, q Query) (*stats.Node, error) {
	params := q.values()
	params.Set("id", id)
	var resp detailsResponse
	if err := c.get(ctx, OpDetails, "/data/details", params, &resp); err != nil {
		return nil, err
	}
	if resp.Merged == nil {
		return &stats.Node{}, nil
	}
	return resp.Merged, nil
}

// Histogram loads one page of id's history. An empty cursor requests the
// first page.
func (c *Client) Histogram(ctx context.Context, id string, q Query, cursor string) (histogram.Page, error) {
	params := q.values()
	params.Set("id", id)
	if cursor != "" {
		params.Set("lastGroupId", cursor)
	}
	var page histogram.Page
	if err := c.get(ctx, OpHistogram, "/data/histogram", params, &page); err != nil {
		return histogram.Page{}, err
	}
	return page, nil
}

// Filters loads the facet values known for w.
func (c *Client) Filters(ctx context.Context, w window.Window) (filter.Values, error) {
	params := url.Values{}
	w.Encode(params)
	var vals filter.Values
	if err := c.get(ctx, OpFilters, "/data/filters", params, &vals); err != nil {
		return filter.Values{}, err
	}
	return vals, nil
}

func (c *Client) get(ctx context.Context, op Operation, path string, params url.Values, out any) (err error) {
	start := time.Now()
	status := 0
	defer func() {
		elapsed := time.Since(start)
		c.metrics.observe(op, err, elapsed)
		ev := c.logger.Debug()
		if err != nil {
			ev = c.logger.Warn().Err(err)
		}
		ev.Str("op", op.String()).
			Str("query", params.Encode()).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("stats request")
	}()

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &NetworkError{Op: op, Status: status, Err: errors.New(strings.TrimSpace(string(body)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, Status: status, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
