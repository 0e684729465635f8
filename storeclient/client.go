// Package storeclient talks to the price store's JSON API over HTTP and
// implements catalog.Store.
package storeclient

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

	"github.com/rs/zerolog"

	"pricecatalog/catalog"
)

const (
	defaultTimeout         = 10 * time.Second
	resourcePath           = "/api/price-data"
	errorBodyLimit   int64 = 1024
	idempotencyHeader      = "Idempotency-Key"
)

var errBaseURLRequired = errors.New("storeclient: base url is required")

// StatusError is returned when the store answers with a non-2xx status.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// Client is a catalog.Store backed by the HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retries    int
	retryWait  time.Duration
	log        zerolog.Logger
}

var _ catalog.Store = (*Client)(nil)

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithSearchRetries retries failed searches up to n attempts in total,
// doubling wait between attempts. Writes are never retried.
func WithSearchRetries(n int, wait time.Duration) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
			c.retryWait = wait
		}
	}
}

// WithLogger sets the logger used for request failures.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New builds a client for the store at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("storeclient: parse base url: %w", err)
	}

	c := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retries:    1,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type searchResponse struct {
	Items []catalog.PriceRecord `json:"items"`
}

// Search fetches the records matching f.
func (c *Client) Search(ctx context.Context, f catalog.Filter) ([]catalog.PriceRecord, error) {
	f = f.Normalize()
	q := url.Values{}
	if f.Text != "" {
		q.Set("query", f.Text)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Source != "" {
		q.Set("source", f.Source)
	}
	path := resourcePath
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out searchResponse
	var err error
	wait := c.retryWait
	for attempt := 1; attempt <= c.retries; attempt++ {
		err = c.do(ctx, http.MethodGet, path, nil, nil, &out)
		if err == nil || ctx.Err() != nil || attempt == c.retries {
			break
		}
		c.log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", wait).Msg("storeclient: search failed, retrying")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		wait *= 2
	}
	if err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []catalog.PriceRecord{}
	}
	return out.Items, nil
}

// Create posts rec. The idempotency key travels as a header so a retried
// submit is recognised by the store.
func (c *Client) Create(ctx context.Context, rec catalog.PriceRecord, idempotencyKey string) error {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers[idempotencyHeader] = idempotencyKey
	}
	return c.do(ctx, http.MethodPost, resourcePath, headers, rec, nil)
}

type updateRequest struct {
	Items []catalog.Patch `json:"items"`
}

type updateResponse struct {
	Results []catalog.UpdateResult `json:"results"`
}

// Update sends all patches in one batch and returns the per-record results.
func (c *Client) Update(ctx context.Context, patches []catalog.Patch) ([]catalog.UpdateResult, error) {
	var out updateResponse
	if err := c.do(ctx, http.MethodPatch, resourcePath, nil, updateRequest{Items: patches}, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Delete removes one record.
func (c *Client) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("storeclient: id is required")
	}
	return c.do(ctx, http.MethodDelete, resourcePath+"/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("storeclient: marshal %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("storeclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("method", method).Str("path", path).Msg("storeclient: request failed")
		return fmt.Errorf("storeclient: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, path, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("storeclient: decode %s %s: %w", method, path, err)
	}
	return nil
}

func statusError(method, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	msg := strings.TrimSpace(string(raw))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		switch {
		case payload.Error != "":
			msg = payload.Error
		case payload.Message != "":
			msg = payload.Message
		}
	}
	return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Message: msg}
}
