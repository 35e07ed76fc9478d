// Package api is the typed HTTP client for the board backend.
//
// One Client per resource type, parameterized over the entity. The wire
// contract is plain JSON: GET /<path> returns an array, POST /<path> and
// PUT /<path>/{id} echo the authoritative entity back, DELETE /<path>/{id}
// returns no body. Error bodies follow {"error": ..., "message": ...}.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lodenross/boardctl/internal/model"
)

// DefaultTimeout bounds every request when the caller's context carries no
// earlier deadline.
const DefaultTimeout = 15 * time.Second

// Client issues CRUD calls for one resource type.
type Client[T model.Resource] struct {
	http     *http.Client
	baseURL  string
	path     string // URL segment, e.g. "issues"
	resource string // singular name used in error messages
	token    string
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	timeout    time.Duration
	token      string
}

// WithHTTPClient substitutes the underlying *http.Client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = h }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.timeout = d }
}

// WithToken attaches a bearer token to every request.
func WithToken(token string) Option {
	return func(c *clientConfig) { c.token = token }
}

// NewClient builds a client for one resource type. path is the collection
// URL segment ("projects", "epics", "issues", "sprints"); resource is the
// singular noun used in errors.
func NewClient[T model.Resource](baseURL, path, resource string, opts ...Option) *Client[T] {
	cfg := clientConfig{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	h := cfg.httpClient
	if h == nil {
		h = &http.Client{Timeout: cfg.timeout}
	}
	return &Client[T]{
		http:     h,
		baseURL:  strings.TrimRight(baseURL, "/"),
		path:     path,
		resource: resource,
		token:    cfg.token,
	}
}

// List fetches the full collection.
func (c *Client[T]) List(ctx context.Context) ([]T, error) {
	op := "list " + c.path
	var out []T
	if err := c.do(ctx, op, http.MethodGet, c.collectionURL(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches a single entity by id.
func (c *Client[T]) Get(ctx context.Context, id string) (T, error) {
	op := "get " + c.resource
	var out T
	if err := c.do(ctx, op, http.MethodGet, c.entityURL(id), nil, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Create posts a draft and returns the entity with its server-assigned id.
func (c *Client[T]) Create(ctx context.Context, draft T) (T, error) {
	op := "create " + c.resource
	var out T
	if err := c.do(ctx, op, http.MethodPost, c.collectionURL(), draft, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Update replaces an entity's fields and returns the authoritative copy.
func (c *Client[T]) Update(ctx context.Context, id string, patch T) (T, error) {
	op := "update " + c.resource
	var out T
	if err := c.do(ctx, op, http.MethodPut, c.entityURL(id), patch, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Delete removes an entity.
func (c *Client[T]) Delete(ctx context.Context, id string) error {
	op := "delete " + c.resource
	return c.do(ctx, op, http.MethodDelete, c.entityURL(id), nil, nil)
}

func (c *Client[T]) collectionURL() string {
	return c.baseURL + "/" + c.path
}

func (c *Client[T]) entityURL(id string) string {
	return c.baseURL + "/" + c.path + "/" + id
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do runs one request. Transport failures and undecodable success bodies
// become NetworkError; non-2xx responses become ServerError with the
// backend's message passed through when the body carries one.
func (c *Client[T]) do(ctx context.Context, op, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{Op: op, StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// readErrorMessage extracts the backend message from an error body, if any.
// A malformed body is not an extra failure; the status code alone suffices.
func readErrorMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(b, &eb); err != nil {
		return ""
	}
	if eb.Message != "" {
		return eb.Message
	}
	return eb.Error
}
