// Package restli is a thin client for LinkedIn's Rest.li style REST API.
// It covers the three access patterns the tools need: entity GET, collection
// GET/finder, and entity create. Responses carry their HTTP status so the
// auth guard can normalize non-success statuses uniformly.
package restli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultBaseURL is the versioned LinkedIn API root.
	DefaultBaseURL = "https://api.linkedin.com/v2"

	protocolVersionHeader = "X-Restli-Protocol-Version"
	protocolVersion       = "2.0.0"
	createdEntityHeader   = "X-Restli-Id"

	maxResponseBytes = 8 << 20
)

// Paging is the collection pagination envelope.
type Paging struct {
	Start int `json:"start"`
	Count int `json:"count"`
	Total int `json:"total,omitempty"`
}

// Response is a single-entity response.
type Response struct {
	Status int
	Entity map[string]any
}

func (r *Response) HTTPStatus() int { return r.Status }

// CollectionResponse is a finder or collection-GET response.
type CollectionResponse struct {
	Status   int
	Elements []map[string]any
	Paging   *Paging
}

func (r *CollectionResponse) HTTPStatus() int { return r.Status }

// CreateResponse is the result of an entity create.
type CreateResponse struct {
	Status   int
	EntityID string
}

func (r *CreateResponse) HTTPStatus() int { return r.Status }

// Client issues Rest.li requests with a caller-supplied bearer token.
// Idempotent reads are retried with exponential backoff on HTTP 429 and 5xx;
// creates are never retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	maxTries   uint
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API root. Used by tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMaxTries bounds the retry loop for idempotent reads.
func WithMaxTries(n uint) ClientOption {
	return func(c *Client) {
		c.maxTries = n
	}
}

// New creates a Client against the LinkedIn API.
func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
		maxTries:   3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches a single entity at resourcePath.
func (c *Client) Get(ctx context.Context, token, resourcePath string, query url.Values) (*Response, error) {
	status, body, err := c.doRead(ctx, token, resourcePath, query)
	if err != nil {
		return nil, err
	}

	resp := &Response{Status: status}
	if len(body) > 0 && status < 300 {
		if err := json.Unmarshal(body, &resp.Entity); err != nil {
			return nil, fmt.Errorf("decoding entity from %s: %w", resourcePath, err)
		}
	}
	return resp, nil
}

// GetAll fetches a collection at resourcePath.
func (c *Client) GetAll(ctx context.Context, token, resourcePath string, query url.Values) (*CollectionResponse, error) {
	status, body, err := c.doRead(ctx, token, resourcePath, query)
	if err != nil {
		return nil, err
	}
	return decodeCollection(status, body, resourcePath)
}

// Finder runs a named finder against a collection resource. The finder name
// is passed as the Rest.li "q" parameter.
func (c *Client) Finder(ctx context.Context, token, resourcePath, finderName string, query url.Values) (*CollectionResponse, error) {
	q := url.Values{}
	for key, values := range query {
		q[key] = values
	}
	q.Set("q", finderName)

	status, body, err := c.doRead(ctx, token, resourcePath, q)
	if err != nil {
		return nil, err
	}
	return decodeCollection(status, body, resourcePath)
}

// Create posts a new entity to a collection resource. The created entity's
// identifier is read from the X-Restli-Id response header. Creates are not
// idempotent and are never retried.
func (c *Client) Create(ctx context.Context, token, resourcePath string, entity any) (*CreateResponse, error) {
	payload, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("encoding entity for %s: %w", resourcePath, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, token, resourcePath, nil, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	// Drain so the connection can be reused; create responses have no body we need.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	c.logger.DebugContext(ctx, "restli create", "resource", resourcePath, "status", resp.StatusCode)
	return &CreateResponse{
		Status:   resp.StatusCode,
		EntityID: resp.Header.Get(createdEntityHeader),
	}, nil
}

// doRead issues a GET and retries transient failures. HTTP 429 and 5xx are
// retriable; every other status is returned to the caller as-is for the
// guard to classify.
func (c *Client) doRead(ctx context.Context, token, resourcePath string, query url.Values) (int, []byte, error) {
	operation := func() (readResult, error) {
		req, err := c.newRequest(ctx, http.MethodGet, token, resourcePath, query, nil)
		if err != nil {
			return readResult{}, backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return readResult{}, err
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return readResult{}, err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			c.logger.WarnContext(ctx, "retrying restli read", "resource", resourcePath, "status", resp.StatusCode)
			return readResult{}, fmt.Errorf("transient status %d from %s", resp.StatusCode, resourcePath)
		}

		return readResult{status: resp.StatusCode, body: body}, nil
	}

	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		return 0, nil, err
	}

	c.logger.DebugContext(ctx, "restli read", "resource", resourcePath, "status", res.status)
	return res.status, res.body, nil
}

type readResult struct {
	status int
	body   []byte
}

func (c *Client) newRequest(ctx context.Context, method, token, resourcePath string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + resourcePath
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(protocolVersionHeader, protocolVersion)
	return req, nil
}

func decodeCollection(status int, body []byte, resourcePath string) (*CollectionResponse, error) {
	resp := &CollectionResponse{Status: status}
	if len(body) == 0 || status >= 300 {
		return resp, nil
	}

	var envelope struct {
		Elements []map[string]any `json:"elements"`
		Paging   *Paging          `json:"paging"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding collection from %s: %w", resourcePath, err)
	}
	resp.Elements = envelope.Elements
	resp.Paging = envelope.Paging
	return resp, nil
}
