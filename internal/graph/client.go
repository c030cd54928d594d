package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rflorenc/intune-workbench/internal/config"
)

// APIVersion selects one of the two API generations.
type APIVersion string

const (
	Stable  APIVersion = "v1.0"
	Preview APIVersion = "beta"
)

// CallOptions customizes a single remote call. The zero value is a stable GET.
type CallOptions struct {
	APIVersion APIVersion
	Method     string
	Body       any
	Headers    map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// Client performs authenticated calls against the versioned Graph API.
type Client struct {
	stableBase  string
	previewBase string
	scopes      []string
	pageLimit   int
	tokens      TokenProvider
	httpClient  *http.Client
	limiter     *rate.Limiter
	log         *zap.Logger
}

// NewClient creates a Client from the graph configuration.
func NewClient(cfg config.Graph, tokens TokenProvider, log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		stableBase:  strings.TrimRight(cfg.StableBase, "/"),
		previewBase: strings.TrimRight(cfg.PreviewBase, "/"),
		scopes:      cfg.Scopes,
		pageLimit:   cfg.PageLimit,
		tokens:      tokens,
		httpClient:  &http.Client{},
		log:         log,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseForVersion returns the API root for a version.
func (c *Client) BaseForVersion(v APIVersion) string {
	if v == Preview {
		return c.previewBase
	}
	return c.stableBase
}

// Call performs one authenticated request and returns the raw JSON body.
// A 204 response yields (nil, nil). endpoint may be an absolute URL, in which
// case no base is prefixed.
func (c *Client) Call(ctx context.Context, endpoint string, opts CallOptions) (json.RawMessage, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	token, err := acquire(ctx, c.tokens, c.scopes)
	if err != nil {
		return nil, err
	}

	u := endpoint
	if !isAbsolute(endpoint) {
		u = c.BaseForVersion(opts.APIVersion) + endpoint
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &RemoteCallError{Method: method, Endpoint: endpoint, Message: err.Error(), Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteCallError{Method: method, Endpoint: endpoint, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteCallError{Method: method, Endpoint: endpoint, Status: resp.StatusCode,
			Message: "reading response: " + err.Error(), Err: err}
	}
	c.log.Debug("graph call",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteCallError{Method: method, Endpoint: endpoint, Status: resp.StatusCode,
			Message: errorMessage(body, resp.StatusCode)}
	}
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &RemoteCallError{Method: method, Endpoint: endpoint, Status: resp.StatusCode,
			Message: "parsing response: " + err.Error(), Err: err}
	}
	return raw, nil
}

// CallJSON performs a call and unmarshals a non-empty response into dest.
func (c *Client) CallJSON(ctx context.Context, endpoint string, opts CallOptions, dest any) error {
	raw, err := c.Call(ctx, endpoint, opts)
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		method := opts.Method
		if method == "" {
			method = http.MethodGet
		}
		return &RemoteCallError{Method: method, Endpoint: endpoint, Status: http.StatusOK,
			Message: "decoding response: " + err.Error(), Err: err}
	}
	return nil
}

// collectionPage is the OData collection envelope.
type collectionPage struct {
	Value    []map[string]any `json:"value"`
	NextLink string           `json:"@odata.nextLink"`
}

// List fetches every page of a collection endpoint, following
// @odata.nextLink, and returns the rows in server order.
func (c *Client) List(ctx context.Context, endpoint string, version APIVersion) ([]map[string]any, error) {
	all := []map[string]any{}
	next := endpoint

	for pages := 0; next != ""; pages++ {
		if c.pageLimit > 0 && pages >= c.pageLimit {
			c.log.Warn("page limit reached, listing truncated",
				zap.String("endpoint", endpoint), zap.Int("pages", pages))
			break
		}
		var page collectionPage
		if err := c.CallJSON(ctx, next, CallOptions{APIVersion: version}, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Value...)
		next = page.NextLink
	}
	return all, nil
}

// graphErrorBody is the error envelope returned by the API.
type graphErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// errorMessage extracts the best-effort message from an error body, falling
// back to the status text.
func errorMessage(body []byte, status int) string {
	var eb graphErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Message != "" {
		return truncate(eb.Error.Message, 200)
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "unknown error"
}

// IsAuthError reports whether err means the operator must sign in again.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthRequired) || StatusOf(err) == http.StatusUnauthorized
}

func isAbsolute(endpoint string) bool {
	return strings.HasPrefix(endpoint, "https://") || strings.HasPrefix(endpoint, "http://")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
