// Package api provides the authenticated HTTP client for the content API.
// Every call goes through Client.Do, which obtains a valid token first.
package api

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

	"github.com/mpost-project/mpost-cli/internal/apperr"
	"github.com/mpost-project/mpost-cli/internal/auth"
	"github.com/mpost-project/mpost-cli/internal/config"
	"github.com/mpost-project/mpost-cli/internal/logging"
)

// Credentials supplies the token and app configuration for each request
type Credentials interface {
	ValidToken(ctx context.Context, forceRefresh bool) (*auth.TokenRecord, error)
	Config(ctx context.Context) (*config.AppConfig, error)
}

// RequestOptions are the optional parts of a request
type RequestOptions struct {
	Query   url.Values
	Headers http.Header
	Cookies []*http.Cookie
	// Form is sent url-encoded; it takes precedence over JSON
	Form url.Values
	JSON interface{}
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Cookies    []*http.Cookie
	Body       []byte
}

// DecodeJSON parses the body into v
func (r *Response) DecodeJSON(v interface{}) error {
	if v == nil || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Client is an HTTP client for the content API
type Client struct {
	baseURL      string
	identityPath string
	creds        Credentials
	httpClient   *http.Client
	logger       *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the underlying client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithIdentityPath sets the resource whose cookies SessionCookies returns
func WithIdentityPath(path string) Option {
	return func(c *Client) {
		c.identityPath = path
	}
}

// NewClient creates a new API client
func NewClient(baseURL string, creds Credentials, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		identityPath: config.DefaultPaths().Me,
		creds:        creds,
		httpClient:   &http.Client{Timeout: config.DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDiscard(c.logger)
	return c
}

// Do performs an authenticated request. resource is relative to the base
// URL unless it is absolute. A non-2xx status returns the response together
// with a transport error carrying the status and body.
func (c *Client) Do(ctx context.Context, method, resource string, opts *RequestOptions) (*Response, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	token, err := c.creds.ValidToken(ctx, false)
	if err != nil {
		return nil, err
	}
	cfg, err := c.creds.Config(ctx)
	if err != nil {
		return nil, err
	}

	target, err := c.resolve(resource, opts.Query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	contentType := ""
	switch {
	case opts.Form != nil:
		body = strings.NewReader(opts.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case opts.JSON != nil:
		jsonBody, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(jsonBody)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("User-Agent", cfg.UserAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, values := range opts.Headers {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	for _, cookie := range opts.Cookies {
		req.AddCookie(cookie)
	}

	c.logger.Debug("api request", "method", method, "url", target)
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.New(apperr.Transport, method+" "+resource, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, apperr.New(apperr.Transport, method+" "+resource, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Cookies:    httpResp.Cookies(),
		Body:       respBody,
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		c.logger.Debug("api error", "method", method, "url", target, "status", httpResp.StatusCode)
		return resp, &apperr.Error{
			Kind:   apperr.Transport,
			Op:     method + " " + resource,
			Status: httpResp.StatusCode,
			Body:   string(respBody),
		}
	}
	return resp, nil
}

// Get performs a GET request and decodes the JSON result
func (c *Client) Get(ctx context.Context, resource string, query url.Values, result interface{}) error {
	resp, err := c.Do(ctx, http.MethodGet, resource, &RequestOptions{Query: query})
	if err != nil {
		return err
	}
	return resp.DecodeJSON(result)
}

// Post performs a form POST and decodes the JSON result
func (c *Client) Post(ctx context.Context, resource string, form url.Values, result interface{}) error {
	if form == nil {
		form = url.Values{}
	}
	resp, err := c.Do(ctx, http.MethodPost, resource, &RequestOptions{Form: form})
	if err != nil {
		return err
	}
	return resp.DecodeJSON(result)
}

// PostJSON performs a JSON POST and decodes the JSON result
func (c *Client) PostJSON(ctx context.Context, resource string, body interface{}, result interface{}) error {
	resp, err := c.Do(ctx, http.MethodPost, resource, &RequestOptions{JSON: body})
	if err != nil {
		return err
	}
	return resp.DecodeJSON(result)
}

// SessionCookies returns the cookies the identity resource issues.
// Lease and submit calls carry them.
func (c *Client) SessionCookies(ctx context.Context) ([]*http.Cookie, error) {
	resp, err := c.Do(ctx, http.MethodGet, c.identityPath, nil)
	if err != nil {
		return nil, err
	}
	return resp.Cookies, nil
}

func (c *Client) resolve(resource string, query url.Values) (string, error) {
	target := resource
	if !strings.HasPrefix(resource, "http://") && !strings.HasPrefix(resource, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(resource, "/")
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid resource %q: %w", resource, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for key, values := range query {
			q[key] = values
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
