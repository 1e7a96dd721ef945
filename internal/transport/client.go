// Package transport is the HTTP plumbing shared by the directory clients:
// credential injection, common headers and JSON response decoding.
package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/agentstation/accesssync/pkg/constants"
	"github.com/agentstation/accesssync/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// CredentialFunc returns the credential to apply to the next request.
type CredentialFunc func(ctx context.Context) (string, error)

// Client provides HTTP client functionality with authentication.
type Client struct {
	directory  string
	http       *http.Client
	auth       Authenticator
	credential CredentialFunc
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithCredential sets the source of the credential applied by the
// authenticator.
func WithCredential(fn CredentialFunc) Option {
	return func(c *Client) {
		c.credential = fn
	}
}

// New creates a new transport client for the named directory.
func New(directory string, auth Authenticator, opts ...Option) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	c := &Client{
		directory: directory,
		http:      &http.Client{Timeout: DefaultHTTPTimeout},
		auth:      auth,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HTTPClient returns the underlying HTTP client.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// DoWithContext performs an HTTP request with authentication applied.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.credential != nil {
		credential, err := c.credential(ctx)
		if err != nil {
			return nil, &errors.AuthenticationError{
				Directory: c.directory,
				Method:    "bearer",
				Message:   "failed to obtain access token",
				Err:       err,
			}
		}
		if credential != "" {
			c.auth.Apply(req, credential)
		}
	}

	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.http.Do(req.WithContext(ctx))
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapIO("create request", url, err)
	}
	resp, err := c.DoWithContext(ctx, req)
	if err != nil {
		if errors.IsAuthentication(err) {
			return nil, err
		}
		return nil, &errors.APIError{
			Directory: c.directory,
			Endpoint:  url,
			Message:   err.Error(),
			Err:       err,
		}
	}
	return resp, nil
}

// GetJSON performs a GET request and decodes the JSON body into target.
func (c *Client) GetJSON(ctx context.Context, url string, target any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	return decode(resp, c.directory, url, target)
}
