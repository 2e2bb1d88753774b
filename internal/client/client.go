// Package client is a small Go client for the tracker's JSON API, used by
// the terminal dashboard.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/interview-tracker/internal/model"
	"github.com/sakif/interview-tracker/internal/service"
)

// APIError is a non-2xx response. Message is the server's {"error": ...} text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// Client talks to one tracker server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for the server at baseURL, e.g. "http://localhost:3000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches candidates in dashboard order; a non-empty domain narrows the result.
func (c *Client) List(ctx context.Context, domain string) ([]model.Candidate, error) {
	path := "/users"
	if domain != "" {
		path += "?" + url.Values{"domain": {domain}}.Encode()
	}
	var out []model.Candidate
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one candidate.
func (c *Client) Get(ctx context.Context, id string) (*model.Candidate, error) {
	var out model.Candidate
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddRemark appends a remark and returns the updated candidate.
func (c *Client) AddRemark(ctx context.Context, candidateID string, in service.RemarkInput) (*model.Candidate, error) {
	var out model.Candidate
	if err := c.do(ctx, http.MethodPost, "/users/remarks/"+url.PathEscape(candidateID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EditRemark sends only the fields present in in.
func (c *Client) EditRemark(ctx context.Context, candidateID, remarkID string, in service.RemarkInput) (*model.Candidate, error) {
	var out model.Candidate
	path := "/users/" + url.PathEscape(candidateID) + "/remarks/" + url.PathEscape(remarkID)
	if err := c.do(ctx, http.MethodPut, path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRemark removes a remark and returns the updated candidate.
func (c *Client) DeleteRemark(ctx context.Context, candidateID, remarkID string) (*model.Candidate, error) {
	var out model.Candidate
	path := "/users/" + url.PathEscape(candidateID) + "/remarks/" + url.PathEscape(remarkID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			apiErr.Message = e.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
