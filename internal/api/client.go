// Package api is a Go client for the document HTTP API served by
// internal/server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nzaccagnino/go-sheets/internal/store"
)

const passwordHeader = "X-Document-Password"

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type DocumentSummary struct {
	Name     string    `json:"name"`
	Modified time.Time `json:"modified"`
}

type Document struct {
	Name              string    `json:"name"`
	Created           time.Time `json:"created"`
	Modified          time.Time `json:"modified"`
	Content           string    `json:"content"`
	BillType          int       `json:"billType"`
	PasswordProtected bool      `json:"passwordProtected"`
	Sealed            bool      `json:"sealed"`
}

type putRequest struct {
	Content  string `json:"content"`
	BillType int    `json:"billType"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Error is a non-2xx response. It unwraps to the matching store error so
// callers can use errors.Is against store sentinels.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return store.ErrNotFound
	case http.StatusBadRequest:
		return store.ErrInvalidName
	case http.StatusUnauthorized:
		return store.ErrPasswordRequired
	case http.StatusForbidden:
		return store.ErrInvalidPassword
	case http.StatusUnprocessableEntity:
		return store.ErrInvalidRecord
	}
	return nil
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) List(ctx context.Context) ([]DocumentSummary, error) {
	var resp []DocumentSummary
	if err := c.do(ctx, http.MethodGet, "/api/documents/", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Get returns name with plaintext content when password opens it. Without a
// password a protected document comes back sealed.
func (c *Client) Get(ctx context.Context, name, password string) (*Document, error) {
	var resp Document
	if err := c.do(ctx, http.MethodGet, documentPath(name), passwordHeaders(password), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Put creates or replaces name. A non-empty password seals the content.
func (c *Client) Put(ctx context.Context, name, content string, billType int, password string) error {
	body := putRequest{Content: content, BillType: billType}
	return c.do(ctx, http.MethodPut, documentPath(name), passwordHeaders(password), body, nil)
}

func (c *Client) Delete(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, documentPath(name), nil, nil, nil)
}

func (c *Client) Protect(ctx context.Context, name, password string) error {
	return c.do(ctx, http.MethodPost, documentPath(name)+"/protect", nil, passwordRequest{Password: password}, nil)
}

func (c *Client) RemoveProtection(ctx context.Context, name, password string) error {
	return c.do(ctx, http.MethodPost, documentPath(name)+"/unprotect", nil, passwordRequest{Password: password}, nil)
}

func (c *Client) VerifyPassword(ctx context.Context, name, password string) (bool, error) {
	var resp verifyResponse
	err := c.do(ctx, http.MethodPost, documentPath(name)+"/verify", nil, passwordRequest{Password: password}, &resp)
	if err != nil {
		return false, err
	}
	return resp.Valid, nil
}

func documentPath(name string) string {
	return "/api/documents/" + url.PathEscape(name)
}

func passwordHeaders(password string) map[string]string {
	if password == "" {
		return nil
	}
	return map[string]string{passwordHeader: password}
}

// HTTP helpers

func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &Error{Status: resp.StatusCode}
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil {
			apiErr.Message = errResp.Error
		}
		return apiErr
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
