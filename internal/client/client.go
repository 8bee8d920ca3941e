// Package client talks to the FocusBot HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const DefaultBaseURL = "http://localhost:8000"

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New returns a client for baseURL. A zero timeout means none.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// NewWithHTTPClient is for tests that need a custom transport.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	c := New(baseURL, 0)
	c.http = hc
	return c
}

// SetToken sets the bearer token sent with every request; empty clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// do sends one request. Non-2xx answers become *APIError; out is decoded on 2xx.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	resp, raw, err := c.send(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		detail := eb.Detail
		if detail == "" {
			detail = eb.Error
		}
		return &APIError{Status: resp.StatusCode, Detail: detail}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, in any) (*http.Response, []byte, error) {
	op := method + " " + path
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, nil, &TransportError{Op: op, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, nil, &TransportError{Op: op, Err: err}
	}
	return resp, raw, nil
}

var errNoToken = errors.New("response carried no token")

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	Token string `json:"token"`
}

func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	return c.credentials(ctx, "/api/login", email, password)
}

func (c *Client) Signup(ctx context.Context, email, password string) (string, error) {
	return c.credentials(ctx, "/api/signup", email, password)
}

func (c *Client) credentials(ctx context.Context, path, email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", &ValidationError{Msg: "Email and password are required"}
	}
	var out tokenResp
	if err := c.do(ctx, http.MethodPost, path, nil, credentials{Email: email, Password: password}, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", &TransportError{Op: "POST " + path, Err: errNoToken}
	}
	return out.Token, nil
}
