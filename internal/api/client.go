package api

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

	"github.com/google/uuid"
)

// TokenSource supplies the bearer token for authenticated requests. An empty
// token sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// Client talks to the social backend's HTTP API.
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	uploadHTTP *http.Client
	userAgent  string
	tokens     TokenSource
}

const (
	defaultBaseURL        = "http://127.0.0.1:3000"
	defaultUserAgent      = "flock/0.1"
	defaultRequestTimeout = 10 * time.Second
	defaultUploadTimeout  = 20 * time.Second
	maxErrorBody          = 64 * 1024
)

// Options tune a Client. Zero values use defaults.
type Options struct {
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
	UserAgent      string
	Tokens         TokenSource
	Transport      http.RoundTripper
}

// NewClient builds a Client for the backend at baseURL.
func NewClient(baseURL string, opts Options) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	reqTimeout := opts.RequestTimeout
	if reqTimeout <= 0 {
		reqTimeout = defaultRequestTimeout
	}
	upTimeout := opts.UploadTimeout
	if upTimeout <= 0 {
		upTimeout = defaultUploadTimeout
	}
	agent := strings.TrimSpace(opts.UserAgent)
	if agent == "" {
		agent = defaultUserAgent
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = TokenFunc(func() string { return "" })
	}
	return &Client{
		baseURL:    base,
		http:       &http.Client{Timeout: reqTimeout, Transport: opts.Transport},
		uploadHTTP: &http.Client{Timeout: upTimeout, Transport: opts.Transport},
		userAgent:  agent,
		tokens:     tokens,
	}, nil
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ResolveURL turns a server-relative path into an absolute URL. Absolute
// http(s) URLs are returned unchanged.
func (c *Client) ResolveURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if IsRemoteURL(raw) {
		return raw
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return strings.TrimSuffix(c.baseURL.String(), "/") + raw
}

// IsRemoteURL reports whether ref is an absolute http or https URL.
func IsRemoteURL(ref string) bool {
	lower := strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	return c.doURL(ctx, method, relPath(path), body, dest)
}

func relPath(path string) *url.URL {
	return &url.URL{Path: path}
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	op := method + " " + rel.Path
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindOther, Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(rel), reader)
	if err != nil {
		return &Error{Kind: KindOther, Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return statusError(op, resp)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &Error{Kind: KindDecode, Op: op, Status: resp.StatusCode, Err: err}
	}
	return nil
}

// endpoint joins rel onto the base URL, keeping any base path prefix.
func (c *Client) endpoint(rel *url.URL) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + rel.Path
	u.RawQuery = rel.RawQuery
	return u.String()
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := strings.TrimSpace(c.tokens.Token()); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// statusError builds a KindServer error, pulling a message out of the body
// when the backend sent one.
func statusError(op string, resp *http.Response) *Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &Error{
		Kind:    KindServer,
		Op:      op,
		Status:  resp.StatusCode,
		Message: extractMessage(raw),
	}
}

func extractMessage(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		if trimmed[0] == '{' || trimmed[0] == '[' {
			return ""
		}
		return string(trimmed)
	}
	if len(payload.Message) > 0 {
		var single string
		if err := json.Unmarshal(payload.Message, &single); err == nil {
			return single
		}
		// Validation pipes on the backend send a list of messages.
		var many []string
		if err := json.Unmarshal(payload.Message, &many); err == nil {
			return strings.Join(many, "; ")
		}
	}
	return payload.Error
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
