// Package api is the client for the finance REST backend.
//
// Every call carries the visitor's backend cookies. Failures come back once
// as *Error; nothing is retried and the client sets no timeout of its own,
// so only the caller's context bounds a call.
package api

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
)

// Observer receives one notification per backend call.
type Observer interface {
	ObserveBackendCall(resource, operation, outcome string, elapsed time.Duration)
}

// Client talks to the backend on behalf of one visitor.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	observer   Observer
	cookies    []*http.Cookie
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithObserver reports each call to o.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL: u,
		// No Timeout: calls end when the request context does.
		httpClient: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithCookies returns a copy of c that sends cookies with every request.
func (c *Client) WithCookies(cookies []*http.Cookie) *Client {
	cp := *c
	cp.cookies = cookies
	return &cp
}

// response is a successful backend reply.
type response struct {
	status  int
	body    []byte
	cookies []*http.Cookie
}

func (c *Client) do(ctx context.Context, resource, op, method, path string, query url.Values, in any) (resp *response, err error) {
	start := time.Now()
	defer func() {
		if c.observer == nil {
			return
		}
		outcome := "ok"
		if k := KindOf(err); k != "" {
			outcome = string(k)
		} else if err != nil {
			outcome = "error"
		}
		c.observer.ObserveBackendCall(resource, op, outcome, time.Since(start))
	}()

	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", resource, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newNetworkError(err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, newNetworkError(err)
	}

	if KindForStatus(httpResp.StatusCode) != "" {
		return nil, newStatusError(httpResp.StatusCode, raw)
	}

	return &response{
		status:  httpResp.StatusCode,
		body:    raw,
		cookies: httpResp.Cookies(),
	}, nil
}

func decode(resource string, body []byte, out any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", resource, err)
	}
	return nil
}

// MergeCookies overlays fresh cookies on existing ones by name. A fresh
// cookie that expires or has no value removes its name.
func MergeCookies(existing, fresh []*http.Cookie) []*http.Cookie {
	byName := make(map[string]*http.Cookie, len(existing)+len(fresh))
	order := make([]string, 0, len(existing)+len(fresh))
	add := func(ck *http.Cookie) {
		if _, seen := byName[ck.Name]; !seen {
			order = append(order, ck.Name)
		}
		byName[ck.Name] = ck
	}
	for _, ck := range existing {
		add(ck)
	}
	for _, ck := range fresh {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(byName, ck.Name)
			continue
		}
		add(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	out := make([]*http.Cookie, 0, len(byName))
	for _, name := range order {
		if ck, ok := byName[name]; ok {
			out = append(out, ck)
			delete(byName, name)
		}
	}
	return out
}
