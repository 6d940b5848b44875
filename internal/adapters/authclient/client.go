package authclient

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
)

// Client talks to the authentication collaborator. It implements
// ports.SessionVerifier and ports.AuthForwarder.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

// New builds a client for the collaborator at baseURL (e.g.
// "http://auth-backend:3000").
func New(baseURL string, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	return &Client{
		base:   u,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}, nil
}

// sessionResponse is the subset of the collaborator's get-session payload
// the gateway cares about.
type sessionResponse struct {
	User *struct {
		ID string `json:"id"`
	} `json:"user"`
}

// Session asks the collaborator whether the request headers carry a valid
// session. Only credential-bearing headers are forwarded.
func (c *Client) Session(ctx context.Context, header http.Header) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/auth/get-session"), nil)
	if err != nil {
		return "", false
	}
	for _, h := range []string{"Cookie", "Authorization"} {
		if v := header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("session lookup failed", "error", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	var session sessionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&session); err != nil {
		c.logger.Warn("session response not parseable", "error", err)
		return "", false
	}
	if session.User == nil || session.User.ID == "" {
		return "", false
	}
	return session.User.ID, true
}

// Forward relays the original request to the collaborator and writes the
// response back verbatim: status, headers and body untouched. body is the
// buffered request body captured before policy evaluation.
func (c *Client) Forward(w http.ResponseWriter, r *http.Request, body []byte) error {
	upstream := c.endpoint(r.URL.Path)
	if r.URL.RawQuery != "" {
		upstream += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, upstream, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build upstream request: %w", err)
	}
	req.Header = r.Header.Clone()
	req.Header.Set("X-Forwarded-Host", r.Host)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("forward to upstream: %w", err)
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("relay upstream response: %w", err)
	}
	return nil
}

// Ping probes the collaborator's health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/auth/ok"), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("upstream unhealthy: %s", resp.Status)
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimSuffix(c.base.String(), "/") + path
}
