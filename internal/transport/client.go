// Package transport wraps the HTTP endpoints of the device service.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Endpoint paths. They are part of the service contract.
const (
	PathFrame  = "/frame"
	PathInput  = "/input"
	PathStatus = "/status"
	PathQueues = "/aq_queues"
	PathRun    = "/aq_run"
)

// Config configures a Client.
type Config struct {
	BaseURL string
	// Timeout bounds requests whose context carries no deadline. Frame
	// fetches always get their deadline from the caller.
	Timeout       time.Duration
	MaxFrameBytes int64
	UserAgent     string
	Debug         bool
	Logger        *slog.Logger
	HTTPClient    *http.Client
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.MaxFrameBytes <= 0 {
		c.MaxFrameBytes = 16 << 20
	}
	if c.UserAgent == "" {
		c.UserAgent = "droidview/1.0"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
}

// Client talks to one device service.
type Client struct {
	base  *url.URL
	http  *http.Client
	cfg   Config
	log   *slog.Logger
	debug atomic.Bool
}

// Status is the body of GET /status.
type Status struct {
	Status string `json:"status"`
	Data   struct {
		FPS int `json:"fps"`
	} `json:"data"`
}

type queuesResponse struct {
	Status string   `json:"status"`
	Queues []string `json:"queues"`
}

type runRequest struct {
	Queue      string `json:"queue"`
	Iterations int    `json:"iterations"`
}

// ErrServiceDown is returned when /aq_queues answers with a status other
// than "up".
var ErrServiceDown = errors.New("automation service is not up")

// New parses cfg.BaseURL and returns a Client. A debug=true query parameter
// on the URL turns on debug logging, the same as cfg.Debug.
func New(cfg Config) (*Client, error) {
	cfg.defaults()
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("transport: base url required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("transport: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("transport: unsupported scheme %q", u.Scheme)
	}
	debug := cfg.Debug || u.Query().Get("debug") == "true"
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")

	c := &Client{base: u, http: cfg.HTTPClient, cfg: cfg, log: cfg.Logger}
	c.debug.Store(debug)
	return c, nil
}

// BaseURL returns the service root without query parameters.
func (c *Client) BaseURL() string { return c.base.String() }

// Debug reports whether submitted actions and responses are logged.
func (c *Client) Debug() bool { return c.debug.Load() }

// SetDebug switches action logging on or off.
func (c *Client) SetDebug(on bool) { c.debug.Store(on) }

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = c.base.Path + path
	return u.String()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

// Frame fetches the current screen image. Caching is disabled on every hop.
// The caller's context carries the deadline.
func (c *Client) Frame(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(PathFrame), nil)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: PathFrame, Err: err}
	}
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(ctx, PathFrame, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &Error{Kind: KindTransport, Op: PathFrame, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxFrameBytes+1))
	if err != nil {
		return nil, classify(ctx, PathFrame, err)
	}
	if int64(len(body)) > c.cfg.MaxFrameBytes {
		return nil, &Error{Kind: KindDecode, Op: PathFrame, Err: fmt.Errorf("frame larger than %d bytes", c.cfg.MaxFrameBytes)}
	}
	if len(body) == 0 {
		return nil, &Error{Kind: KindDecode, Op: PathFrame, Err: errors.New("empty frame")}
	}
	return body, nil
}

// Submit posts one action to /input and returns the raw response body.
func (c *Client) Submit(ctx context.Context, a Action) ([]byte, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: PathInput, Err: err}
	}
	reply, err := c.postJSON(ctx, PathInput, body)
	if err != nil {
		c.log.Error("post input failed", "action", a.String(), "error", err)
		return nil, err
	}
	if c.Debug() {
		c.log.Info("input submitted", "action", a.String(), "payload", string(body), "response", strings.TrimSpace(string(reply)))
	}
	return reply, nil
}

// Status reads /status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	if err := c.getJSON(ctx, PathStatus, &st); err != nil {
		return Status{}, err
	}
	return st, nil
}

// Queues lists the automation queues known to the service.
func (c *Client) Queues(ctx context.Context) ([]string, error) {
	var qr queuesResponse
	if err := c.getJSON(ctx, PathQueues, &qr); err != nil {
		return nil, err
	}
	if qr.Status != "up" {
		return nil, &Error{Kind: KindTransport, Op: PathQueues, Err: fmt.Errorf("%w: status %q", ErrServiceDown, qr.Status)}
	}
	return qr.Queues, nil
}

// RunQueue asks the service to run queue the given number of times.
func (c *Client) RunQueue(ctx context.Context, queue string, iterations int) (json.RawMessage, error) {
	if strings.TrimSpace(queue) == "" {
		return nil, fmt.Errorf("transport: queue name required")
	}
	body, err := json.Marshal(runRequest{Queue: queue, Iterations: iterations})
	if err != nil {
		return nil, err
	}
	reply, err := c.postJSON(ctx, PathRun, body)
	if err != nil {
		return nil, err
	}
	if c.Debug() {
		c.log.Info("queue run requested", "queue", queue, "iterations", iterations, "response", strings.TrimSpace(string(reply)))
	}
	if !json.Valid(reply) {
		return nil, &Error{Kind: KindDecode, Op: PathRun, Err: errors.New("response is not json")}
	}
	return json.RawMessage(reply), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return &Error{Kind: KindTransport, Op: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return classify(ctx, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Kind: KindTransport, Op: path, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindDecode, Op: path, Err: err}
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body []byte) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(ctx, path, err)
	}
	defer resp.Body.Close()
	reply, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, classify(ctx, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: KindTransport, Op: path, Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(reply)))}
	}
	return reply, nil
}
