// Package client is a small HTTP SDK for the log capture service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xycloo/multiuser-logging-service/internal/domain/logs"
)

// Re-exported so callers need only this package.
type (
	Log        = logs.Log
	Severity   = logs.Severity
	ServiceLog = logs.ServiceLog
)

const (
	Error   = logs.Error
	Warning = logs.Warning
	Debug   = logs.Debug
)

// Entry is a captured log as returned by severity and persisted reads.
type Entry struct {
	Time  int64 `json:"time"`
	Inner Log   `json:"inner"`
}

// HTTPError reports a non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// Client talks to one service instance.
type Client struct {
	baseURL  string
	http     *http.Client
	compress bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCompression zstd-compresses serialized envelopes.
func WithCompression() Option {
	return func(c *Client) { c.compress = true }
}

// New builds a client for baseURL, e.g. "http://127.0.0.1:8082".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EncodeLog exposes the binary layout used by SendSerialized.
func EncodeLog(l Log) []byte {
	return logs.EncodeLog(l)
}

// SendLog posts one log as JSON.
func (c *Client) SendLog(ctx context.Context, userID int64, l Log) error {
	_, err := c.SendBatch(ctx, userID, []Log{l})
	return err
}

// SendBatch posts several logs in one request and returns how many the server accepted.
func (c *Client) SendBatch(ctx context.Context, userID int64, batch []Log) (int, error) {
	var out struct {
		Accepted int `json:"accepted"`
	}
	err := c.do(ctx, http.MethodPost, userPath(userID, "/logs"), batch, nil, &out)
	return out.Accepted, err
}

// SendSerialized posts one log in the binary envelope.
func (c *Client) SendSerialized(ctx context.Context, userID int64, l Log) error {
	raw := logs.EncodeLog(l)
	headers := map[string]string{}
	if c.compress {
		compressed, err := logs.Compress(raw)
		if err != nil {
			return fmt.Errorf("compress log: %w", err)
		}
		raw = compressed
		headers[logs.SerializedEncodingHeader] = "zstd"
	}
	return c.do(ctx, http.MethodPost, userPath(userID, "/logs/serialized"), logs.Envelope{Serialized: raw}, headers, nil)
}

// ReadUnified fetches errors, debugs then warnings for userID.
func (c *Client) ReadUnified(ctx context.Context, userID int64) ([]ServiceLog, error) {
	var out []ServiceLog
	err := c.do(ctx, http.MethodGet, userPath(userID, "/logs"), nil, nil, &out)
	return out, err
}

// ReadSeverity fetches one buffer for userID.
func (c *Client) ReadSeverity(ctx context.Context, userID int64, sev Severity) ([]Entry, error) {
	var out []Entry
	err := c.do(ctx, http.MethodGet, userPath(userID, "/logs/"+strings.ToLower(sev.String())), nil, nil, &out)
	return out, err
}

// EnableCapture clears and enables capture for userID.
func (c *Client) EnableCapture(ctx context.Context, userID int64) error {
	return c.do(ctx, http.MethodPost, userPath(userID, "/capture"), nil, nil, nil)
}

// DisableCapture clears and disables capture for userID.
func (c *Client) DisableCapture(ctx context.Context, userID int64) error {
	return c.do(ctx, http.MethodDelete, userPath(userID, "/capture"), nil, nil, nil)
}

// ListUsers returns every user known to the capture store.
func (c *Client) ListUsers(ctx context.Context) ([]int64, error) {
	var out []int64
	err := c.do(ctx, http.MethodGet, "/users", nil, nil, &out)
	return out, err
}

// ReadArchive returns entries discarded by capture toggles, when the server archives them.
func (c *Client) ReadArchive(ctx context.Context, userID int64) ([]ServiceLog, error) {
	var out []ServiceLog
	err := c.do(ctx, http.MethodGet, userPath(userID, "/archive"), nil, nil, &out)
	return out, err
}

// SendPersisted writes one log through the relational store.
func (c *Client) SendPersisted(ctx context.Context, userID int64, l Log) error {
	return c.do(ctx, http.MethodPost, "/store"+userPath(userID, "/logs"), l, nil, nil)
}

// ReadPersisted reads every persisted log for userID.
func (c *Client) ReadPersisted(ctx context.Context, userID int64) ([]Entry, error) {
	var out []Entry
	err := c.do(ctx, http.MethodGet, "/store"+userPath(userID, "/logs"), nil, nil, &out)
	return out, err
}

func userPath(userID int64, suffix string) string {
	return "/users/" + strconv.FormatInt(userID, 10) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}, headers map[string]string, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
