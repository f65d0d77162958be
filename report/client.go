// Package report drives the report-data download: the EdgeGrid-signed HTTP
// client, the day-window paginator, and the retry pass over no-data days.
package report

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

	"github.com/akamai/AkamaiOPEN-edgegrid-golang/edgegrid"

	"github.com/aluiziolira/edgereport/edgerc"
)

// defaultHTTPClient has a safety-net timeout above the per-request context
// deadline so the context fires first.
var defaultHTTPClient = &http.Client{Timeout: 10 * time.Minute}

// httpClient abstracts HTTP operations for testing.
type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Query holds the report-data query parameters for one request.
type Query struct {
	Start    string
	End      string
	Interval string
}

// RequestBody is the JSON body of a report-data request.
type RequestBody struct {
	ObjectType string   `json:"objectType"`
	ObjectIDs  []string `json:"objectIds"`
	Metrics    []string `json:"metrics"`
	Limit      int      `json:"limit"`
}

// Client issues signed POST requests against the reporting endpoint.
type Client struct {
	baseURL    string
	auth       edgegrid.Config
	http       httpClient
	timeout    time.Duration
	metrics    *Metrics
	logHeaders bool
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c httpClient) ClientOption {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithMetrics attaches a metrics bundle.
func WithMetrics(m *Metrics) ClientOption {
	return func(cl *Client) {
		cl.metrics = m
	}
}

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// WithHeaderLogging dumps response headers at debug level.
func WithHeaderLogging(enabled bool) ClientOption {
	return func(cl *Client) {
		cl.logHeaders = enabled
	}
}

// NewClient builds a client for one report name and version.
func NewClient(creds *edgerc.Credentials, reportName string, version int, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: fmt.Sprintf("%s/reporting-api/v1/reports/%s/versions/%d/report-data",
			creds.Host, reportName, version),
		auth: edgegrid.Config{
			Host:         creds.SignHost(),
			ClientToken:  creds.ClientToken,
			ClientSecret: creds.ClientSecret,
			AccessToken:  creds.AccessToken,
			MaxBody:      131072,
		},
		http:    defaultHTTPClient,
		timeout: 120 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the report-data endpoint this client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch issues one report-data request and decodes the JSON payload. Errors
// are typed: ErrTimeout/ErrConnection for transport, StatusError for HTTP
// >= 400 (body attached), ErrEmptyBody for blank responses, NotJSONError
// when a 2xx body does not decode.
func (c *Client) Fetch(ctx context.Context, q Query, body RequestBody) (any, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	params := url.Values{}
	params.Set("start", q.Start)
	params.Set("end", q.End)
	params.Set("interval", q.Interval)

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost,
		c.baseURL+"?"+params.Encode(), bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req = edgegrid.AddRequestHeader(c.auth, req)

	c.metrics.IncRequest("started")
	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ObserveDuration(time.Since(start))
	if err != nil {
		classified := classifyTransport(err)
		c.metrics.IncError(errorTypeLabel(classified))
		return nil, classified
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		classified := classifyTransport(err)
		c.metrics.IncError(errorTypeLabel(classified))
		return nil, classified
	}

	if c.logHeaders {
		for name, values := range resp.Header {
			slog.Debug("response header", slog.String("name", name), slog.String("value", strings.Join(values, ", ")))
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.metrics.IncError("http_status")
		return nil, StatusError{Code: resp.StatusCode, Body: raw}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		c.metrics.IncError("empty_body")
		return nil, ErrEmptyBody
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var payload any
	if err := decoder.Decode(&payload); err != nil {
		c.metrics.IncError("non_json")
		return nil, NotJSONError{Err: err, Raw: raw}
	}
	return payload, nil
}
