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

	"github.com/rpattn/trackgrid/internal/domain"
)

// Client fetches screen records from the tracking API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
}

type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout bounds each request. It applies to a copy of the HTTP client,
// so a client passed to WithHTTPClient is left as it was.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// New returns a client for baseURL, e.g. "http://localhost:5000/api/v1/".
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	if !strings.HasSuffix(trimmed, "/") {
		trimmed += "/"
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("api base url must be http or https, got %q", baseURL)
	}
	c := &Client{baseURL: parsed, httpClient: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 && c.httpClient.Timeout != c.timeout {
		httpClient := *c.httpClient
		httpClient.Timeout = c.timeout
		c.httpClient = &httpClient
	}
	return c, nil
}

// Fetch implements screen.Fetcher for report and list sources. Unexpected
// statuses are returned as results; only transport and decode failures are
// errors.
func (c *Client) Fetch(ctx context.Context, def domain.ScreenDefinition, params domain.FetchParams) (domain.FetchResult, error) {
	switch def.Source.Kind {
	case domain.SourceReport:
		return c.FetchReport(ctx, def.Source.ReportType, params)
	case domain.SourceList:
		return c.FetchList(ctx, def.Source.Path, params.Query)
	default:
		return domain.FetchResult{}, fmt.Errorf("screen %s: source %q is not served by the api client", def.Name, def.Source.Kind)
	}
}

type reportRequest struct {
	ReportDate string `json:"report_date,omitempty"`
}

// FetchReport posts to reports/{reportType} and decodes the "data" rows.
func (c *Client) FetchReport(ctx context.Context, reportType string, params domain.FetchParams) (domain.FetchResult, error) {
	reportType = strings.Trim(strings.TrimSpace(reportType), "/")
	if reportType == "" {
		return domain.FetchResult{}, fmt.Errorf("report type is required")
	}
	body, err := json.Marshal(reportRequest{ReportDate: params.ReportDate})
	if err != nil {
		return domain.FetchResult{}, fmt.Errorf("encode report request: %w", err)
	}
	endpoint := c.resolve("reports/"+reportType, params.Query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.FetchResult{}, fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// FetchList reads a collection endpoint such as "insights/works".
func (c *Client) FetchList(ctx context.Context, path string, query map[string]string) (domain.FetchResult, error) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return domain.FetchResult{}, fmt.Errorf("list path is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path, query), nil)
	if err != nil {
		return domain.FetchResult{}, fmt.Errorf("build list request: %w", err)
	}
	return c.do(req)
}

func (c *Client) resolve(path string, query map[string]string) string {
	ref := &url.URL{Path: path}
	if len(query) > 0 {
		values := url.Values{}
		for key, value := range query {
			values.Set(key, value)
		}
		ref.RawQuery = values.Encode()
	}
	return c.baseURL.ResolveReference(ref).String()
}

func (c *Client) do(req *http.Request) (domain.FetchResult, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.FetchResult{}, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	result := domain.FetchResult{StatusCode: resp.StatusCode}
	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return result, nil
	}
	records, err := domain.DecodeRecords(resp.Body)
	if err != nil {
		return domain.FetchResult{}, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	result.Records = records
	return result, nil
}
