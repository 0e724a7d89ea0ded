package provider

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

	"github.com/mstgnz/thaipay/model"
)

// maxResponseBody caps how much of a provider response is read.
const maxResponseBody = 1 << 20

// HTTPClientConfig represents configuration for HTTP client
type HTTPClientConfig struct {
	Provider       model.ProviderType
	Timeout        time.Duration
	DefaultHeaders map[string]string
}

// HTTPRequest represents a standardized HTTP request
type HTTPRequest struct {
	Method      string
	URL         string
	Headers     map[string]string
	Body        any
	QueryParams map[string]string
}

// HTTPResponse represents a standardized HTTP response
type HTTPResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// HTTPClient performs the outbound calls of keyed providers.
type HTTPClient struct {
	config HTTPClientConfig
	client *http.Client
}

// NewHTTPClient creates a client bounded by config.Timeout.
func NewHTTPClient(config HTTPClientConfig) *HTTPClient {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &HTTPClient{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// NewClientFor creates the standard client of a provider.
func NewClientFor(p model.ProviderType, opts Options) *HTTPClient {
	return NewHTTPClient(HTTPClientConfig{
		Provider: p,
		Timeout:  opts.timeout(),
		DefaultHeaders: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "ThaiPay/1.0",
		},
	})
}

// SendJSON posts req.Body as JSON. A []byte or json.RawMessage body is sent
// verbatim so callers can sign exactly what goes on the wire.
func (c *HTTPClient) SendJSON(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error) {
	var body io.Reader
	switch b := req.Body.(type) {
	case nil:
	case []byte:
		body = bytes.NewReader(b)
	case json.RawMessage:
		body = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, &Error{Provider: c.config.Provider, Message: "marshal request", Err: err}
		}
		body = bytes.NewReader(data)
	}

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, buildURL(req.URL, req.QueryParams), body)
	if err != nil {
		return nil, &Error{Provider: c.config.Provider, Message: "create request", Err: err}
	}
	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Provider: c.config.Provider, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &Error{Provider: c.config.Provider, StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}

	response := &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return response, &Error{
			Provider:   c.config.Provider,
			StatusCode: resp.StatusCode,
			Message:    truncate(string(respBody), 256),
		}
	}

	return response, nil
}

// PostJSON sends body and decodes the JSON response into target.
func (c *HTTPClient) PostJSON(ctx context.Context, url string, headers map[string]string, body, target any) (json.RawMessage, error) {
	resp, err := c.SendJSON(ctx, &HTTPRequest{URL: url, Headers: headers, Body: body})
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resp.Body, target); err != nil {
		return nil, &Error{Provider: c.config.Provider, StatusCode: resp.StatusCode, Message: "invalid JSON response", Err: err}
	}
	return json.RawMessage(resp.Body), nil
}

func buildURL(rawURL string, queryParams map[string]string) string {
	if len(queryParams) == 0 {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for key, value := range queryParams {
		q.Set(key, value)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// JoinURL joins a base URL and an endpoint path with a single slash.
func JoinURL(base, endpoint string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(endpoint, "/")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
