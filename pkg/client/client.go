// Package client provides the HTTP client for the user directory API.
//
// The client performs exactly one attempt per call. Failures are returned as
// *APIError values classified as client, server, network or decode errors;
// recovery is left to the caller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/user-directory/pkg/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for directory client operations.
var (
	clientRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userdir_client_requests_total",
		Help: "Total directory API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	clientRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "userdir_client_request_duration_seconds",
		Help:    "Directory API request duration in seconds by endpoint",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"endpoint"})

	clientErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userdir_client_errors_total",
		Help: "Total directory API errors by class",
	}, []string{"class"})
)

// Endpoint paths.
const (
	PathUsers         = "/api/users"
	PathUsersByLetter = "/api/users/by-letter"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 1 << 20

// Client talks to a directory API server.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the API server, e.g. "http://localhost:8000".
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout per request. Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient overrides the default client (for testing).
	HTTPClient *http.Client
}

// DefaultConfig returns a default configuration for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "user-directory-client/0.1.0",
		Timeout:   10 * time.Second,
	}
}

// New creates a new directory client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must use http or https (got %q)", base.Scheme)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    base,
		config:     cfg,
		logger:     log.With().Str("component", "client").Logger(),
	}, nil
}

// FetchPage requests one page of users. A non-empty Letter selects the
// filtered endpoint. The response must be the wrapped {"users": [...]} object.
func (c *Client) FetchPage(ctx context.Context, req users.PageRequest) (*users.PageResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}

	path := PathUsers
	query := url.Values{}
	query.Set("page", strconv.Itoa(req.Page))
	if req.Letter != "" {
		path = PathUsersByLetter
		query.Set("letter", req.Letter)
	}

	var wire struct {
		Users *[]users.User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, path, query, nil, &wire); err != nil {
		return nil, err
	}
	if wire.Users == nil {
		return nil, c.fail(path, &APIError{
			StatusCode: http.StatusOK,
			ErrorClass: ErrorClassDecode,
			Message:    `response has no "users" array`,
		})
	}

	return &users.PageResponse{Users: *wire.Users}, nil
}

// CreateUser creates a user and returns the stored record.
func (c *Client) CreateUser(ctx context.Context, name string) (*users.User, error) {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var u users.User
	if err := c.do(ctx, http.MethodPost, PathUsers, nil, body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// do executes one request and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	startTime := time.Now()
	defer func() {
		clientRequestDuration.WithLabelValues(path).Observe(time.Since(startTime).Seconds())
	}()

	target := c.baseURL.JoinPath(path)
	target.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", target.String()).
		Msg("Executing directory request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		clientRequestsTotal.WithLabelValues(path, "network_error").Inc()
		return c.fail(path, &APIError{
			ErrorClass: c.classifyError(nil, err),
			Message:    "request failed",
			Err:        fmt.Errorf("%w: %v", ErrNetworkFailure, err),
		})
	}
	defer resp.Body.Close()

	clientRequestsTotal.WithLabelValues(path, strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.fail(path, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read response body",
			Err:        fmt.Errorf("%w: %v", ErrNetworkFailure, err),
		})
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.fail(path, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: c.classifyError(resp, nil),
			Message:    errorMessage(resp, data),
		})
	}

	if err := json.Unmarshal(data, out); err != nil {
		return c.fail(path, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "decode response body",
			Err:        err,
		})
	}

	return nil
}

func (c *Client) fail(path string, apiErr *APIError) error {
	clientErrorsTotal.WithLabelValues(string(apiErr.ErrorClass)).Inc()
	c.logger.Warn().
		Str("endpoint", path).
		Int("status", apiErr.StatusCode).
		Str("error_class", string(apiErr.ErrorClass)).
		Msg(apiErr.Message)
	return apiErr
}

// classifyError categorizes an error for observability and handling.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		// 1xx/3xx are not followed into a usable body.
		return ErrorClassServer
	}
}

// errorMessage extracts {"error": "..."} from a failure body, falling back to
// the trimmed text body or the status line.
func errorMessage(resp *http.Response, data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	if text := strings.TrimSpace(string(data)); text != "" && len(text) < 200 {
		return text
	}
	return resp.Status
}

// IsNetworkFailure reports whether err was caused by the transport.
func IsNetworkFailure(err error) bool {
	return errors.Is(err, ErrNetworkFailure)
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}
