// Package client implements a Go client for the e-portfolio data API.
// This package is what generation-pipeline services import to fetch
// hydrated profiles, taxonomies, templates, and whole generation bundles.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eportlabs/eport-data-api/pkg/circuitbreaker"
	"github.com/eportlabs/eport-data-api/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains configuration for the data API client.
type Config struct {
	// BaseURL is the data API base URL, e.g. "http://data-api:8080".
	BaseURL string

	// AdminToken authorizes the schema refresh endpoint. Leave empty for
	// read-only consumers.
	AdminToken string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// UserAgent identifies the consumer in API logs.
	UserAgent string

	// RateLimiter controls the client-side request rate.
	RateLimiter RateLimiterConfig

	// Retry controls retries of transient failures.
	Retry retry.Config

	// Breaker is the circuit breaker guarding the API. When nil a
	// DataAPIBreaker is installed.
	Breaker *circuitbreaker.CircuitBreaker

	// Logger for structured logging.
	Logger *slog.Logger

	// Debug enables request-level debug logging.
	Debug bool
}

// DefaultConfig returns sensible defaults for one consumer service.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:     baseURL,
		Timeout:     30 * time.Second,
		UserAgent:   "eport-data-api-client/1.0",
		RateLimiter: DefaultRateLimiterConfig(),
		Retry: retry.Config{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.2,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the data API client. Safe for concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *RateLimiter
	breaker    *circuitbreaker.CircuitBreaker
	retrier    *retry.Retrier
}

// NewClient creates a new data API client.
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("client: base URL is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:  config.Logger,
		limiter: NewRateLimiter(config.RateLimiter),
		breaker: config.Breaker,
	}

	if c.breaker == nil {
		c.breaker = circuitbreaker.DataAPIBreaker(func(name string, from, to circuitbreaker.State) {
			config.Logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		})
	}

	retryConfig := config.Retry
	if retryConfig.RetryIf == nil {
		retryConfig.RetryIf = isRetryable
	}
	c.retrier = retry.FromConfig(retryConfig)

	return c, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetStudentCore fetches the scalar student record.
func (c *Client) GetStudentCore(ctx context.Context, userID string) (*StudentCore, error) {
	path := fmt.Sprintf("/v1/students/%s/core", url.PathEscape(userID))

	var core StudentCore
	if err := c.get(ctx, path, &core); err != nil {
		return nil, fmt.Errorf("get student core %s: %w", userID, err)
	}
	return &core, nil
}

// GetFullProfile fetches the hydrated profile with all nine collections.
func (c *Client) GetFullProfile(ctx context.Context, userID string) (*FullProfile, error) {
	path := fmt.Sprintf("/v1/students/%s/full-profile", url.PathEscape(userID))

	var profile FullProfile
	if err := c.get(ctx, path, &profile); err != nil {
		return nil, fmt.Errorf("get full profile %s: %w", userID, err)
	}
	return &profile, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TAXONOMY OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetRoleCore fetches the scalar role record.
func (c *Client) GetRoleCore(ctx context.Context, roleID string) (*Role, error) {
	path := fmt.Sprintf("/v1/roles/%s/core", url.PathEscape(roleID))

	var role Role
	if err := c.get(ctx, path, &role); err != nil {
		return nil, fmt.Errorf("get role core %s: %w", roleID, err)
	}
	return &role, nil
}

// GetRoleTaxonomy fetches a role with its ranked required skills.
func (c *Client) GetRoleTaxonomy(ctx context.Context, roleID string) (*RoleTaxonomy, error) {
	path := fmt.Sprintf("/v1/roles/%s/taxonomy", url.PathEscape(roleID))

	var payload roleTaxonomyPayload
	if err := c.get(ctx, path, &payload); err != nil {
		return nil, fmt.Errorf("get role taxonomy %s: %w", roleID, err)
	}
	return &RoleTaxonomy{
		Role:           payload.Role,
		RequiredSkills: payload.RequiredSkills,
	}, nil
}

// GetJDCore fetches the scalar job description record.
func (c *Client) GetJDCore(ctx context.Context, jdID string) (*JobDescription, error) {
	path := fmt.Sprintf("/v1/jds/%s/core", url.PathEscape(jdID))

	var jd JobDescription
	if err := c.get(ctx, path, &jd); err != nil {
		return nil, fmt.Errorf("get jd core %s: %w", jdID, err)
	}
	return &jd, nil
}

// GetJDTaxonomy fetches a job description with skills and responsibilities.
func (c *Client) GetJDTaxonomy(ctx context.Context, jdID string) (*JDTaxonomy, error) {
	path := fmt.Sprintf("/v1/jds/%s/taxonomy", url.PathEscape(jdID))

	var tax JDTaxonomy
	if err := c.get(ctx, path, &tax); err != nil {
		return nil, fmt.Errorf("get jd taxonomy %s: %w", jdID, err)
	}
	return &tax, nil
}

// GetEnrichedJD fetches a JD taxonomy with an optional role overlay.
// roleID may be empty; the overlay is best-effort on the server side, so
// callers must check OverlayApplied.
func (c *Client) GetEnrichedJD(ctx context.Context, jdID, roleID string) (*EnrichedJD, error) {
	path := fmt.Sprintf("/v1/jds/%s/enriched", url.PathEscape(jdID))
	if roleID != "" {
		path += "?role_id=" + url.QueryEscape(roleID)
	}

	var enriched EnrichedJD
	if err := c.get(ctx, path, &enriched); err != nil {
		return nil, fmt.Errorf("get enriched jd %s: %w", jdID, err)
	}
	return &enriched, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TEMPLATE AND BUNDLE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetTemplate fetches rendering metadata for one template.
func (c *Client) GetTemplate(ctx context.Context, templateID string) (*TemplateInfo, error) {
	path := fmt.Sprintf("/v1/templates/%s", url.PathEscape(templateID))

	var info TemplateInfo
	if err := c.get(ctx, path, &info); err != nil {
		return nil, fmt.Errorf("get template %s: %w", templateID, err)
	}
	return &info, nil
}

// GetGenerationBundle fetches all four inputs of a generation run in one
// round trip.
func (c *Client) GetGenerationBundle(ctx context.Context, req BundleRequest) (*GenerationBundle, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("get generation bundle: %w", err)
	}

	params := url.Values{}
	params.Set("user_id", req.UserID)
	params.Set("role_id", req.RoleID)
	params.Set("jd_id", req.JDID)
	params.Set("template_id", req.TemplateID)

	var bundle GenerationBundle
	if err := c.get(ctx, "/v1/bundles/generation?"+params.Encode(), &bundle); err != nil {
		return nil, fmt.Errorf("get generation bundle: %w", err)
	}
	return &bundle, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// RefreshSchema triggers an immediate schema registry refresh. Requires
// AdminToken to be configured.
func (c *Client) RefreshSchema(ctx context.Context) (*SchemaRefreshResult, error) {
	if c.config.AdminToken == "" {
		return nil, fmt.Errorf("refresh schema: admin token not configured")
	}

	var result SchemaRefreshResult
	if err := c.do(ctx, http.MethodPost, "/v1/admin/schema/refresh", &result); err != nil {
		return nil, fmt.Errorf("refresh schema: %w", err)
	}
	return &result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH AND STATUS
// ══════════════════════════════════════════════════════════════════════════════

// IsHealthy reports whether the data API answers its health endpoint.
// Bypasses the retry and breaker layers: a health probe must observe the
// API as it is right now.
func (c *Client) IsHealthy(ctx context.Context) bool {
	var status HealthStatus
	err := c.doSingleRequest(ctx, http.MethodGet, "/health", &status)
	return err == nil && status.Healthy
}

// ClientStatus is a point-in-time view of the client's protective layers.
type ClientStatus struct {
	RateLimiter   RateLimiterStatus
	BreakerState  circuitbreaker.State
	BreakerCounts circuitbreaker.Counts
}

// Status returns the current client state.
func (c *Client) Status() ClientStatus {
	return ClientStatus{
		RateLimiter:   c.limiter.Status(),
		BreakerState:  c.breaker.State(),
		BreakerCounts: c.breaker.Counts(),
	}
}

// Reset restores the rate limiter and circuit breaker to their initial
// state. Useful in tests and after maintenance windows.
func (c *Client) Reset() {
	c.limiter.Reset()
	c.breaker.Reset()
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// get performs a GET request through the breaker, retrier, and limiter.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, result)
}

// do performs a request with circuit breaking, retries, and rate limiting.
// The breaker wraps the whole retry loop so one exhausted request counts
// as one failure, not one per attempt.
func (c *Client) do(ctx context.Context, method, path string, result interface{}) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			if err := c.limiter.Allow(ctx); err != nil {
				return err
			}

			err := c.doSingleRequest(ctx, method, path, result)

			var rateLimited *RateLimitError
			if errors.As(err, &rateLimited) {
				c.limiter.RecordRateLimitHit(rateLimited.RetryAfter)
			}
			return err
		})
	})
}

// doSingleRequest performs a single HTTP request and decodes the envelope.
func (c *Client) doSingleRequest(ctx context.Context, method, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.AdminToken != "" {
		req.Header.Set("X-Admin-Token", c.config.AdminToken)
	}

	if c.config.Debug {
		c.logger.Debug("data api request", slog.String("method", method), slog.String("path", path))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 60 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return &RateLimitError{
			RetryAfter: retryAfter,
			Message:    "rate limited by data api",
		}
	}

	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode envelope: status %d: %w", resp.StatusCode, err)
	}

	if !envelope.Success {
		if envelope.Error != nil {
			envelope.Error.StatusCode = resp.StatusCode
			envelope.Error.RequestID = envelope.RequestID
			return envelope.Error
		}
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}

	if result != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, result); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR CLASSIFICATION
// ══════════════════════════════════════════════════════════════════════════════

// isRetryable reports whether a request error is worth another attempt.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var rateLimited *RateLimitError
	if errors.As(err, &rateLimited) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "warehouse_unavailable", "timeout", "canceled":
			return true
		}
		// 502/503/504 come from intermediaries; the API's own 500s
		// (schema mismatch, query syntax, configuration) are fatal.
		switch apiErr.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	// Transport errors (refused connections, resets, timeouts) surface as
	// url.Error and are generally transient.
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// IsNotFound reports whether the error is the API's not-found answer.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == "not_found"
}

// IsInvalidRequest reports whether the API rejected the request as
// malformed.
func IsInvalidRequest(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == "invalid_request"
}

// IsUnavailable reports whether the API or its warehouse was unavailable.
func IsUnavailable(err error) bool {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable
}
