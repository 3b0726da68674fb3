package searchapi

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
	"go.uber.org/zap"

	"shopsearch/internal/domain"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 8 << 20

// Client is an HTTP client for the conversational search backend.
type Client struct {
	baseURL    string
	searchPath string
	client     *http.Client
	logger     *zap.Logger
}

// Config configures the search backend client.
type Config struct {
	BaseURL    string
	SearchPath string
	// Timeout bounds each request; zero disables the client-side deadline.
	Timeout time.Duration
}

// NewClient creates a new search client using the provided configuration.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://127.0.0.1:8002"
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", cfg.BaseURL)
	}
	if cfg.SearchPath == "" {
		cfg.SearchPath = "/search"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		searchPath: "/" + strings.TrimLeft(cfg.SearchPath, "/"),
		client:     &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// Search posts req to the search endpoint. No retries are attempted.
func (c *Client) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}
	payload, err := c.do(ctx, http.MethodPost, c.baseURL+c.searchPath, data)
	if err != nil {
		return nil, err
	}
	var out domain.SearchResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, &domain.MalformedResponseError{Reason: "decode body", Err: err}
	}
	return &out, nil
}

// SessionInfo fetches the backend's view of a session. A 404 maps to
// domain.ErrSessionNotFound.
func (c *Client) SessionInfo(ctx context.Context, sessionID string) (*domain.SessionInfo, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionNotFound
	}
	endpoint := c.baseURL + "/session/" + url.PathEscape(sessionID)
	payload, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		var se *domain.ServerError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
		}
		return nil, err
	}
	var out domain.SessionInfo
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, &domain.MalformedResponseError{Reason: "decode session info", Err: err}
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.Error(err))
		return nil, &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}
	c.logger.Debug("response received",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.ServerError{StatusCode: resp.StatusCode, Detail: extractDetail(payload)}
	}
	return payload, nil
}

// extractDetail returns the "detail" field of an error body when it is a
// string. Structured details (validation error lists) are not surfaced.
func extractDetail(payload []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err != nil {
		return ""
	}
	return strings.TrimSpace(detail)
}
