package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"volScope/internal/fetch"
	"volScope/internal/model"
)

const (
	// DefaultURL is the hosted Uniswap v3 subgraph.
	DefaultURL = "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v3"

	// DefaultPageSize is the largest page the graph node serves.
	DefaultPageSize = 1000

	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// Client queries a Uniswap v3 subgraph over HTTP.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
	retry      fetch.Retry
	pageSize   int
	tickChunk  int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a subgraph client. An empty url selects DefaultURL.
func NewClient(url string, opts ...ClientOption) *Client {
	if strings.TrimSpace(url) == "" {
		url = DefaultURL
	}
	c := &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger:   zap.NewNop(),
		pageSize: DefaultPageSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithAPIKey sends key as a bearer token.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetries retries transport failures up to max times. Zero disables retries.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.retry = fetch.Retry{MaxRetries: max, BaseDelay: backoff}
	}
}

// WithPageSize sets the number of ticks requested per page.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithTickChunk splits tick windows into chunks of at most n ticks. Zero fetches the
// window as one chunk.
func WithTickChunk(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.tickChunk = n
		}
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// query posts a GraphQL document and decodes its data member into out.
func (c *Client) query(ctx context.Context, name, document string, variables map[string]any, out any) error {
	payload, err := json.Marshal(graphQLRequest{Query: document, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode %s query: %w", name, err)
	}

	var data json.RawMessage
	err = c.retry.Do(ctx, func(ctx context.Context) error {
		var postErr error
		data, postErr = c.post(ctx, name, payload)
		if postErr != nil && fetch.Retryable(postErr) {
			c.logger.Warn("subgraph request failed", zap.String("query", name), zap.Error(postErr))
		}
		return postErr
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s data: %w: %v", name, model.ErrDataUnavailable, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, name string, payload []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w: %v", name, model.ErrUpstreamUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s query: %w: %w", name, model.ErrUpstreamUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w: %w", name, model.ErrUpstreamUnreachable, err)
	}

	c.logger.Debug("subgraph response",
		zap.String("query", name),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s query status %d: %w: %s", name, resp.StatusCode, model.ErrUpstreamUnreachable, truncate(body))
	}

	var out graphQLResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w: %v", name, model.ErrDataUnavailable, err)
	}
	if len(out.Errors) > 0 {
		messages := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			messages = append(messages, e.Message)
		}
		return nil, fmt.Errorf("%s query: %w: %s", name, model.ErrDataUnavailable, strings.Join(messages, "; "))
	}
	if len(out.Data) == 0 || string(out.Data) == "null" {
		return nil, fmt.Errorf("%s query returned no data: %w", name, model.ErrDataUnavailable)
	}
	return out.Data, nil
}

func truncate(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		return text[:maxErrorBody] + "..."
	}
	return text
}
