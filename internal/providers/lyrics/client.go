package lyrics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrMissingBaseURL indicates that the client was configured without an endpoint.
var ErrMissingBaseURL = errors.New("lyrics: base url is required")

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Mozilla/5.0"
)

// Generator produces lyrics for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Options configures the lyrics provider client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *zerolog.Logger
}

// Client performs HTTP calls to the lyrics generation API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zerolog.Logger
}

// Request captures the inputs for lyrics generation. ClientIP carries the
// original caller's address for downstream attribution where supported.
type Request struct {
	Prompt   string
	ClientIP string
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	UserIP string `json:"user_ip,omitempty"`
}

type generateResponse struct {
	Success *bool  `json:"success"`
	Lyrics  string `json:"lyrics"`
	Error   string `json:"error"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

// Generate requests lyrics for the prompt. A timeout, a non-success response
// or an empty lyrics field are all reported as errors.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	payload := generateRequest{Prompt: req.Prompt, UserIP: req.ClientIP}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("lyrics: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &buf)
	if err != nil {
		return "", fmt.Errorf("lyrics: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("lyrics: call provider: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("lyrics: provider returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("lyrics: decode response: %w", err)
	}
	if out.Success != nil && !*out.Success {
		if out.Error != "" {
			return "", fmt.Errorf("lyrics: provider error: %s", out.Error)
		}
		return "", errors.New("lyrics: provider reported failure")
	}
	text := strings.TrimSpace(out.Lyrics)
	if text == "" {
		return "", errors.New("lyrics: empty lyrics in response")
	}
	if c.logger != nil {
		c.logger.Debug().Int("lyrics_len", len(text)).Msg("lyrics generated")
	}
	return text, nil
}

var _ Generator = (*Client)(nil)
