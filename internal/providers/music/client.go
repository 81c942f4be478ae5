package music

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
var ErrMissingBaseURL = errors.New("music: base url is required")

const (
	defaultTimeout = 180 * time.Second
	userAgent      = "Mozilla/5.0"
)

// Generator renders a song from a prompt and its lyrics.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Song, error)
}

// Options configures the music provider client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *zerolog.Logger
}

// Client performs HTTP calls to the music generation API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zerolog.Logger
}

// Request captures the inputs for music generation. Title is optional and
// ignored by providers that do not support it.
type Request struct {
	Prompt string
	Lyrics string
	Title  string
}

// Song is the normalized result from the music API.
type Song struct {
	MusicURL     string
	ThumbnailURL string
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Lyrics string `json:"lyrics"`
	Title  string `json:"title,omitempty"`
}

type generateResponse struct {
	Success      *bool  `json:"success"`
	MusicURL     string `json:"music_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Error        string `json:"error"`
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

// Generate requests a rendered song. A timeout, a non-success response or a
// missing music URL are all reported as errors; the thumbnail is optional.
func (c *Client) Generate(ctx context.Context, req Request) (*Song, error) {
	payload := generateRequest{Prompt: req.Prompt, Lyrics: req.Lyrics, Title: req.Title}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("music: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("music: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("music: call provider: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("music: provider returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("music: decode response: %w", err)
	}
	if out.Success != nil && !*out.Success {
		if out.Error != "" {
			return nil, fmt.Errorf("music: provider error: %s", out.Error)
		}
		return nil, errors.New("music: provider reported failure")
	}
	musicURL := strings.TrimSpace(out.MusicURL)
	if musicURL == "" {
		return nil, errors.New("music: empty music_url in response")
	}
	if c.logger != nil {
		c.logger.Debug().Str("music_url", musicURL).Msg("music generated")
	}
	return &Song{MusicURL: musicURL, ThumbnailURL: strings.TrimSpace(out.ThumbnailURL)}, nil
}

var _ Generator = (*Client)(nil)
