package googlebooks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shelfmark/shelfmark-server/internal/normalize"
	"github.com/shelfmark/shelfmark-server/internal/ratelimit"
)

const (
	defaultBaseURL = "https://www.googleapis.com/books/v1"

	// Rate limit: Google allows ~100 requests per 100 seconds anonymously.
	defaultRPS   = 1.0
	defaultBurst = 3

	// HTTP client settings
	defaultTimeout = 30 * time.Second

	// API settings
	defaultNumResults = 20
	maxNumResults     = 40

	// Single upstream host, so one shared limiter key.
	limiterKey = "googlebooks"
)

// Config customizes the client. The zero value is usable.
type Config struct {
	BaseURL string // Overridden in tests to point at a fake server
	APIKey  string // Optional; anonymous requests work with tighter quotas
	Country string // Result bias, e.g. "US"
}

// Client is a rate-limited Google Books API client.
type Client struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
	baseURL string
	apiKey  string
	country string
}

// New creates a new Google Books client.
func New(cfg Config, logger *slog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		logger:  logger,
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		country: cfg.Country,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// doRequest executes an HTTP request with rate limiting.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	// Wait for rate limit
	if err := c.limiter.Wait(ctx, limiterKey); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}
	if c.country != "" {
		query.Set("country", c.country)
	}

	// Create request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Set headers
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Shelfmark/1.0")

	// Execute
	c.logger.Debug("googlebooks request", "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	// Read body
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// Check status
	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusBadRequest:
		return nil, ErrBadRequest
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

// volumeToRecord converts a raw API volume into a Volume.
// Tolerates any field being absent; only coerces what is present.
func volumeToRecord(raw *rawVolume) Volume {
	info := &raw.VolumeInfo
	return Volume{
		ExternalID:    raw.ID,
		ISBN:          selectISBN(info.IndustryIdentifiers),
		Title:         normalize.Text(info.Title),
		Subtitle:      normalize.Text(info.Subtitle),
		Authors:       normalize.Authors(info.Authors),
		Publisher:     normalize.Text(info.Publisher),
		PublishedDate: info.PublishedDate,
		Description:   stripHTML(info.Description),
		PageCount:     info.PageCount,
		Categories:    info.Categories,
		Language:      normalize.LanguageCode(info.Language),
		CoverURL:      selectCoverURL(info.ImageLinks),
		PreviewLink:   info.PreviewLink,
	}
}

// selectCoverURL picks the best available cover URL (prefer larger sizes).
func selectCoverURL(images map[string]string) string {
	for _, size := range []string{"extraLarge", "large", "medium", "small", "thumbnail", "smallThumbnail"} {
		if url, ok := images[size]; ok && url != "" {
			return url
		}
	}
	return ""
}

// selectISBN prefers ISBN-13 over ISBN-10.
func selectISBN(identifiers []rawIdentifier) string {
	var isbn10 string
	for _, id := range identifiers {
		switch id.Type {
		case "ISBN_13":
			return id.Identifier
		case "ISBN_10":
			isbn10 = id.Identifier
		}
	}
	return isbn10
}

// Raw API response types (internal)

type rawVolume struct {
	ID         string        `json:"id"`
	VolumeInfo rawVolumeInfo `json:"volumeInfo"`
}

type rawVolumeInfo struct {
	Title               string            `json:"title"`
	Subtitle            string            `json:"subtitle"`
	Authors             rawAuthors        `json:"authors"`
	Publisher           string            `json:"publisher"`
	PublishedDate       string            `json:"publishedDate"`
	Description         string            `json:"description"`
	IndustryIdentifiers []rawIdentifier   `json:"industryIdentifiers"`
	PageCount           int               `json:"pageCount"`
	Categories          []string          `json:"categories"`
	ImageLinks          map[string]string `json:"imageLinks"`
	Language            string            `json:"language"`
	PreviewLink         string            `json:"previewLink"`
}

type rawIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}
