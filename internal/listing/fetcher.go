package listing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultNotFoundPhrase is shown by the listing site instead of a removed or unknown property.
// The match depends on third-party wording and breaks silently if the site rephrases it.
const DefaultNotFoundPhrase = "we’re sorry, we couldn’t find the property"

const maxPageBytes = 8 * 1024 * 1024

var (
	ErrEmptyURL       = errors.New("listing URL is empty")
	ErrInvalidListing = errors.New("invalid listing URL")
)

// Page is the raw response for one listing or search page
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Fetcher performs single-attempt GET requests against the listing site
type Fetcher struct {
	logger         *logrus.Logger
	client         *http.Client
	userAgent      string
	notFoundPhrase string
	limiter        *rate.Limiter
}

func NewFetcher(logger *logrus.Logger, userAgent, notFoundPhrase string, timeout time.Duration) *Fetcher {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if notFoundPhrase == "" {
		notFoundPhrase = DefaultNotFoundPhrase
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Fetcher{
		logger:         logger,
		client:         &http.Client{Timeout: timeout},
		userAgent:      userAgent,
		notFoundPhrase: notFoundPhrase,
	}
}

// SetRateLimit caps outgoing requests to the listing site. Zero or less
// removes the cap.
func (f *Fetcher) SetRateLimit(requestsPerSecond float64) {
	if requestsPerSecond <= 0 {
		f.limiter = nil
		return
	}
	f.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
}

// Fetch downloads a page without interpreting it
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrEmptyURL
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.WithError(err).WithField("url", rawURL).Error("Listing request failed")
		return nil, fmt.Errorf("listing request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		f.logger.WithError(err).WithField("url", rawURL).Error("Failed to read response")
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		f.logger.WithFields(logrus.Fields{
			"url":    rawURL,
			"status": resp.StatusCode,
		}).Warn("Unexpected status from listing site")
	}

	return &Page{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// FetchListing downloads a listing page and rejects the site's "not found" page
func (f *Fetcher) FetchListing(ctx context.Context, rawURL string) (*Page, error) {
	page, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if page.IsNotFound(f.notFoundPhrase) {
		f.logger.WithField("url", page.URL).Info("Listing page reports property not found")
		return nil, ErrInvalidListing
	}

	return page, nil
}

// IsNotFound reports whether the page is the site's "property not found" page
func (p *Page) IsNotFound(phrase string) bool {
	return ContainsPhrase(p.Body, phrase)
}

// ContainsPhrase reports whether body contains phrase, ignoring case
func ContainsPhrase(body []byte, phrase string) bool {
	if phrase == "" {
		return false
	}
	return bytes.Contains(bytes.ToLower(body), bytes.ToLower([]byte(phrase)))
}
