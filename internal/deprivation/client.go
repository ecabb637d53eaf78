package deprivation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"housefinder/server/internal/cache"
)

const (
	// MaxRank is the number of ranked areas in the English Indices of Deprivation 2019
	MaxRank = 32844

	// CaptionThreshold splits the two gauge captions; scores at or below it get the first
	CaptionThreshold = 18000

	denominator    = "/ 32,844"
	cacheNamespace = "deprivation"
)

var rankPattern = regexp.MustCompile(`([0-9][0-9,]*)\s*/\s*32,844`)

// Client looks up the Index of Multiple Deprivation rank for a full postcode
type Client struct {
	logger    *logrus.Logger
	baseURL   string
	userAgent string
	memo      *cache.Memo[*int]
	client    *http.Client
	timeout   time.Duration
}

func NewClient(logger *logrus.Logger, store cache.Store, baseURL, userAgent string, timeout time.Duration) *Client {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		logger:    logger,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		memo:      cache.NewMemo[*int](store, cacheNamespace, logger),
		client:    &http.Client{Timeout: timeout},
		timeout:   timeout,
	}
}

// LookupDeprivation returns the rank for postcode, or nil when the page holds
// no rank, more than one, or cannot be fetched.
func (c *Client) LookupDeprivation(ctx context.Context, postcode string) *int {
	postcode = strings.ToLower(strings.TrimSpace(postcode))
	if postcode == "" {
		return nil
	}

	return c.memo.Do(postcode, func() (*int, bool) {
		body, err := c.fetch(context.WithoutCancel(ctx), postcode)
		if err != nil {
			c.logger.WithError(err).WithField("postcode", postcode).Warn("Deprivation lookup failed")
			return nil, false
		}
		if body == nil {
			return nil, true
		}

		rank := ParseRank(body)
		if rank == nil {
			c.logger.WithField("postcode", postcode).Info("No unambiguous deprivation rank on page")
		} else {
			c.logger.WithFields(logrus.Fields{
				"postcode": postcode,
				"rank":     *rank,
			}).Info("Found deprivation rank")
		}
		return rank, true
	})
}

// fetch returns a nil body for definitive non-200 answers
func (c *Client) fetch(ctx context.Context, postcode string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{"postcode": []string{postcode}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ShowMap.php?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deprivation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("deprivation service unavailable: status %d", resp.StatusCode)
		}
		c.logger.WithFields(logrus.Fields{
			"postcode": postcode,
			"status":   resp.StatusCode,
		}).Warn("Deprivation service returned non-200 status")
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// ParseRank finds the single "<rank> / 32,844" occurrence in a page. Zero or
// several occurrences yield nil.
func ParseRank(body []byte) *int {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var (
		matches   int
		candidate string
	)
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		s.Contents().Each(func(_ int, n *goquery.Selection) {
			if goquery.NodeName(n) != "#text" {
				return
			}
			text := n.Text()
			if count := strings.Count(text, denominator); count > 0 {
				matches += count
				candidate = text
			}
		})
	})

	if matches != 1 {
		return nil
	}

	match := rankPattern.FindStringSubmatch(candidate)
	if match == nil {
		return nil
	}

	rank, err := strconv.Atoi(strings.ReplaceAll(match[1], ",", ""))
	if err != nil || rank < 1 || rank > MaxRank {
		return nil
	}
	return &rank
}

// Caption describes a rank for the gauge
func Caption(rank int) string {
	if rank <= CaptionThreshold {
		return "The Index of Multiple Deprivation is below 18,000. The area ranks among the more deprived half of neighbourhoods in England."
	}
	return "The Index of Multiple Deprivation is above 18,000. Please note that this is a loose proxy for access to local amenities and should be considered alongside other factors."
}
