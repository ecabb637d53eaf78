package listing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ListingLinkSelector matches the property cards on a search results page
const ListingLinkSelector = "a.propertyCard-link"

var ErrNoListings = errors.New("no listings available")

// Pool is the read-only set of listing URLs used for random sampling
type Pool struct {
	listings []string
}

// NewPool deduplicates urls into a pool
func NewPool(urls []string) *Pool {
	seen := make(map[string]bool, len(urls))
	listings := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		listings = append(listings, u)
	}
	sort.Strings(listings)

	return &Pool{listings: listings}
}

// LoadPool scrapes one search results page. It performs a network round trip
// and is meant to be called once per process.
func LoadPool(ctx context.Context, fetcher *Fetcher, searchURL, baseURL string) (*Pool, error) {
	page, err := fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return NewPool(nil), fmt.Errorf("failed to fetch search results: %w", err)
	}

	links, err := ExtractListingLinks(page.Body, baseURL)
	if err != nil {
		return NewPool(nil), fmt.Errorf("failed to parse search results: %w", err)
	}

	pool := NewPool(links)
	fetcher.logger.WithField("listings", pool.Len()).Info("Loaded random listing pool")
	return pool, nil
}

// ExtractListingLinks returns the absolute listing URLs found on a search results page
func ExtractListingLinks(body []byte, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find(ListingLinkSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		links = append(links, base.ResolveReference(ref).String())
	})

	return links, nil
}

// SampleRandom picks a listing uniformly at random
func (p *Pool) SampleRandom() (string, error) {
	if p == nil || len(p.listings) == 0 {
		return "", ErrNoListings
	}
	return p.listings[rand.Intn(len(p.listings))], nil
}

func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.listings)
}

// Listings returns a copy of the pool contents
func (p *Pool) Listings() []string {
	if p == nil {
		return nil
	}
	listings := make([]string, len(p.listings))
	copy(listings, p.listings)
	return listings
}
