package view

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"housefinder/server/config"
	"housefinder/server/internal/analytics"
	"housefinder/server/internal/deprivation"
	"housefinder/server/internal/enrichment"
	"housefinder/server/internal/geometry"
	"housefinder/server/internal/listing"
	"housefinder/server/internal/mapview"
	"housefinder/server/internal/models"
)

// User-facing error messages
const (
	MsgEmptyURL       = "Enter a Rightmove URL"
	MsgInvalidListing = "Invalid Rightmove URL"
	MsgFetchFailed    = "Could not load the listing, please try again"
	MsgNoListings     = "No listings available"

	markerPopup = "house1"
)

type ListingFetcher interface {
	FetchListing(ctx context.Context, rawURL string) (*listing.Page, error)
}

type Sampler interface {
	SampleRandom() (string, error)
}

type Enricher interface {
	Enrich(ctx context.Context, record *models.PropertyRecord) enrichment.Result
}

// Request is one user interaction: a submitted URL or a random pick
type Request struct {
	URL    string
	Random bool
}

// DeprivationGauge is the deprivation rank shown on a 0-32,844 scale
type DeprivationGauge struct {
	Score    int     `json:"score"`
	Max      int     `json:"max"`
	Fraction float64 `json:"fraction"`
	Label    string  `json:"label"`
	Caption  string  `json:"caption"`
}

// Dashboard is everything one render shows. The left panel is MainMap; the
// remaining fields make up the right panel.
type Dashboard struct {
	ListingURL  string              `json:"listing_url"`
	Error       string              `json:"error,omitempty"`
	Found       bool                `json:"found"`
	Heading     string              `json:"heading,omitempty"`
	Coordinates *models.Coordinates `json:"coordinates,omitempty"`
	Postcode    *string             `json:"postcode,omitempty"`
	Outcode     *string             `json:"outcode,omitempty"`
	HasGarage   bool                `json:"has_garage"`
	Deprivation *DeprivationGauge   `json:"deprivation,omitempty"`
	Description *string             `json:"description,omitempty"`
	Floorplan   *string             `json:"floorplan,omitempty"`
	Images      []string            `json:"images"`
	MainMap     *mapview.Map        `json:"main_map"`
	LocatorMap  *mapview.Map        `json:"locator_map,omitempty"`
}

// Composer runs the whole fetch, extract, enrich and render sequence for a request
type Composer struct {
	logger   *logrus.Logger
	fetcher  ListingFetcher
	pool     Sampler
	enricher Enricher
	tracker  *analytics.Tracker
	overlays []config.Overlay
	basemap  mapview.Basemap
}

func NewComposer(logger *logrus.Logger, fetcher ListingFetcher, pool Sampler, enricher Enricher, tracker *analytics.Tracker) *Composer {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Composer{
		logger:   logger,
		fetcher:  fetcher,
		pool:     pool,
		enricher: enricher,
		tracker:  tracker,
		overlays: config.Overlays(),
		basemap:  mapview.HybridBasemap,
	}
}

// Render builds a fresh dashboard. Failures end up in Dashboard.Error; the
// main map with its overlays is always present.
func (c *Composer) Render(ctx context.Context, req Request) *Dashboard {
	session := c.tracker.Start(req.URL, req.Random)
	outcome := models.OutcomeRendered
	defer func() { session.Stop(outcome) }()

	dash := &Dashboard{
		ListingURL: strings.TrimSpace(req.URL),
		Images:     []string{},
		MainMap:    mapview.New(c.basemap),
	}
	dash.MainMap.AddOverlays(c.overlays)

	if req.Random {
		sample, err := c.pool.SampleRandom()
		if err != nil {
			c.logger.WithError(err).Warn("Random listing requested from an empty pool")
			dash.Error = MsgNoListings
			outcome = models.OutcomeNoListings
			return dash
		}
		dash.ListingURL = sample
		session.SetListing(sample)
	}

	page, err := c.fetcher.FetchListing(ctx, dash.ListingURL)
	if err != nil {
		switch {
		case errors.Is(err, listing.ErrEmptyURL):
			dash.Error = MsgEmptyURL
			outcome = models.OutcomeEmptyURL
		case errors.Is(err, listing.ErrInvalidListing):
			dash.Error = MsgInvalidListing
			outcome = models.OutcomeInvalidListing
		default:
			dash.Error = MsgFetchFailed
			outcome = models.OutcomeFetchFailed
		}
		return dash
	}

	record := listing.Extract(page.Body)
	record.URL = dash.ListingURL

	c.renderMainPanel(dash, record)
	c.renderDetailPanel(ctx, dash, record)

	c.logger.WithFields(logrus.Fields{
		"url":             dash.ListingURL,
		"has_coordinates": record.Coordinates != nil,
		"has_postcode":    dash.Postcode != nil,
	}).Info("Composed dashboard")

	return dash
}

func (c *Composer) renderMainPanel(dash *Dashboard, record *models.PropertyRecord) {
	if record.Coordinates == nil {
		return
	}
	dash.MainMap.AddMarker(*record.Coordinates, markerPopup)
	dash.MainMap.ZoomToPoint(*record.Coordinates, geometry.MainPanelRadius)
}

func (c *Composer) renderDetailPanel(ctx context.Context, dash *Dashboard, record *models.PropertyRecord) {
	dash.Found = true
	dash.Coordinates = record.Coordinates
	dash.HasGarage = record.HasGarage
	dash.Description = record.Description
	dash.Floorplan = record.Floorplan
	dash.Images = record.Images

	dash.Heading = "Info"
	if record.Address != nil {
		dash.Heading = *record.Address
	}

	if record.Coordinates != nil {
		dash.LocatorMap = mapview.New(c.basemap)
		dash.LocatorMap.AddMarker(*record.Coordinates, markerPopup)
		dash.LocatorMap.ZoomToPoint(*record.Coordinates, geometry.LocatorPanelRadius)
	}

	result := c.enricher.Enrich(ctx, record)
	dash.Postcode = result.Postcode
	dash.Outcode = result.Outcode
	if result.Deprivation != nil {
		dash.Deprivation = NewDeprivationGauge(*result.Deprivation)
	}
}

// NewDeprivationGauge builds the gauge for a rank
func NewDeprivationGauge(score int) *DeprivationGauge {
	return &DeprivationGauge{
		Score:    score,
		Max:      deprivation.MaxRank,
		Fraction: float64(score) / float64(deprivation.MaxRank),
		Label:    formatThousands(score) + " / " + formatThousands(deprivation.MaxRank),
		Caption:  deprivation.Caption(score),
	}
}

// formatThousands renders n with comma thousands separators
func formatThousands(n int) string {
	return message.NewPrinter(language.BritishEnglish).Sprintf("%d", n)
}
