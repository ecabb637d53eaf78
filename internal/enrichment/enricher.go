package enrichment

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"housefinder/server/internal/models"
)

type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lon, lat float64) *string
}

type DeprivationLookup interface {
	LookupDeprivation(ctx context.Context, postcode string) *int
}

type OutcodeDeriver interface {
	DeriveOutcode(address string) *string
}

// Result holds the enrichment of a single listing. Any field may be nil.
type Result struct {
	Postcode    *string `json:"postcode"`
	Outcode     *string `json:"outcode"`
	Deprivation *int    `json:"deprivation"`
}

// Enricher runs the external lookups for one render cycle
type Enricher struct {
	logger      *logrus.Logger
	geocoder    ReverseGeocoder
	deprivation DeprivationLookup
	outcodes    OutcodeDeriver
}

func NewEnricher(logger *logrus.Logger, geocoder ReverseGeocoder, deprivation DeprivationLookup, outcodes OutcodeDeriver) *Enricher {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Enricher{
		logger:      logger,
		geocoder:    geocoder,
		deprivation: deprivation,
		outcodes:    outcodes,
	}
}

// Enrich resolves the postcode from the coordinates and, with it, the
// deprivation rank. Only when no postcode is found is the coarser outcode
// derived from the address; the outcode never feeds the deprivation lookup.
func (e *Enricher) Enrich(ctx context.Context, record *models.PropertyRecord) Result {
	var result Result
	if record == nil {
		return result
	}

	if record.Coordinates != nil {
		result.Postcode = e.geocoder.ReverseGeocode(ctx, record.Coordinates.Longitude, record.Coordinates.Latitude)
	}

	if result.Postcode != nil {
		result.Deprivation = e.deprivation.LookupDeprivation(ctx, *result.Postcode)
	} else if record.Address != nil {
		result.Outcode = e.outcodes.DeriveOutcode(*record.Address)
	}

	e.logger.WithFields(logrus.Fields{
		"url":             record.URL,
		"has_postcode":    result.Postcode != nil,
		"has_outcode":     result.Outcode != nil,
		"has_deprivation": result.Deprivation != nil,
	}).Debug("Enriched listing")

	return result
}
