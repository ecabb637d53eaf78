package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"housefinder/server/internal/cache"
	"housefinder/server/internal/postcode"
)

const cacheNamespace = "reverse_geocode"

// Geocoder resolves coordinates to the nearest full postcode using postcodes.io
type Geocoder struct {
	logger    *logrus.Logger
	baseURL   string
	userAgent string
	memo      *cache.Memo[*string]
	client    *http.Client
	timeout   time.Duration
}

func NewGeocoder(logger *logrus.Logger, store cache.Store, baseURL, userAgent string, timeout time.Duration) *Geocoder {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Geocoder{
		logger:    logger,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		memo:      cache.NewMemo[*string](store, cacheNamespace, logger),
		client:    &http.Client{Timeout: timeout},
		timeout:   timeout,
	}
}

type postcodesResponse struct {
	Status int `json:"status"`
	Result []struct {
		Postcode string `json:"postcode"`
	} `json:"result"`
}

// ReverseGeocode returns the postcode nearest to (lon, lat), or nil when the
// service has no answer or cannot be reached.
func (g *Geocoder) ReverseGeocode(ctx context.Context, lon, lat float64) *string {
	key := strconv.FormatFloat(lon, 'f', -1, 64) + "|" + strconv.FormatFloat(lat, 'f', -1, 64)

	// Concurrent renders share this call, so one caller going away must not fail the others
	return g.memo.Do(key, func() (*string, bool) {
		found, err := g.lookup(context.WithoutCancel(ctx), lon, lat)
		if err != nil {
			g.logger.WithError(err).WithFields(logrus.Fields{
				"longitude": lon,
				"latitude":  lat,
			}).Warn("Reverse geocoding failed")
			return nil, false
		}
		return found, true
	})
}

// lookup returns an error only for failures worth retrying on a later render
func (g *Geocoder) lookup(ctx context.Context, lon, lat float64) (*string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := url.Values{
		"lon": []string{strconv.FormatFloat(lon, 'f', -1, 64)},
		"lat": []string{strconv.FormatFloat(lat, 'f', -1, 64)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/postcodes?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.WithFields(logrus.Fields{
			"longitude": lon,
			"latitude":  lat,
			"status":    resp.StatusCode,
		}).Warn("Geocoding service returned non-200 status")
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("geocoding service unavailable: status %d", resp.StatusCode)
		}
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result postcodesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Result) == 0 || strings.TrimSpace(result.Result[0].Postcode) == "" {
		g.logger.WithFields(logrus.Fields{
			"longitude": lon,
			"latitude":  lat,
		}).Info("No postcode found for coordinates")
		return nil, nil
	}

	found := postcode.Normalize(result.Result[0].Postcode)

	g.logger.WithFields(logrus.Fields{
		"longitude": lon,
		"latitude":  lat,
		"postcode":  found,
		"source":    "postcodes.io",
	}).Info("Successfully reverse geocoded coordinates")

	return &found, nil
}
