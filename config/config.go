package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Server struct {
		Port string `env:"PORT" envDefault:"5250"`

		// gin mode: debug, release or test
		GinMode string `env:"GIN_MODE" envDefault:"release"`

		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	}

	Listing struct {
		// Pre-filled value of the listing URL input
		DefaultURL string `env:"LISTING_DEFAULT_URL" envDefault:"https://www.rightmove.co.uk/properties/118322783#/"`

		// Search results page scraped once at startup to build the random listing pool
		SearchURL string `env:"LISTING_SEARCH_URL" envDefault:"https://www.rightmove.co.uk/property-for-sale/find.html?searchType=SALE&locationIdentifier=REGION%5E1290&insId=1&radius=0.0&minPrice=&maxPrice=325000&minBedrooms=&maxBedrooms=3&displayPropertyType=&maxDaysSinceAdded=&_includeSSTC=on&sortByPriceDescending=&primaryDisplayPropertyType=&secondaryDisplayPropertyType=&oldDisplayPropertyType=&oldPrimaryDisplayPropertyType=&newHome=&auction=false"`

		// Prefix for the relative links found on the search results page
		BaseURL string `env:"LISTING_BASE_URL" envDefault:"https://www.rightmove.co.uk"`

		NotFoundPhrase string `env:"LISTING_NOT_FOUND_PHRASE" envDefault:"we’re sorry, we couldn’t find the property"`

		UserAgent string `env:"HTTP_USER_AGENT" envDefault:"Housefinder Property Dashboard/1.0"`

		// Cap on requests to the listing site; 0 disables the cap
		RequestsPerSecond float64 `env:"LISTING_REQUESTS_PER_SECOND" envDefault:"2"`
	}

	Lookups struct {
		GeocoderURL    string `env:"GEOCODER_URL" envDefault:"https://api.postcodes.io"`
		DeprivationURL string `env:"DEPRIVATION_URL" envDefault:"https://www.doogal.co.uk"`

		// Upper bound for every outbound call (in seconds)
		TimeoutSeconds int `env:"LOOKUP_TIMEOUT_SECONDS" envDefault:"10"`
	}

	Cache struct {
		// sqlite file for memoized lookups; empty keeps them in memory for the process lifetime
		Path string `env:"LOOKUP_CACHE_PATH"`
	}

	Analytics struct {
		Enabled bool `env:"ANALYTICS_ENABLED" envDefault:"true"`

		// Number of event batches buffered before pushes are rejected
		QueueSize int `env:"ANALYTICS_QUEUE_SIZE" envDefault:"100"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"ANALYTICS_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"ANALYTICS_RETRY_DELAY" envDefault:"1"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LookupTimeout returns the per-call timeout for outbound requests
func (c *Config) LookupTimeout() time.Duration {
	if c.Lookups.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Lookups.TimeoutSeconds) * time.Second
}
