package models

import "time"

// Marketplace identifies the source site a listing was found on.
type Marketplace string

const (
	MarketplaceEBay   Marketplace = "eBay"
	MarketplaceReverb Marketplace = "Reverb"
)

// Listing is one normalized gear offer, produced fresh per fetch.
// Year is 0 when no plausible manufacture year was found in the title;
// when set it is always within the 1920–1979 vintage band.
type Listing struct {
	Marketplace Marketplace `json:"marketplace"`
	Title       string      `json:"title"`
	Price       float64     `json:"price"`
	Currency    string      `json:"currency"`
	Condition   string      `json:"condition"`
	URL         string      `json:"url"`
	ImageURL    string      `json:"image_url"`
	Location    string      `json:"location"`
	Year        int         `json:"year,omitempty"`
	ScrapedAt   time.Time   `json:"scraped_at"`
}

// SearchCriteria drives one aggregation run. It is owned by the config
// layer; the core only reads it.
type SearchCriteria struct {
	// SearchTerms are queried in order; order determines accumulation order.
	SearchTerms []string `json:"search_terms"`
	MaxYear     int      `json:"max_year"`
	// MaxPricePercentage is part of the configuration schema ("don't pay
	// more than X% of market value") but the price rule applies a fixed
	// absolute ceiling instead. Kept so saved configs round-trip.
	MaxPricePercentage float64 `json:"max_price_percentage"`
	MinCondition       string  `json:"min_condition"`
}
