// Package reverb implements the Reverb marketplace adapter: the listings
// API when a token is configured, the marketplace search page otherwise or
// on API failure. The search page renders client-side, so the HTML path can
// run through a rendered-document fetcher.
package reverb

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/kh40/Vintage-Gear-Finder/models"
	"github.com/kh40/Vintage-Gear-Finder/scraper"
	"github.com/kh40/Vintage-Gear-Finder/scraper/fetch"
	"github.com/kh40/Vintage-Gear-Finder/utils"
)

const (
	defaultAPIURL    = "https://reverb.com/api/listings"
	defaultSearchURL = "https://reverb.com/marketplace"
	defaultLinkBase  = "https://reverb.com"

	apiPageSize  = 50
	maxHTMLItems = 50
)

var usedConditions = []string{"used", "b_stock", "fair", "good", "very_good", "excellent", "mint"}

// Adapter fetches Reverb listings for one search term at a time.
type Adapter struct {
	apiToken  func() string
	client    *fetch.Client
	documents fetch.DocumentFetcher
	logger    *utils.Logger

	apiURL    string
	searchURL string
	linkBase  string
}

// Options configures the adapter. APIToken is read per fetch so dashboard
// credential updates take effect without a restart.
type Options struct {
	APIToken  func() string
	Client    *fetch.Client
	Documents fetch.DocumentFetcher // defaults to Client; set a Renderer for client-side pages
	Logger    *utils.Logger
	APIURL    string
	SearchURL string
	LinkBase  string
}

// New creates a Reverb Adapter.
func New(opts Options) *Adapter {
	a := &Adapter{
		apiToken:  opts.APIToken,
		client:    opts.Client,
		documents: opts.Documents,
		logger:    opts.Logger.WithComponent("reverb"),
		apiURL:    opts.APIURL,
		searchURL: opts.SearchURL,
		linkBase:  opts.LinkBase,
	}
	if a.apiToken == nil {
		a.apiToken = func() string { return "" }
	}
	if a.documents == nil {
		a.documents = opts.Client
	}
	if a.apiURL == "" {
		a.apiURL = defaultAPIURL
	}
	if a.searchURL == "" {
		a.searchURL = defaultSearchURL
	}
	if a.linkBase == "" {
		a.linkBase = defaultLinkBase
	}
	return a
}

// Marketplace identifies this adapter.
func (a *Adapter) Marketplace() models.Marketplace { return models.MarketplaceReverb }

// Fetch returns normalized listings for a search term, preferring the API
// and falling back to the search page on any request or parse failure.
func (a *Adapter) Fetch(ctx context.Context, term string) ([]models.Listing, error) {
	if token := a.apiToken(); token != "" {
		listings, err := a.fetchAPI(ctx, term, token)
		if err == nil {
			return listings, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Error("API request failed for %q: %v — falling back to HTML", term, err)
	}

	listings, err := a.fetchHTML(ctx, term)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Error("HTML scraping failed for %q: %v", term, err)
		return []models.Listing{}, nil
	}
	return listings, nil
}

type apiResponse struct {
	Listings []apiListing `json:"listings"`
}

type apiListing struct {
	Title string `json:"title"`
	Price struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"price"`
	Condition struct {
		DisplayName string `json:"display_name"`
	} `json:"condition"`
	Links struct {
		Web struct {
			Href string `json:"href"`
		} `json:"web"`
	} `json:"_links"`
	Photos []struct {
		Links struct {
			Large struct {
				Href string `json:"href"`
			} `json:"large"`
		} `json:"_links"`
	} `json:"photos"`
	Shipping struct {
		OriginCountryCode string `json:"origin_country_code"`
	} `json:"shipping"`
}

func (a *Adapter) fetchAPI(ctx context.Context, term, token string) ([]models.Listing, error) {
	params := url.Values{
		"query":           {term},
		"condition":       {strings.Join(usedConditions, ",")},
		"shipping_region": {"US"},
		"per_page":        {strconv.Itoa(apiPageSize)},
		"page":            {"1"},
	}
	headers := map[string]string{
		"Authorization": "Bearer " + token,
		"Accept":        "application/hal+json",
	}

	var resp apiResponse
	if err := a.client.GetJSON(ctx, a.apiURL, params, headers, &resp); err != nil {
		return nil, err
	}

	listings := make([]models.Listing, 0, len(resp.Listings))
	for _, item := range resp.Listings {
		listing, ok := a.normalizeAPIItem(item)
		if !ok {
			a.logger.Warn("Skipping malformed API item for %q", term)
			continue
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

func (a *Adapter) normalizeAPIItem(item apiListing) (models.Listing, bool) {
	if item.Title == "" {
		return models.Listing{}, false
	}

	// The API reports amounts in minor units (cents). An amount that is
	// present but unparsable marks the whole item as malformed.
	price := 0.0
	if item.Price.Amount != "" {
		v, err := strconv.ParseFloat(item.Price.Amount, 64)
		if err != nil {
			return models.Listing{}, false
		}
		if v >= 0 {
			price = v / 100
		}
	}

	currency := item.Price.Currency
	if currency == "" {
		currency = "USD"
	}

	condition := models.ConditionUnknown
	if item.Condition.DisplayName != "" {
		condition = models.NormalizeCondition(item.Condition.DisplayName)
	}

	location := item.Shipping.OriginCountryCode
	if location == "" {
		location = "US"
	}

	listing := models.Listing{
		Marketplace: models.MarketplaceReverb,
		Title:       item.Title,
		Price:       price,
		Currency:    currency,
		Condition:   condition,
		Location:    location,
		ScrapedAt:   time.Now(),
	}
	if href := item.Links.Web.Href; href != "" {
		listing.URL = a.absoluteURL(href)
	}
	if len(item.Photos) > 0 {
		listing.ImageURL = item.Photos[0].Links.Large.Href
	}
	if year, ok := scraper.ExtractYear(item.Title); ok {
		listing.Year = year
	}
	return listing, true
}

func (a *Adapter) fetchHTML(ctx context.Context, term string) ([]models.Listing, error) {
	params := url.Values{
		"query":     {term},
		"condition": usedConditions,
	}
	doc, err := a.documents.GetDocument(ctx, a.searchURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	seen := utils.NewURLSet()
	listings := make([]models.Listing, 0)

	doc.Find("div.tiles-item").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if len(listings) >= maxHTMLItems {
			return false
		}

		titleEl := card.Find("a.listing-item__title")
		title := strings.TrimSpace(titleEl.Text())
		priceText := strings.TrimSpace(card.Find("span.listing-item__price").Text())
		if title == "" || priceText == "" {
			return true
		}

		href, _ := titleEl.Attr("href")
		link := a.absoluteURL(href)
		if link != "" && !seen.Add(link) {
			return true
		}

		condition := models.ConditionUnknown
		if c := strings.TrimSpace(card.Find("span.listing-item__condition").Text()); c != "" {
			condition = models.NormalizeCondition(c)
		}

		listing := models.Listing{
			Marketplace: models.MarketplaceReverb,
			Title:       title,
			Price:       scraper.ParsePrice(priceText),
			Currency:    "USD",
			Condition:   condition,
			URL:         link,
			Location:    "US",
			ScrapedAt:   time.Now(),
		}
		if year, ok := scraper.ExtractYear(title); ok {
			listing.Year = year
		}
		listings = append(listings, listing)
		return true
	})

	return listings, nil
}

func (a *Adapter) absoluteURL(href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return a.linkBase + href
}
