// Package ebay implements the eBay marketplace adapter: Finding API when a
// credential is configured, public search-page HTML otherwise or on API
// failure.
package ebay

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
	defaultAPIURL    = "https://svcs.ebay.com/services/search/FindingService/v1"
	defaultSearchURL = "https://www.ebay.com/sch/i.html"

	apiPageSize  = 100
	maxHTMLItems = 50
)

// Adapter fetches eBay listings for one search term at a time.
type Adapter struct {
	apiKey    func() string
	client    *fetch.Client
	documents fetch.DocumentFetcher
	logger    *utils.Logger

	apiURL    string
	searchURL string
}

// Options configures the adapter. APIKey is read per fetch so dashboard
// credential updates take effect without a restart.
type Options struct {
	APIKey    func() string
	Client    *fetch.Client
	Documents fetch.DocumentFetcher // defaults to Client
	Logger    *utils.Logger
	APIURL    string // defaults to the Finding API endpoint
	SearchURL string // defaults to the public search page
}

// New creates an eBay Adapter.
func New(opts Options) *Adapter {
	a := &Adapter{
		apiKey:    opts.APIKey,
		client:    opts.Client,
		documents: opts.Documents,
		logger:    opts.Logger.WithComponent("ebay"),
		apiURL:    opts.APIURL,
		searchURL: opts.SearchURL,
	}
	if a.apiKey == nil {
		a.apiKey = func() string { return "" }
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
	return a
}

// Marketplace identifies this adapter.
func (a *Adapter) Marketplace() models.Marketplace { return models.MarketplaceEBay }

// Fetch returns normalized listings for a search term. With a credential it
// tries the Finding API first and falls back to the HTML search page on any
// request or parse failure. Both paths failing yields an empty slice.
func (a *Adapter) Fetch(ctx context.Context, term string) ([]models.Listing, error) {
	if key := a.apiKey(); key != "" {
		listings, err := a.fetchAPI(ctx, term, key)
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

// Finding API payloads wrap every field in a single-element array.
type findResponse struct {
	Response []struct {
		SearchResult []struct {
			Items []findItem `json:"item"`
		} `json:"searchResult"`
	} `json:"findItemsAdvancedResponse"`
}

type findItem struct {
	Title         []string `json:"title"`
	SellingStatus []struct {
		CurrentPrice []struct {
			CurrencyID string `json:"@currencyId"`
			Value      string `json:"__value__"`
		} `json:"currentPrice"`
	} `json:"sellingStatus"`
	Condition []struct {
		DisplayName []string `json:"conditionDisplayName"`
	} `json:"condition"`
	ViewItemURL []string `json:"viewItemURL"`
	GalleryURL  []string `json:"galleryURL"`
	Location    []string `json:"location"`
}

func (a *Adapter) fetchAPI(ctx context.Context, term, key string) ([]models.Listing, error) {
	params := url.Values{
		"OPERATION-NAME":                  {"findItemsAdvanced"},
		"SERVICE-VERSION":                 {"1.0.0"},
		"SECURITY-APPNAME":                {key},
		"RESPONSE-DATA-FORMAT":            {"JSON"},
		"keywords":                        {term},
		"itemFilter(0).name":              {"Condition"},
		"itemFilter(0).value":             {"Used"},
		"itemFilter(1).name":              {"Country"},
		"itemFilter(1).value":             {"US"},
		"itemFilter(2).name":              {"ListingType"},
		"itemFilter(2).value":             {"FixedPrice"},
		"paginationInput.entriesPerPage":  {strconv.Itoa(apiPageSize)},
		"sortOrder":                       {"EndTimeSoonest"},
	}

	var resp findResponse
	if err := a.client.GetJSON(ctx, a.apiURL, params, nil, &resp); err != nil {
		return nil, err
	}

	listings := make([]models.Listing, 0)
	for _, item := range a.apiItems(resp) {
		listing, ok := a.normalizeAPIItem(item)
		if !ok {
			a.logger.Warn("Skipping malformed API item for %q", term)
			continue
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

func (a *Adapter) apiItems(resp findResponse) []findItem {
	if len(resp.Response) == 0 || len(resp.Response[0].SearchResult) == 0 {
		return nil
	}
	return resp.Response[0].SearchResult[0].Items
}

func (a *Adapter) normalizeAPIItem(item findItem) (models.Listing, bool) {
	if len(item.Title) == 0 || item.Title[0] == "" {
		return models.Listing{}, false
	}
	title := item.Title[0]

	price := 0.0
	currency := "USD"
	if len(item.SellingStatus) > 0 && len(item.SellingStatus[0].CurrentPrice) > 0 {
		cp := item.SellingStatus[0].CurrentPrice[0]
		// A price the API reports but we cannot parse marks the whole item
		// as malformed; only the HTML path's missing-digits case maps to 0.
		v, err := strconv.ParseFloat(cp.Value, 64)
		if err != nil {
			return models.Listing{}, false
		}
		if v >= 0 {
			price = v
		}
		if cp.CurrencyID != "" {
			currency = cp.CurrencyID
		}
	}

	condition := models.ConditionUnknown
	if len(item.Condition) > 0 && len(item.Condition[0].DisplayName) > 0 {
		condition = models.NormalizeCondition(item.Condition[0].DisplayName[0])
	}

	listing := models.Listing{
		Marketplace: models.MarketplaceEBay,
		Title:       title,
		Price:       price,
		Currency:    currency,
		Condition:   condition,
		ScrapedAt:   time.Now(),
	}
	if len(item.ViewItemURL) > 0 {
		listing.URL = item.ViewItemURL[0]
	}
	if len(item.GalleryURL) > 0 {
		listing.ImageURL = item.GalleryURL[0]
	}
	if len(item.Location) > 0 {
		listing.Location = item.Location[0]
	}
	if year, ok := scraper.ExtractYear(title); ok {
		listing.Year = year
	}
	return listing, true
}

func (a *Adapter) fetchHTML(ctx context.Context, term string) ([]models.Listing, error) {
	params := url.Values{
		"_nkw":   {term},
		"_sacat": {"0"},
		"_sop":   {"12"},
		"_ipg":   {strconv.Itoa(maxHTMLItems)},
	}
	doc, err := a.documents.GetDocument(ctx, a.searchURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	seen := utils.NewURLSet()
	listings := make([]models.Listing, 0)

	doc.Find("div.s-item").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if len(listings) >= maxHTMLItems {
			return false
		}

		title := strings.TrimSpace(card.Find(".s-item__title").Text())
		priceText := strings.TrimSpace(card.Find(".s-item__price").Text())
		link, _ := card.Find("a.s-item__link").Attr("href")

		// eBay pads search results with template/ad cards; a real listing
		// card always carries all three.
		if title == "" || priceText == "" || link == "" {
			return true
		}
		if !seen.Add(link) {
			return true
		}

		condition := models.ConditionUnknown
		if c := strings.TrimSpace(card.Find("span.SECONDARY_INFO").Text()); c != "" {
			condition = models.NormalizeCondition(c)
		}

		listing := models.Listing{
			Marketplace: models.MarketplaceEBay,
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
