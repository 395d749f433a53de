package reverb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kh40/Vintage-Gear-Finder/models"
	"github.com/kh40/Vintage-Gear-Finder/scraper/fetch"
	"github.com/kh40/Vintage-Gear-Finder/utils"
)

const apiPayload = `{
	"listings": [
		{
			"title": "1972 Fender Twin Reverb",
			"price": {"amount": "45000", "currency": "USD"},
			"condition": {"display_name": "Excellent"},
			"_links": {"web": {"href": "/item/1972-fender-twin"}},
			"photos": [{"_links": {"large": {"href": "https://images.reverb.com/1.jpg"}}}],
			"shipping": {"origin_country_code": "US"}
		},
		{
			"title": "",
			"price": {"amount": "1000", "currency": "USD"}
		},
		{
			"title": "Marshall Plexi 1968 head",
			"price": {"amount": "32500", "currency": ""},
			"condition": {"display_name": "very good"},
			"_links": {"web": {"href": "https://reverb.com/item/plexi"}},
			"shipping": {}
		},
		{
			"title": "Gibson ES-335 1964",
			"price": {"amount": "not-a-number", "currency": "USD"},
			"condition": {"display_name": "Good"},
			"_links": {"web": {"href": "https://reverb.com/item/es335"}}
		}
	]
}`

const htmlPayload = `<html><body>
	<div class="tiles-item">
		<a class="listing-item__title" href="/item/555">1965 Vox AC30</a>
		<span class="listing-item__price">$2,100.00</span>
		<span class="listing-item__condition">Good</span>
	</div>
	<div class="tiles-item">
		<span class="listing-item__price">$99</span>
	</div>
	<div class="tiles-item">
		<a class="listing-item__title" href="/item/556">Fender Champ</a>
		<span class="listing-item__price">$650</span>
	</div>
</body></html>`

func newTestAdapter(t *testing.T, token string, apiHandler, htmlHandler http.HandlerFunc) *Adapter {
	t.Helper()

	apiSrv := httptest.NewServer(apiHandler)
	htmlSrv := httptest.NewServer(htmlHandler)
	t.Cleanup(apiSrv.Close)
	t.Cleanup(htmlSrv.Close)

	return New(Options{
		APIToken:  func() string { return token },
		Client:    fetch.NewClient(0),
		Logger:    utils.NewLogger(),
		APIURL:    apiSrv.URL,
		SearchURL: htmlSrv.URL,
		LinkBase:  "https://reverb.com",
	})
}

func serveString(s string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(s))
	}
}

func TestFetchAPIPath(t *testing.T) {
	var gotAuth string
	api := func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(apiPayload))
	}
	a := newTestAdapter(t, "tok-1", api, serveString(htmlPayload))

	listings, err := a.Fetch(context.Background(), "tube amp")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization: got %q", gotAuth)
	}
	// Empty-title and unparsable-price items are both skipped.
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}
	for _, l := range listings {
		if l.Title == "Gibson ES-335 1964" {
			t.Error("item with unparsable API amount should be skipped")
		}
	}

	first := listings[0]
	// API amounts are minor units: 45000 cents → 450.00.
	if first.Price != 450.00 {
		t.Errorf("Price: got %.2f, want 450.00", first.Price)
	}
	if first.URL != "https://reverb.com/item/1972-fender-twin" {
		t.Errorf("URL: got %q", first.URL)
	}
	if first.ImageURL != "https://images.reverb.com/1.jpg" {
		t.Errorf("ImageURL: got %q", first.ImageURL)
	}
	if first.Year != 1972 {
		t.Errorf("Year: got %d, want 1972", first.Year)
	}
	if first.Condition != models.ConditionExcellent {
		t.Errorf("Condition: got %q", first.Condition)
	}

	second := listings[1]
	if second.Price != 325.00 {
		t.Errorf("Price: got %.2f, want 325.00", second.Price)
	}
	if second.Currency != "USD" {
		t.Errorf("missing currency should default to USD, got %q", second.Currency)
	}
	if second.Condition != models.ConditionVeryGood {
		t.Errorf("Condition: got %q, want %q", second.Condition, models.ConditionVeryGood)
	}
	if second.Location != "US" {
		t.Errorf("missing origin should default to US, got %q", second.Location)
	}
}

func TestFetchFallsBackToHTMLOnAPIFailure(t *testing.T) {
	apiFail := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>rate limited</html>`))
	}
	a := newTestAdapter(t, "tok-1", apiFail, serveString(htmlPayload))

	listings, err := a.Fetch(context.Background(), "tube amp")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}
	if listings[0].Title != "1965 Vox AC30" {
		t.Errorf("Title: got %q", listings[0].Title)
	}
}

func TestFetchHTMLPath(t *testing.T) {
	a := newTestAdapter(t, "", serveString(apiPayload), serveString(htmlPayload))

	listings, err := a.Fetch(context.Background(), "tube amp")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	// Card without a title is skipped at item granularity.
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}

	first := listings[0]
	if first.Price != 2100.00 {
		t.Errorf("Price: got %.2f, want 2100.00", first.Price)
	}
	if first.URL != "https://reverb.com/item/555" {
		t.Errorf("URL: got %q", first.URL)
	}
	if first.Year != 1965 {
		t.Errorf("Year: got %d, want 1965", first.Year)
	}

	if listings[1].Condition != models.ConditionUnknown {
		t.Errorf("missing condition should be Unknown, got %q", listings[1].Condition)
	}
}

func TestFetchBothPathsFailReturnsEmpty(t *testing.T) {
	fail := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	a := newTestAdapter(t, "tok-1", fail, fail)

	listings, err := a.Fetch(context.Background(), "tube amp")
	if err != nil {
		t.Fatalf("Fetch should not fail: %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("got %d listings, want 0", len(listings))
	}
}
