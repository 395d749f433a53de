package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestGetDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="card"><h3>1965 Strat</h3></div></body></html>`))
	}))
	defer srv.Close()

	c := NewClient(0)
	doc, err := c.GetDocument(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got := doc.Find(".card h3").Text(); got != "1965 Strat" {
		t.Errorf("parsed text: got %q, want %q", got, "1965 Strat")
	}
}

func TestGetDocumentStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(0)
	if _, err := c.GetDocument(context.Background(), srv.URL); err == nil {
		t.Error("expected error for 403 response")
	}
}

func TestGetJSON(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(`{"total": 2}`))
	}))
	defer srv.Close()

	c := NewClient(0)
	var out struct {
		Total int `json:"total"`
	}
	params := url.Values{"query": {"vintage guitar"}}
	headers := map[string]string{"Authorization": "Bearer tok"}
	if err := c.GetJSON(context.Background(), srv.URL, params, headers, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Total != 2 {
		t.Errorf("Total: got %d, want 2", out.Total)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization header: got %q", gotAuth)
	}
	if gotQuery != "vintage guitar" {
		t.Errorf("query param: got %q", gotQuery)
	}
}

func TestGetJSONMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	c := NewClient(0)
	var out map[string]any
	if err := c.GetJSON(context.Background(), srv.URL, nil, nil, &out); err == nil {
		t.Error("expected decode error for non-JSON body")
	}
}

func TestClientPacing(t *testing.T) {
	var stamps []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stamps = append(stamps, time.Now())
		w.Write([]byte(`<html></html>`))
	}))
	defer srv.Close()

	interval := 50 * time.Millisecond
	c := NewClient(interval)
	for i := 0; i < 3; i++ {
		if _, err := c.GetDocument(context.Background(), srv.URL); err != nil {
			t.Fatalf("GetDocument: %v", err)
		}
	}

	for i := 1; i < len(stamps); i++ {
		if gap := stamps[i].Sub(stamps[i-1]); gap < interval {
			t.Errorf("request gap %d: %v < minimum %v", i, gap, interval)
		}
	}
}

func TestPacingHonorsCancellation(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`<html></html>`))
	}))
	defer srv.Close()

	c := NewClient(30 * time.Second)
	if _, err := c.GetDocument(context.Background(), srv.URL); err != nil {
		t.Fatalf("first GetDocument: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := c.GetDocument(ctx, srv.URL)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled request waited %v in the pacer", elapsed)
	}
	if hits != 1 {
		t.Errorf("requests sent: got %d, want 1", hits)
	}
}

func TestGetDocumentCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`<html></html>`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient(0)
	if _, err := c.GetDocument(ctx, srv.URL); err == nil {
		t.Error("expected error after context deadline")
	}
}
