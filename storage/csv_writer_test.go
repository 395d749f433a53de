package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kh40/Vintage-Gear-Finder/models"
)

func TestCSVWriterHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	scrapedAt := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
	listings := []models.Listing{
		{
			Marketplace: models.MarketplaceEBay,
			Title:       "1965 Fender Stratocaster",
			Price:       450,
			Currency:    "USD",
			Year:        1965,
			Condition:   "Excellent",
			Location:    "Nashville,TN,USA",
			URL:         "https://example.com/1",
			ImageURL:    "https://example.com/1.jpg",
			ScrapedAt:   scrapedAt,
		},
		{
			Marketplace: models.MarketplaceReverb,
			Title:       "Fuzz pedal, year unknown",
			Price:       99.5,
			Currency:    "USD",
			Condition:   "Good",
			URL:         "https://example.com/2",
			ScrapedAt:   scrapedAt,
		},
	}
	if err := w.Write(listings); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open written file: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2 rows", len(records))
	}

	if records[0][0] != "Date" || records[0][9] != "Image URL" {
		t.Errorf("unexpected header: %v", records[0])
	}

	first := records[1]
	if first[1] != "eBay" || first[2] != "1965 Fender Stratocaster" {
		t.Errorf("row 1: %v", first)
	}
	if first[3] != "450.00" {
		t.Errorf("price formatting: got %q, want 450.00", first[3])
	}
	if first[5] != "1965" {
		t.Errorf("year: got %q", first[5])
	}
	if first[0] != "2026-03-14 06:00:00" {
		t.Errorf("date: got %q", first[0])
	}

	// Unknown year writes an empty cell, not 0.
	if records[2][5] != "" {
		t.Errorf("unknown year cell: got %q, want empty", records[2][5])
	}
}

func TestCSVWriterAppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	listing := models.Listing{
		Marketplace: models.MarketplaceEBay,
		Title:       "a",
		URL:         "https://example.com/a",
		ScrapedAt:   time.Now(),
	}

	for i := 0; i < 2; i++ {
		w, err := NewCSVWriter(path)
		if err != nil {
			t.Fatalf("NewCSVWriter run %d: %v", i, err)
		}
		if err := w.Write([]models.Listing{listing}); err != nil {
			t.Fatalf("Write run %d: %v", i, err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close run %d: %v", i, err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	// One header, two data rows; reopening must not repeat the header.
	if len(records) != 3 {
		t.Errorf("got %d records, want 3", len(records))
	}
}
