package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/kh40/Vintage-Gear-Finder/models"
)

// csvHeader matches the columns of the results sheet, one row per listing.
var csvHeader = []string{
	"Date", "Marketplace", "Title", "Price", "Currency",
	"Year", "Condition", "Location", "URL", "Image URL",
}

// CSVWriter appends filtered listings to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter opens (or creates) the CSV file at the given path, writing the
// header row when the file is new. Intermediate directories are created
// automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("csv: create output dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv: open file %q: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: stat file: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
		w.Flush()
	}

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends one row per listing.
func (c *CSVWriter) Write(listings []models.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range listings {
		year := ""
		if l.Year != 0 {
			year = strconv.Itoa(l.Year)
		}
		scrapedAt := l.ScrapedAt
		if scrapedAt.IsZero() {
			scrapedAt = time.Now()
		}
		row := []string{
			scrapedAt.Format("2006-01-02 15:04:05"),
			string(l.Marketplace),
			l.Title,
			strconv.FormatFloat(l.Price, 'f', 2, 64),
			l.Currency,
			year,
			l.Condition,
			l.Location,
			l.URL,
			l.ImageURL,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
