package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/kh40/Vintage-Gear-Finder/models"
	"github.com/kh40/Vintage-Gear-Finder/utils"
)

// PostgresWriter persists filtered listings to PostgreSQL. Rows are keyed by
// listing URL, so re-running a search only adds listings not seen before.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := utils.RetryConfig{
		MaxAttempts: 10,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}
	if err := retry.Do("postgres ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS gear_listings (
			id          SERIAL PRIMARY KEY,
			marketplace VARCHAR(50)   NOT NULL,
			title       TEXT          NOT NULL,
			price       NUMERIC(10,2) NOT NULL DEFAULT 0,
			currency    VARCHAR(10)   NOT NULL DEFAULT 'USD',
			year        INT           NOT NULL DEFAULT 0,
			condition   VARCHAR(50)   NOT NULL DEFAULT '',
			location    TEXT          NOT NULL DEFAULT '',
			url         TEXT          UNIQUE NOT NULL,
			image_url   TEXT          NOT NULL DEFAULT '',
			scraped_at  TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_gear_listings_price       ON gear_listings(price);
		CREATE INDEX IF NOT EXISTS idx_gear_listings_year        ON gear_listings(year);
		CREATE INDEX IF NOT EXISTS idx_gear_listings_marketplace ON gear_listings(marketplace);
		CREATE INDEX IF NOT EXISTS idx_gear_listings_scraped_at  ON gear_listings(scraped_at);
	`)
	return err
}

// Write batch-inserts listings, skipping URLs already stored.
func (pw *PostgresWriter) Write(listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := pw.insertBatch(listings[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []models.Listing) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*10)

	for idx, l := range batch {
		base := idx * 10
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10))

		scrapedAt := l.ScrapedAt
		if scrapedAt.IsZero() {
			scrapedAt = time.Now()
		}
		valueArgs = append(valueArgs,
			l.Marketplace, l.Title, l.Price, l.Currency, l.Year,
			l.Condition, l.Location, l.URL, l.ImageURL, scrapedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO gear_listings (marketplace, title, price, currency, year, condition, location, url, image_url, scraped_at)
		VALUES %s
		ON CONFLICT (url) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	if err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

// FetchRecent returns the most recently scraped listings, newest first.
func (pw *PostgresWriter) FetchRecent(limit int) ([]models.Listing, error) {
	rows, err := pw.db.Query(`
		SELECT marketplace, title, price, currency, year, condition, location, url, image_url, scraped_at
		FROM gear_listings
		ORDER BY scraped_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch recent: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(
			&l.Marketplace, &l.Title, &l.Price, &l.Currency, &l.Year,
			&l.Condition, &l.Location, &l.URL, &l.ImageURL, &l.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
