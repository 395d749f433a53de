package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/kh40/Vintage-Gear-Finder/models"
)

// Settings is the runtime-editable part of the configuration. It is what
// the dashboard updates and what round-trips through the JSON config file.
type Settings struct {
	MaxYear            int      `json:"max_year"`
	MaxPricePercentage float64  `json:"max_price_percentage"`
	MinCondition       string   `json:"min_condition"`
	SearchTerms        []string `json:"search_terms"`
	EbayAPIKey         string   `json:"ebay_api_key"`
	ReverbAPIKey       string   `json:"reverb_api_key"`
}

// Config holds all application configuration. Settings may be updated at
// runtime through the control surface; everything else is fixed at startup.
type Config struct {
	mu       sync.Mutex
	settings Settings

	FilePath string

	HTTPPort       int
	CronSpec       string
	MaxConcurrency int
	RateLimitMs    int

	CSVOutputPath string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	UseBrowser bool
	ChromeBin  string
}

var defaultSearchTerms = []string{
	"vintage guitar fender",
	"vintage guitar gibson",
	"vintage guitar martin",
	"vintage amplifier fender",
	"vintage amplifier marshall",
	"vintage amplifier vox",
	"tube amplifier vintage",
}

// Load reads the .env file, the JSON config file (if present), and the
// environment, in that order of increasing precedence.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		settings: Settings{
			MaxYear:            1979,
			MaxPricePercentage: 0.60,
			MinCondition:       models.ConditionGood,
			SearchTerms:        defaultSearchTerms,
		},

		FilePath: getEnv("CONFIG_FILE", "config.json"),

		HTTPPort:       getEnvInt("HTTP_PORT", 8000),
		CronSpec:       getEnv("CRON_SPEC", "0 6 * * *"),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 1),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/results.csv"),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "gearfinder"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "gearfinder123"),
		PostgresDB:       getEnv("POSTGRES_DB", "gear_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		UseBrowser: getEnvBool("USE_BROWSER", false),
		ChromeBin:  getEnv("CHROME_BIN", ""),
	}

	cfg.loadFile()
	cfg.applyEnvOverrides()

	return cfg
}

func (c *Config) loadFile() {
	data, err := os.ReadFile(c.FilePath)
	if err != nil {
		return
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		log.Printf("[config] Ignoring malformed config file %s: %v", c.FilePath, err)
		return
	}
	if s.MaxYear != 0 {
		c.settings.MaxYear = s.MaxYear
	}
	if s.MaxPricePercentage != 0 {
		c.settings.MaxPricePercentage = s.MaxPricePercentage
	}
	if s.MinCondition != "" {
		c.settings.MinCondition = s.MinCondition
	}
	if len(s.SearchTerms) > 0 {
		c.settings.SearchTerms = s.SearchTerms
	}
	if s.EbayAPIKey != "" {
		c.settings.EbayAPIKey = s.EbayAPIKey
	}
	if s.ReverbAPIKey != "" {
		c.settings.ReverbAPIKey = s.ReverbAPIKey
	}
}

func (c *Config) applyEnvOverrides() {
	c.settings.MaxYear = getEnvInt("MAX_YEAR", c.settings.MaxYear)
	c.settings.MaxPricePercentage = getEnvFloat("MAX_PRICE_PERCENTAGE", c.settings.MaxPricePercentage)
	c.settings.MinCondition = getEnv("MIN_CONDITION", c.settings.MinCondition)
	c.settings.EbayAPIKey = getEnv("EBAY_API_KEY", c.settings.EbayAPIKey)
	c.settings.ReverbAPIKey = getEnv("REVERB_API_KEY", c.settings.ReverbAPIKey)

	if raw := os.Getenv("SEARCH_TERMS"); raw != "" {
		var terms []string
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				terms = append(terms, t)
			}
		}
		if len(terms) > 0 {
			c.settings.SearchTerms = terms
		}
	}
}

// Save persists the current settings to the JSON config file.
func (c *Config) Save() error {
	c.mu.Lock()
	data, err := json.MarshalIndent(c.settings, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(c.FilePath, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", c.FilePath, err)
	}
	return nil
}

// Settings returns a copy of the current runtime settings.
func (c *Config) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.settings
	s.SearchTerms = append([]string(nil), c.settings.SearchTerms...)
	return s
}

// Update replaces the runtime settings and persists them.
func (c *Config) Update(s Settings) error {
	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()
	return c.Save()
}

// Criteria builds the search criteria consumed by the aggregation core.
func (c *Config) Criteria() models.SearchCriteria {
	s := c.Settings()
	return models.SearchCriteria{
		SearchTerms:        s.SearchTerms,
		MaxYear:            s.MaxYear,
		MaxPricePercentage: s.MaxPricePercentage,
		MinCondition:       s.MinCondition,
	}
}

// EbayAPIKey returns the current eBay credential ("" means HTML fallback).
func (c *Config) EbayAPIKey() string { return c.Settings().EbayAPIKey }

// ReverbAPIKey returns the current Reverb credential ("" means HTML fallback).
func (c *Config) ReverbAPIKey() string { return c.Settings().ReverbAPIKey }

// Validate checks the current settings and returns human-readable
// warnings (degraded behaviour) and errors (run cannot proceed).
func (c *Config) Validate() (warnings, errs []string) {
	s := c.Settings()

	if len(s.SearchTerms) == 0 {
		errs = append(errs, "at least one search term is required")
	}
	if s.EbayAPIKey == "" {
		warnings = append(warnings, "eBay API key not set - will use HTML scraping (slower and less reliable)")
	}
	if s.ReverbAPIKey == "" {
		warnings = append(warnings, "Reverb API key not set - will use HTML scraping (slower and less reliable)")
	}
	if s.MaxYear > 1979 {
		warnings = append(warnings, "max year is above 1979 - this may not return vintage items")
	}
	if s.MaxYear < 1920 {
		warnings = append(warnings, "max year is very low - this may return very few results")
	}
	if s.MaxPricePercentage > 1.0 {
		warnings = append(warnings, "max price percentage is above 100% - this may return overpriced items")
	}
	if s.MaxPricePercentage < 0.1 {
		warnings = append(warnings, "max price percentage is very low - this may return very few results")
	}
	return warnings, errs
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
