package config

import (
	"path/filepath"
	"testing"

	"github.com/kh40/Vintage-Gear-Finder/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "config.json"))

	cfg := Load()
	s := cfg.Settings()

	if s.MaxYear != 1979 {
		t.Errorf("MaxYear: got %d, want 1979", s.MaxYear)
	}
	if s.MaxPricePercentage != 0.60 {
		t.Errorf("MaxPricePercentage: got %.2f, want 0.60", s.MaxPricePercentage)
	}
	if s.MinCondition != models.ConditionGood {
		t.Errorf("MinCondition: got %q, want %q", s.MinCondition, models.ConditionGood)
	}
	if len(s.SearchTerms) == 0 {
		t.Error("expected default search terms")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "config.json"))
	t.Setenv("MAX_YEAR", "1969")
	t.Setenv("MIN_CONDITION", "Excellent")
	t.Setenv("SEARCH_TERMS", "vintage guitar, tube amp , ")

	cfg := Load()
	s := cfg.Settings()

	if s.MaxYear != 1969 {
		t.Errorf("MaxYear: got %d, want 1969", s.MaxYear)
	}
	if s.MinCondition != "Excellent" {
		t.Errorf("MinCondition: got %q, want Excellent", s.MinCondition)
	}
	want := []string{"vintage guitar", "tube amp"}
	if len(s.SearchTerms) != len(want) {
		t.Fatalf("SearchTerms: got %v, want %v", s.SearchTerms, want)
	}
	for i := range want {
		if s.SearchTerms[i] != want[i] {
			t.Errorf("SearchTerms[%d]: got %q, want %q", i, s.SearchTerms[i], want[i])
		}
	}
}

func TestUpdatePersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("CONFIG_FILE", path)

	cfg := Load()
	s := cfg.Settings()
	s.MaxYear = 1965
	s.SearchTerms = []string{"vintage amplifier"}
	s.ReverbAPIKey = "token-123"
	if err := cfg.Update(s); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded := Load().Settings()
	if reloaded.MaxYear != 1965 {
		t.Errorf("reloaded MaxYear: got %d, want 1965", reloaded.MaxYear)
	}
	if len(reloaded.SearchTerms) != 1 || reloaded.SearchTerms[0] != "vintage amplifier" {
		t.Errorf("reloaded SearchTerms: got %v", reloaded.SearchTerms)
	}
	if reloaded.ReverbAPIKey != "token-123" {
		t.Errorf("reloaded ReverbAPIKey: got %q", reloaded.ReverbAPIKey)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "config.json"))

	cfg := Load()
	warnings, errs := cfg.Validate()
	if len(errs) != 0 {
		t.Errorf("default config should have no errors, got %v", errs)
	}
	// No API keys configured → two fallback warnings at minimum.
	if len(warnings) < 2 {
		t.Errorf("expected fallback warnings, got %v", warnings)
	}

	s := cfg.Settings()
	s.SearchTerms = nil
	if err := cfg.Update(s); err != nil {
		t.Fatalf("Update: %v", err)
	}
	_, errs = cfg.Validate()
	if len(errs) == 0 {
		t.Error("expected error when no search terms configured")
	}
}

func TestCriteria(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "config.json"))
	t.Setenv("MAX_YEAR", "1970")

	crit := Load().Criteria()
	if crit.MaxYear != 1970 {
		t.Errorf("Criteria MaxYear: got %d, want 1970", crit.MaxYear)
	}
	if crit.MinCondition != models.ConditionGood {
		t.Errorf("Criteria MinCondition: got %q", crit.MinCondition)
	}
}
