package services

import (
	"strings"

	"github.com/kh40/Vintage-Gear-Finder/models"
	"github.com/kh40/Vintage-Gear-Finder/utils"
)

// priceCeiling is a fixed absolute threshold: without historical price data
// there is no reference market price to take a percentage of, so anything
// above this is assumed not to be a deal.
const priceCeiling = 500.0

const fallbackMaxYear = 1979

// FilterEngine narrows an accumulated batch down to listings matching the
// search criteria. Filtering is a conjunction of independent predicates,
// order-preserving and idempotent.
type FilterEngine struct {
	logger *utils.Logger
}

// NewFilterEngine creates a FilterEngine with the given logger.
func NewFilterEngine(logger *utils.Logger) *FilterEngine {
	return &FilterEngine{logger: logger.WithComponent("filter")}
}

// Filter returns the listings that pass every criterion. The input is not
// modified.
func (f *FilterEngine) Filter(listings []models.Listing, criteria models.SearchCriteria) []models.Listing {
	maxYear := criteria.MaxYear
	if maxYear == 0 {
		maxYear = fallbackMaxYear
	}

	minRank, ok := models.LookupConditionRank(criteria.MinCondition)
	if !ok {
		minRank = models.ConditionRank(models.ConditionGood)
	}

	kept := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		// Unknown year passes; a known year newer than the cutoff does not.
		if l.Year != 0 && l.Year > maxYear {
			f.logger.Debug("Rejected (year %d > %d): %s", l.Year, maxYear, l.Title)
			continue
		}

		if models.ConditionRank(l.Condition) < minRank {
			f.logger.Debug("Rejected (condition %q below minimum): %s", l.Condition, l.Title)
			continue
		}

		if l.Price > priceCeiling {
			f.logger.Debug("Rejected (price %.2f above ceiling): %s", l.Price, l.Title)
			continue
		}

		if !locationAllowed(l.Location) {
			f.logger.Debug("Rejected (location %q): %s", l.Location, l.Title)
			continue
		}

		kept = append(kept, l)
	}
	return kept
}

// locationAllowed keeps US listings and listings with no location hint.
func locationAllowed(location string) bool {
	if location == "" {
		return true
	}
	upper := strings.ToUpper(location)
	return strings.Contains(upper, "US") || strings.Contains(upper, "UNITED STATES")
}
