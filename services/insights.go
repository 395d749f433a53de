package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kh40/Vintage-Gear-Finder/models"
	"github.com/kh40/Vintage-Gear-Finder/utils"
)

// Report summarizes one filtered batch.
type Report struct {
	TotalListings int
	ByMarketplace map[models.Marketplace]int
	ByCondition   map[string]int
	ByDecade      map[int]int // 1950 → count of listings from the 1950s; 0 → no year

	AveragePrice float64
	MinPrice     float64
	MaxPrice     float64
	BestDeal     *models.Listing // cheapest listing with a known year
}

// InsightService computes and prints batch summaries after a run.
type InsightService struct {
	logger *utils.Logger
}

// NewInsightService creates an InsightService with the given logger.
func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes a Report over a filtered batch.
func (s *InsightService) Generate(listings []models.Listing) *Report {
	report := &Report{
		ByMarketplace: make(map[models.Marketplace]int),
		ByCondition:   make(map[string]int),
		ByDecade:      make(map[int]int),
	}

	if len(listings) == 0 {
		return report
	}
	report.TotalListings = len(listings)

	var priced []models.Listing
	for i := range listings {
		l := listings[i]
		report.ByMarketplace[l.Marketplace]++
		report.ByCondition[models.NormalizeCondition(l.Condition)]++
		report.ByDecade[(l.Year/10)*10]++

		if l.Price > 0 {
			priced = append(priced, l)
		}
		if l.Year != 0 && l.Price > 0 {
			if report.BestDeal == nil || l.Price < report.BestDeal.Price {
				deal := l
				report.BestDeal = &deal
			}
		}
	}

	if len(priced) > 0 {
		report.MinPrice = priced[0].Price
		report.MaxPrice = priced[0].Price
		var total float64
		for _, l := range priced {
			total += l.Price
			if l.Price < report.MinPrice {
				report.MinPrice = l.Price
			}
			if l.Price > report.MaxPrice {
				report.MaxPrice = l.Price
			}
		}
		report.AveragePrice = round2(total / float64(len(priced)))
	}

	return report
}

// Print writes a human-readable summary to stdout.
func (s *InsightService) Print(r *Report) {
	thin := strings.Repeat("─", 50)

	fmt.Printf("\n  VINTAGE GEAR RUN SUMMARY\n  %s\n", thin)
	fmt.Printf("  Listings kept : %d\n", r.TotalListings)
	for _, m := range []models.Marketplace{models.MarketplaceEBay, models.MarketplaceReverb} {
		if n := r.ByMarketplace[m]; n > 0 {
			fmt.Printf("  %-13s : %d\n", m, n)
		}
	}
	fmt.Println()

	if r.AveragePrice > 0 {
		fmt.Printf("  Average price : $%.2f\n", r.AveragePrice)
		fmt.Printf("  Price range   : $%.2f – $%.2f\n", r.MinPrice, r.MaxPrice)
	} else {
		fmt.Printf("  No price data available\n")
	}

	if r.BestDeal != nil {
		fmt.Printf("  Best deal     : %s (%d) — $%.2f\n",
			truncate(r.BestDeal.Title, 40), r.BestDeal.Year, r.BestDeal.Price)
	}
	fmt.Println()

	if len(r.ByDecade) > 0 {
		fmt.Printf("  By decade\n  %s\n", thin)
		var decades []int
		for d := range r.ByDecade {
			decades = append(decades, d)
		}
		sort.Ints(decades)
		for _, d := range decades {
			label := fmt.Sprintf("%ds", d)
			if d == 0 {
				label = "no year"
			}
			fmt.Printf("  %-8s %s (%d)\n", label, strings.Repeat("█", r.ByDecade[d]), r.ByDecade[d])
		}
		fmt.Println()
	}
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
