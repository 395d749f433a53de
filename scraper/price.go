package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

// priceRegexp captures an optional currency symbol followed by digits and
// an optional two-decimal fraction, after thousands separators are removed.
var priceRegexp = regexp.MustCompile(`[$€£]?\s*(\d+(?:\.\d{2})?)`)

// ParsePrice extracts a numeric price from free-form price text such as
// "$1,234.50" or "US $300". Text with no digits yields 0; parsing never
// fails the item.
func ParsePrice(raw string) float64 {
	cleaned := strings.ReplaceAll(raw, ",", "")
	match := priceRegexp.FindStringSubmatch(cleaned)
	if len(match) < 2 {
		return 0
	}
	v, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	return v
}
