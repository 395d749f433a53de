package scraper

import (
	"regexp"
	"strconv"
)

// Plausible manufacture years for the vintage band. Four-digit runs outside
// this band are treated as noise (reissue model numbers, serials), not as a
// newer year to reject downstream.
const (
	minVintageYear = 1920
	maxVintageYear = 1979
)

// yearRegexp matches a standalone 4-digit run shaped like a year:
// 19xx or 20[0-2]x.
var yearRegexp = regexp.MustCompile(`\b(19\d{2}|20[0-2]\d)\b`)

// ExtractYear derives a manufacture year from a listing title. The second
// return value is false when no plausible vintage-band year was found.
func ExtractYear(title string) (int, bool) {
	match := yearRegexp.FindStringSubmatch(title)
	if match == nil {
		return 0, false
	}
	year, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	if year < minVintageYear || year > maxVintageYear {
		return 0, false
	}
	return year, true
}
