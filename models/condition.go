package models

import "strings"

// Canonical condition labels, worst to best. Anything outside this
// vocabulary ranks 0 (Unknown) and fails closed under any non-zero
// minimum-condition threshold.
const (
	ConditionUnknown   = "Unknown"
	ConditionPoor      = "Poor"
	ConditionFair      = "Fair"
	ConditionGood      = "Good"
	ConditionVeryGood  = "Very Good"
	ConditionExcellent = "Excellent"
	ConditionMint      = "Mint"
	ConditionNew       = "New"
)

var conditionRanks = map[string]int{
	ConditionUnknown:   0,
	ConditionPoor:      1,
	ConditionFair:      2,
	ConditionGood:      3,
	ConditionVeryGood:  4,
	ConditionExcellent: 5,
	ConditionMint:      6,
	ConditionNew:       7,
}

// synonyms maps source-specific condition spellings (lowercased) onto the
// canonical vocabulary. Labels not listed here and not canonical pass
// through verbatim.
var synonyms = map[string]string{
	"brand new": ConditionNew,
	"b-stock":   ConditionGood,
	"b stock":   ConditionGood,
	"like new":  ConditionMint,
}

// ConditionRank maps a condition label to its ordinal rank.
// Unlisted labels rank 0.
func ConditionRank(label string) int {
	rank, _ := LookupConditionRank(label)
	return rank
}

// LookupConditionRank reports the rank of a label and whether the label
// belongs to the canonical vocabulary.
func LookupConditionRank(label string) (int, bool) {
	rank, ok := conditionRanks[NormalizeCondition(label)]
	return rank, ok
}

// NormalizeCondition maps a source-specific condition label onto the
// canonical set where a spelling match exists. It never upgrades an
// unrecognized label to a ranked one.
func NormalizeCondition(label string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return ConditionUnknown
	}
	lower := strings.ToLower(trimmed)
	if canon, ok := synonyms[lower]; ok {
		return canon
	}
	for canon := range conditionRanks {
		if strings.EqualFold(canon, trimmed) {
			return canon
		}
	}
	return trimmed
}
