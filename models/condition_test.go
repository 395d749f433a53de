package models

import "testing"

func TestConditionRankOrdering(t *testing.T) {
	ordered := []string{
		ConditionUnknown, ConditionPoor, ConditionFair, ConditionGood,
		ConditionVeryGood, ConditionExcellent, ConditionMint, ConditionNew,
	}

	for i := 1; i < len(ordered); i++ {
		lower := ConditionRank(ordered[i-1])
		higher := ConditionRank(ordered[i])
		if lower >= higher {
			t.Errorf("rank(%q)=%d should be below rank(%q)=%d",
				ordered[i-1], lower, ordered[i], higher)
		}
	}
}

func TestConditionRankUnlistedLabels(t *testing.T) {
	tests := []string{"Used", "Pre-Owned", "For parts or not working", "", "refurbished"}
	for _, label := range tests {
		if got := ConditionRank(label); got != 0 {
			t.Errorf("ConditionRank(%q) = %d; want 0", label, got)
		}
	}
}

func TestNormalizeCondition(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"very good", ConditionVeryGood},
		{"VERY GOOD", ConditionVeryGood},
		{" Mint ", ConditionMint},
		{"Brand New", ConditionNew},
		{"B-Stock", ConditionGood},
		{"", ConditionUnknown},
		{"Pre-Owned", "Pre-Owned"},
	}

	for _, tt := range tests {
		if got := NormalizeCondition(tt.in); got != tt.want {
			t.Errorf("NormalizeCondition(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
