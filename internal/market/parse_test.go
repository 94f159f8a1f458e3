package market

import "testing"

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  float64
	}{
		{"plain", "12.5", 12.5},
		{"negative", "-3.8", -3.8},
		{"thousands", "1,234,567", 1234567},
		{"percent", "12.5%", 0.125},
		{"negative percent", "-5%", -0.05},
		{"wan", "3.5万", 3.5e4},
		{"yi", "2.4亿", 2.4e8},
		{"wan yi", "1.2万亿", 1.2e12},
		{"comma decimal", "1,234.5", 1234.5},
		{"dash placeholder", "-", 0},
		{"empty", "", 0},
		{"garbage", "N/A", 0},
		{"nil", nil, 0},
		{"float64", 7.85, 7.85},
		{"int", 100, 100},
		{"int64", int64(-7), -7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseNumber(tt.value); got != tt.want {
				t.Errorf("ParseNumber(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestMatchesIndustry(t *testing.T) {
	blacklist := []string{"国防", "军工", "钢铁", "贵金属"}

	tests := []struct {
		industry string
		want     bool
	}{
		{"国防军工", true},
		{"普钢铁路", true},
		{"贵金属", true},
		{"银行", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := MatchesIndustry(tt.industry, blacklist); got != tt.want {
			t.Errorf("MatchesIndustry(%q) = %v, want %v", tt.industry, got, tt.want)
		}
	}

	if MatchesIndustry("半导体", nil) {
		t.Errorf("MatchesIndustry with no keywords = true, want false")
	}
}
