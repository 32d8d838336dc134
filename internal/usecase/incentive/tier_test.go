package incentive

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBadgeTier_Boundaries(t *testing.T) {
	tests := []struct {
		lent string
		want Tier
	}{
		{"0", 0},
		{"9.99", 0},
		{"10", 1},
		{"49.999", 1},
		{"50", 2},
		{"75", 2},
		{"250", 3},
		{"999", 3},
		{"1000", 4},
		{"1000000", 4},
	}
	for _, tt := range tests {
		if got := BadgeTier(d(tt.lent)); got != tt.want {
			t.Fatalf("BadgeTier(%s) = %d, want %d", tt.lent, got, tt.want)
		}
	}
}

func TestBadgeTier_ThresholdRoundTrip(t *testing.T) {
	for tier := Tier(1); tier <= MaxTier; tier++ {
		if got := BadgeTier(Threshold(tier)); got != tier {
			t.Fatalf("BadgeTier(Threshold(%d)) = %d", tier, got)
		}
	}
}

func TestBadgeTier_Monotonic(t *testing.T) {
	prev := Tier(0)
	step := d("0.5")
	for v := decimal.Zero; v.LessThan(d("1100")); v = v.Add(step) {
		got := BadgeTier(v)
		if got < prev {
			t.Fatalf("tier dropped at %s: %d < %d", v, got, prev)
		}
		prev = got
	}
}

func TestTierProgress(t *testing.T) {
	tier := BadgeTier(d("75"))
	if tier.Label() != "Silver" {
		t.Fatalf("label = %s", tier.Label())
	}
	if got := TierProgress(d("75"), tier); !got.Equal(d("30")) {
		t.Fatalf("progress = %s, want 30", got)
	}
	if got := TierProgress(d("5"), 0); !got.Equal(d("50")) {
		t.Fatalf("progress toward bronze = %s, want 50", got)
	}
	if got := TierProgress(d("5000"), MaxTier); !got.Equal(hundred) {
		t.Fatalf("top tier progress = %s", got)
	}
}

func TestLabel_Fallback(t *testing.T) {
	if Label(4) != "Platinum" || Label(5) != "New" || Label(255) != "New" {
		t.Fatalf("label fallback broken")
	}
}

func TestLadder(t *testing.T) {
	rungs := Ladder(d("75"))
	if len(rungs) != 4 {
		t.Fatalf("rungs = %d", len(rungs))
	}
	want := []struct {
		name     string
		pct      string
		achieved bool
	}{
		{"Bronze", "100", true},
		{"Silver", "100", true},
		{"Gold", "30", false},
		{"Platinum", "7.5", false},
	}
	for i, w := range want {
		r := rungs[i]
		if r.Name != w.name || !r.ProgressPct.Equal(d(w.pct)) || r.Achieved != w.achieved {
			t.Fatalf("rung %d = %+v, want %+v", i, r, w)
		}
	}
}
