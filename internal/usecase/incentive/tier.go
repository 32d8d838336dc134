// Package incentive maps a lender's cumulative contribution to badge tiers.
// Everything except Usecase.Position is pure.
package incentive

import "github.com/shopspring/decimal"

// Tier is the number of thresholds met: 0 (New) through 4 (Platinum).
type Tier uint8

const MaxTier Tier = 4

var (
	labels = [...]string{"New", "Bronze", "Silver", "Gold", "Platinum"}

	// thresholds[i] is the lent total required for tier i+1.
	thresholds = [...]decimal.Decimal{
		decimal.NewFromInt(10),
		decimal.NewFromInt(50),
		decimal.NewFromInt(250),
		decimal.NewFromInt(1000),
	}

	hundred = decimal.NewFromInt(100)
)

func (t Tier) Label() string { return Label(uint8(t)) }

// Label falls back to tier 0's label when level is out of range.
func Label(level uint8) string {
	if int(level) >= len(labels) {
		return labels[0]
	}
	return labels[level]
}

// Threshold returns the lent total needed to reach t. Tier 0 needs nothing.
func Threshold(t Tier) decimal.Decimal {
	if t == 0 || t > MaxTier {
		return decimal.Zero
	}
	return thresholds[t-1]
}

func BadgeTier(totalLent decimal.Decimal) Tier {
	var t Tier
	for _, th := range thresholds {
		if totalLent.LessThan(th) {
			break
		}
		t++
	}
	return t
}

// TierProgress is the percentage toward the tier after current, in [0, 100].
// At the top tier it is 100.
func TierProgress(totalLent decimal.Decimal, current Tier) decimal.Decimal {
	if current >= MaxTier {
		return hundred
	}
	return percentOf(totalLent, thresholds[current])
}

type Rung struct {
	Name        string          `json:"name"`
	Threshold   decimal.Decimal `json:"threshold"`
	ProgressPct decimal.Decimal `json:"progress_pct"`
	Achieved    bool            `json:"achieved"`
}

// Ladder reports progress toward every badge.
func Ladder(totalLent decimal.Decimal) []Rung {
	tier := BadgeTier(totalLent)
	out := make([]Rung, len(thresholds))
	for i, th := range thresholds {
		out[i] = Rung{
			Name:        labels[i+1],
			Threshold:   th,
			ProgressPct: percentOf(totalLent, th),
			Achieved:    int(tier) > i,
		}
	}
	return out
}

func percentOf(v, of decimal.Decimal) decimal.Decimal {
	if v.Sign() <= 0 {
		return decimal.Zero
	}
	p := v.Div(of).Mul(hundred)
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}
