package application

import (
	"strings"

	"microlend/internal/domain/apperr"

	"github.com/shopspring/decimal"
)

// Accepted request range, in major units of the funding token.
var (
	MinAmount = decimal.NewFromInt(50)
	MaxAmount = decimal.NewFromInt(10000)
)

// Validate checks a two-phase submission before anything is written.
// Phone is optional.
func Validate(p Personal, b Business) error {
	required := []struct{ field, value string }{
		{"name", p.Name},
		{"email", p.Email},
		{"location", p.Location},
		{"business", b.Business},
		{"story", b.Story},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperr.Invalid(r.field, "is required")
		}
	}
	if b.Amount.LessThan(MinAmount) || b.Amount.GreaterThan(MaxAmount) {
		return apperr.Invalid("amount", "must be between "+MinAmount.String()+" and "+MaxAmount.String())
	}
	return nil
}
