package loan

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"microlend/pkg/units"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("loan not found")
	ErrMalformed = errors.New("malformed loan record")
)

var hundred = decimal.NewFromInt(100)

// Loan is the local projection of one Loan Registry entry. Amounts are in
// major currency units.
type Loan struct {
	ID              uint64          `json:"id"`
	Name            string          `json:"name"`
	Location        string          `json:"location"`
	Business        string          `json:"business"`
	Story           string          `json:"story"`
	PhotoURL        string          `json:"photo_url"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	FundedAmount    decimal.Decimal `json:"funded_amount"`
	Active          bool            `json:"active"`
}

// RemainingCapacity is requested minus funded, floored at zero.
func (l Loan) RemainingCapacity() decimal.Decimal {
	r := l.RequestedAmount.Sub(l.FundedAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// FullyFunded is decided by the amounts alone, never by Active.
func (l Loan) FullyFunded() bool {
	return l.RemainingCapacity().IsZero()
}

// FundingProgress returns a percentage in [0, 100].
func (l Loan) FundingProgress() decimal.Decimal {
	if l.RequestedAmount.Sign() <= 0 {
		return decimal.Zero
	}
	p := l.FundedAmount.Div(l.RequestedAmount).Mul(hundred)
	if p.GreaterThan(hundred) {
		return hundred
	}
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// Raw is the untyped shape read from the registry's per-field getters.
type Raw struct {
	Name      string
	Location  string
	Business  string
	Story     string
	Photo     string
	Requested *big.Int
	Funded    *big.Int
	Active    bool
}

// Decode converts raw registry fields into a Loan, rejecting records that
// cannot be represented.
func Decode(id uint64, raw Raw) (Loan, error) {
	if id == 0 {
		return Loan{}, fmt.Errorf("%w: zero id", ErrMalformed)
	}
	if raw.Requested == nil || raw.Funded == nil {
		return Loan{}, fmt.Errorf("%w: #%d missing amount", ErrMalformed, id)
	}
	if raw.Requested.Sign() < 0 || raw.Funded.Sign() < 0 {
		return Loan{}, fmt.Errorf("%w: #%d negative amount", ErrMalformed, id)
	}
	if strings.TrimSpace(raw.Name) == "" {
		return Loan{}, fmt.Errorf("%w: #%d empty name", ErrMalformed, id)
	}
	for _, s := range []string{raw.Name, raw.Location, raw.Business, raw.Story, raw.Photo} {
		if !utf8.ValidString(s) {
			return Loan{}, fmt.Errorf("%w: #%d invalid utf-8", ErrMalformed, id)
		}
	}
	return Loan{
		ID:              id,
		Name:            raw.Name,
		Location:        raw.Location,
		Business:        raw.Business,
		Story:           raw.Story,
		PhotoURL:        raw.Photo,
		RequestedAmount: units.FromWei(raw.Requested),
		FundedAmount:    units.FromWei(raw.Funded),
		Active:          raw.Active,
	}, nil
}

// New is the payload of an addLoan write.
type New struct {
	Name     string
	Location string
	Business string
	Story    string
	Photo    string
	Amount   *big.Int
	Token    common.Address
}
