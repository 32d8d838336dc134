package application

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"microlend/pkg/units"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("application not found")
	ErrInvalidTransition = errors.New("application is not pending")
	ErrUnknownStatus     = errors.New("unknown application status")
	ErrMalformed         = errors.New("malformed application record")
)

// Status is closed: Pending may move to Approved or Rejected, both terminal.
type Status uint8

const (
	StatusPending  Status = 0
	StatusApproved Status = 1
	StatusRejected Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s Status) Terminal() bool { return s == StatusApproved || s == StatusRejected }

// CanTransitionTo reports whether the ledger may move an application from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && next.Terminal()
}

func ParseStatus(raw uint8) (Status, error) {
	s := Status(raw)
	if s > StatusRejected {
		return 0, fmt.Errorf("%w: %d", ErrUnknownStatus, raw)
	}
	return s, nil
}

// Filter selects applications for listing.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterPending  Filter = "pending"
	FilterApproved Filter = "approved"
	FilterRejected Filter = "rejected"
)

func ParseFilter(raw string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterPending, FilterApproved, FilterRejected:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q", raw)
	}
}

func (f Filter) Match(s Status) bool {
	switch f {
	case FilterPending:
		return s == StatusPending
	case FilterApproved:
		return s == StatusApproved
	case FilterRejected:
		return s == StatusRejected
	default:
		return true
	}
}

type Application struct {
	ID          uint64          `json:"id"`
	Applicant   common.Address  `json:"applicant"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Location    string          `json:"location"`
	Business    string          `json:"business"`
	Story       string          `json:"story"`
	Amount      decimal.Decimal `json:"amount"`
	SubmittedAt time.Time       `json:"submitted_at"`
	Status      Status          `json:"status"`
}

// Personal holds the phase 1 fields.
type Personal struct {
	Name     string
	Email    string
	Phone    string
	Location string
}

// Business holds the phase 2 fields. Amount is in major units.
type Business struct {
	Business string
	Story    string
	Amount   decimal.Decimal
}

// Raw is the untyped shape read from the registry's per-field getters.
type Raw struct {
	Applicant common.Address
	Name      string
	Email     string
	Phone     string
	Location  string
	Business  string
	Story     string
	Amount    *big.Int
	Timestamp *big.Int
	Status    uint8
}

func Decode(id uint64, raw Raw) (Application, error) {
	if id == 0 {
		return Application{}, fmt.Errorf("%w: zero id", ErrMalformed)
	}
	if raw.Applicant == (common.Address{}) {
		return Application{}, fmt.Errorf("%w: #%d zero applicant", ErrMalformed, id)
	}
	if raw.Amount == nil || raw.Amount.Sign() < 0 {
		return Application{}, fmt.Errorf("%w: #%d bad amount", ErrMalformed, id)
	}
	if raw.Timestamp == nil || raw.Timestamp.Sign() < 0 || !raw.Timestamp.IsInt64() {
		return Application{}, fmt.Errorf("%w: #%d bad timestamp", ErrMalformed, id)
	}
	status, err := ParseStatus(raw.Status)
	if err != nil {
		return Application{}, fmt.Errorf("%w: #%d: %v", ErrMalformed, id, err)
	}
	for _, s := range []string{raw.Name, raw.Email, raw.Phone, raw.Location, raw.Business, raw.Story} {
		if !utf8.ValidString(s) {
			return Application{}, fmt.Errorf("%w: #%d invalid utf-8", ErrMalformed, id)
		}
	}
	return Application{
		ID:          id,
		Applicant:   raw.Applicant,
		Name:        raw.Name,
		Email:       raw.Email,
		Phone:       raw.Phone,
		Location:    raw.Location,
		Business:    raw.Business,
		Story:       raw.Story,
		Amount:      units.FromWei(raw.Amount),
		SubmittedAt: time.Unix(raw.Timestamp.Int64(), 0).UTC(),
		Status:      status,
	}, nil
}
