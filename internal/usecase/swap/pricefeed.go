package swap

import (
	"context"
	"sync"
	"time"

	"microlend/internal/infrastructure/metrics"

	"github.com/shopspring/decimal"
)

// DefaultPrice is used until the first successful refresh and whenever the
// source fails.
var DefaultPrice = decimal.RequireFromString("0.5")

// PriceSource fetches the native coin's price in USD stable units.
type PriceSource interface {
	NativePrice(ctx context.Context) (decimal.Decimal, error)
}

type Reference struct {
	Price     decimal.Decimal `json:"price"`
	Fallback  bool            `json:"fallback"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Feed holds the reference price. Quotes read it without touching the source.
type Feed struct {
	source  PriceSource
	metrics *metrics.Metrics
	now     func() time.Time

	mu  sync.RWMutex
	ref Reference
}

func NewFeed(src PriceSource, m *metrics.Metrics) *Feed {
	return &Feed{
		source:  src,
		metrics: m,
		now:     time.Now,
		ref:     Reference{Price: DefaultPrice, Fallback: true},
	}
}

func (f *Feed) Current() Reference {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ref
}

// Refresh pulls a new price. On failure the default price is installed and
// the source error returned.
func (f *Feed) Refresh(ctx context.Context) error {
	var (
		p   decimal.Decimal
		err error
	)
	if f.source == nil {
		err = errNoSource
	} else {
		p, err = f.source.NativePrice(ctx)
		if err == nil && !p.IsPositive() {
			err = errNonPositive
		}
	}

	ref := Reference{Price: p, UpdatedAt: f.now().UTC()}
	outcome := "ok"
	if err != nil {
		ref.Price = DefaultPrice
		ref.Fallback = true
		outcome = "fallback"
	}
	f.mu.Lock()
	f.ref = ref
	f.mu.Unlock()

	f.metrics.PriceRefreshed(outcome, ref.Price.InexactFloat64())
	return err
}
