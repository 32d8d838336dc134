// Package funding builds the read model of the Loan Registry. Every call is
// a fresh snapshot; nothing is cached between calls.
package funding

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"microlend/internal/domain/apperr"
	"microlend/internal/domain/loan"
	"microlend/internal/infrastructure/metrics"
	"microlend/pkg/units"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

type Usecase struct {
	registry    loan.Registry
	log         *zap.Logger
	metrics     *metrics.Metrics
	concurrency int
}

type Option func(*Usecase)

func WithLogger(l *zap.Logger) Option {
	return func(u *Usecase) {
		if l != nil {
			u.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(u *Usecase) { u.metrics = m }
}

// WithConcurrency bounds how many loans are fetched at once.
func WithConcurrency(n int) Option {
	return func(u *Usecase) {
		if n > 0 {
			u.concurrency = n
		}
	}
}

func NewUsecase(r loan.Registry, opts ...Option) *Usecase {
	u := &Usecase{registry: r, log: zap.NewNop(), concurrency: defaultConcurrency}
	for _, o := range opts {
		o(u)
	}
	return u
}

// ListActiveLoans returns active loans, most recently created first. A loan
// whose fields cannot be read or decoded is logged and left out.
func (u *Usecase) ListActiveLoans(ctx context.Context) ([]loan.Loan, error) {
	count, err := u.registry.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("loan count: %w", err)
	}

	slots := make([]*loan.Loan, count)
	g := new(errgroup.Group)
	g.SetLimit(u.concurrency)
	for i := uint64(0); i < count; i++ {
		g.Go(func() error {
			l, err := u.fetch(ctx, i+1)
			if err != nil {
				if ctx.Err() == nil {
					u.skip(&apperr.TransientReadError{Record: "loan", ID: i + 1, Err: err})
				}
				return nil
			}
			slots[i] = &l
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]loan.Loan, 0, len(slots))
	for i := len(slots) - 1; i >= 0; i-- {
		if l := slots[i]; l != nil && l.Active {
			out = append(out, *l)
		}
	}
	return out, nil
}

// Get reads one loan fresh from the registry.
func (u *Usecase) Get(ctx context.Context, id uint64) (loan.Loan, error) {
	count, err := u.registry.Count(ctx)
	if err != nil {
		return loan.Loan{}, fmt.Errorf("loan count: %w", err)
	}
	if id == 0 || id > count {
		return loan.Loan{}, loan.ErrNotFound
	}
	return u.fetch(ctx, id)
}

type Stats struct {
	BorrowerCount   uint64 `json:"borrower_count"`
	TotalLoansValue string `json:"total_loans_value"`
}

func (u *Usecase) Stats(ctx context.Context) (Stats, error) {
	var (
		count uint64
		total *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		count, err = u.registry.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		total, err = u.registry.TotalLoansValue(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return Stats{BorrowerCount: count, TotalLoansValue: units.FromWei(total).String()}, nil
}

// fetch joins the per-field reads of one loan and decodes them.
func (u *Usecase) fetch(ctx context.Context, id uint64) (loan.Loan, error) {
	var raw loan.Raw
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { raw.Name, err = u.registry.Name(gctx, id); return })
	g.Go(func() (err error) { raw.Location, err = u.registry.Location(gctx, id); return })
	g.Go(func() (err error) { raw.Business, err = u.registry.Business(gctx, id); return })
	g.Go(func() (err error) { raw.Story, err = u.registry.Story(gctx, id); return })
	g.Go(func() (err error) { raw.Photo, err = u.registry.Photo(gctx, id); return })
	g.Go(func() (err error) { raw.Requested, err = u.registry.RequestedAmount(gctx, id); return })
	g.Go(func() (err error) { raw.Funded, err = u.registry.FundedAmount(gctx, id); return })
	g.Go(func() (err error) { raw.Active, err = u.registry.IsActive(gctx, id); return })
	if err := g.Wait(); err != nil {
		return loan.Loan{}, err
	}
	return loan.Decode(id, raw)
}

func (u *Usecase) skip(err *apperr.TransientReadError) {
	u.metrics.RecordSkipped(err.Record)
	fields := []zap.Field{zap.String("record", err.Record), zap.Uint64("id", err.ID), zap.Error(err.Err)}
	if errors.Is(err, loan.ErrMalformed) {
		u.log.Warn("malformed record excluded from listing", fields...)
		return
	}
	u.log.Warn("record read failed, excluded from listing", fields...)
}
