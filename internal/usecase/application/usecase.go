// Package application runs the application workflow: two-phase submission,
// owner approval into a new loan, rejection, and listing.
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"microlend/internal/domain/apperr"
	"microlend/internal/domain/application"
	"microlend/internal/domain/ledger"
	"microlend/internal/domain/loan"
	"microlend/internal/infrastructure/metrics"
	"microlend/internal/usecase/sequence"
	"microlend/pkg/units"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency = 8
	// How many of the newest applications are scanned to find the one a
	// phase 1 write just created.
	resolveWindow = 16
)

// Notifier is told about fully submitted applications. Best effort.
type Notifier interface {
	ApplicationSubmitted(ctx context.Context, a application.Application) error
}

type Usecase struct {
	apps        application.Registry
	loans       loan.Registry
	confirmer   ledger.Confirmer
	runner      *sequence.Runner
	funding     common.Address
	caller      common.Address
	notifier    Notifier
	log         *zap.Logger
	metrics     *metrics.Metrics
	concurrency int
}

type Option func(*Usecase)

func WithNotifier(n Notifier) Option {
	return func(u *Usecase) { u.notifier = n }
}

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

func WithConcurrency(n int) Option {
	return func(u *Usecase) {
		if n > 0 {
			u.concurrency = n
		}
	}
}

// NewUsecase: funding is the token new loans are denominated in; caller is
// the signing account.
func NewUsecase(apps application.Registry, loans loan.Registry, c ledger.Confirmer, runner *sequence.Runner, funding, caller common.Address, opts ...Option) *Usecase {
	u := &Usecase{
		apps:        apps,
		loans:       loans,
		confirmer:   c,
		runner:      runner,
		funding:     funding,
		caller:      caller,
		log:         zap.NewNop(),
		concurrency: defaultConcurrency,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

func (u *Usecase) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if err := application.Validate(in.Personal, in.Business); err != nil {
		return nil, err
	}
	amount := units.ToWei(in.Business.Amount)

	var appID uint64
	out, err := u.runner.Execute(ctx, sequence.Sequence{
		Name:    SequenceSubmit,
		Caller:  u.caller,
		Subject: func() uint64 { return appID },
		Steps: []sequence.Step{
			sequence.Write(StepPhase1, u.confirmer, func(ctx context.Context) (ledger.Tx, error) {
				return u.apps.SubmitPhase1(ctx, in.Personal)
			}, nil),
			sequence.Read(StepResolveID, func(ctx context.Context) (err error) {
				appID, err = u.resolveOwnLatest(ctx)
				return err
			}),
			sequence.Write(StepPhase2, u.confirmer, func(ctx context.Context) (ledger.Tx, error) {
				return u.apps.SubmitPhase2(ctx, in.Business.Business, in.Business.Story, amount)
			}, nil),
		},
	})
	if err != nil {
		return nil, err
	}

	u.notify(ctx, application.Application{
		ID:        appID,
		Applicant: u.caller,
		Name:      in.Personal.Name,
		Email:     in.Personal.Email,
		Phone:     in.Personal.Phone,
		Location:  in.Personal.Location,
		Business:  in.Business.Business,
		Story:     in.Business.Story,
		Amount:    in.Business.Amount,
		Status:    application.StatusPending,
	})

	return &SubmitResult{
		RunID:         out.RunID,
		ApplicationID: appID,
		Phase1Tx:      out.Tx(StepPhase1),
		Phase2Tx:      out.Tx(StepPhase2),
	}, nil
}

// resolveOwnLatest finds the newest application filed by the caller.
func (u *Usecase) resolveOwnLatest(ctx context.Context) (uint64, error) {
	count, err := u.apps.Count(ctx)
	if err != nil {
		return 0, err
	}
	for id := count; id >= 1 && count-id < resolveWindow; id-- {
		who, err := u.apps.Applicant(ctx, id)
		if err != nil {
			return 0, err
		}
		if who == u.caller {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: no recent application from %s", application.ErrNotFound, u.caller.Hex())
}

func (u *Usecase) notify(ctx context.Context, a application.Application) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.ApplicationSubmitted(ctx, a); err != nil {
		u.log.Warn("application notification failed", zap.Uint64("application_id", a.ID), zap.Error(err))
	}
}

func (u *Usecase) Approve(ctx context.Context, in ApproveInput) (*ApproveResult, error) {
	photo := strings.TrimSpace(in.PhotoURL)
	if photo == "" {
		return nil, apperr.Invalid("photo_url", "is required")
	}
	if err := u.requireOwner(ctx, "approve"); err != nil {
		return nil, err
	}
	if err := u.requireLoanOwner(ctx); err != nil {
		return nil, err
	}
	if err := u.requirePending(ctx, in.ApplicationID); err != nil {
		return nil, err
	}

	var (
		approved application.Application
		loanID   uint64
	)
	out, err := u.runner.Execute(ctx, sequence.Sequence{
		Name:    SequenceApprove,
		Caller:  u.caller,
		Subject: func() uint64 { return in.ApplicationID },
		Steps: []sequence.Step{
			sequence.Write(StepApprove, u.confirmer, func(ctx context.Context) (ledger.Tx, error) {
				return u.apps.Approve(ctx, in.ApplicationID)
			}, nil),
			sequence.Read(StepReadApprove, func(ctx context.Context) (err error) {
				approved, err = u.fetch(ctx, in.ApplicationID)
				if err != nil {
					return err
				}
				if approved.Status != application.StatusApproved {
					return fmt.Errorf("%w: status is %s after approval", application.ErrInvalidTransition, approved.Status)
				}
				return nil
			}),
			sequence.Write(StepAddLoan, u.confirmer, func(ctx context.Context) (ledger.Tx, error) {
				return u.loans.AddLoan(ctx, loan.New{
					Name:     approved.Name,
					Location: approved.Location,
					Business: approved.Business,
					Story:    approved.Story,
					Photo:    photo,
					Amount:   units.ToWei(approved.Amount),
					Token:    u.funding,
				})
			}, func(r ledger.Receipt) error {
				// The loan exists once add-loan confirms, even without its id.
				id, err := u.loans.LoanCreated(r)
				if err != nil {
					u.log.Warn("loan id not found in add-loan receipt",
						zap.Uint64("application_id", in.ApplicationID), zap.Error(err))
					return nil
				}
				loanID = id
				return nil
			}),
		},
	})
	if err != nil {
		return nil, err
	}
	return &ApproveResult{
		RunID:         out.RunID,
		ApplicationID: in.ApplicationID,
		LoanID:        loanID,
		ApproveTx:     out.Tx(StepApprove),
		AddLoanTx:     out.Tx(StepAddLoan),
	}, nil
}

func (u *Usecase) Reject(ctx context.Context, id uint64) (*RejectResult, error) {
	if err := u.requireOwner(ctx, "reject"); err != nil {
		return nil, err
	}
	if err := u.requirePending(ctx, id); err != nil {
		return nil, err
	}
	out, err := u.runner.Execute(ctx, sequence.Sequence{
		Name:    SequenceReject,
		Caller:  u.caller,
		Subject: func() uint64 { return id },
		Steps: []sequence.Step{
			sequence.Write(StepReject, u.confirmer, func(ctx context.Context) (ledger.Tx, error) {
				return u.apps.Reject(ctx, id)
			}, nil),
		},
	})
	if err != nil {
		return nil, err
	}
	return &RejectResult{RunID: out.RunID, ApplicationID: id, RejectTx: out.Tx(StepReject)}, nil
}

func (u *Usecase) requireOwner(ctx context.Context, action string) error {
	owner, err := u.apps.Owner(ctx)
	if err != nil {
		return fmt.Errorf("application registry owner: %w", err)
	}
	if owner != u.caller {
		return &apperr.CapabilityError{Action: action, Caller: u.caller, Owner: owner}
	}
	return nil
}

// Approval ends in addLoan, so the caller must also own the loan registry.
func (u *Usecase) requireLoanOwner(ctx context.Context) error {
	owner, err := u.loans.Owner(ctx)
	if err != nil {
		return fmt.Errorf("loan registry owner: %w", err)
	}
	if owner != u.caller {
		return &apperr.CapabilityError{Action: "add loan", Caller: u.caller, Owner: owner}
	}
	return nil
}

func (u *Usecase) requirePending(ctx context.Context, id uint64) error {
	a, err := u.Get(ctx, id)
	if err != nil {
		return err
	}
	if a.Status != application.StatusPending {
		return fmt.Errorf("%w: #%d is %s", application.ErrInvalidTransition, id, a.Status)
	}
	return nil
}

func (u *Usecase) Get(ctx context.Context, id uint64) (application.Application, error) {
	count, err := u.apps.Count(ctx)
	if err != nil {
		return application.Application{}, fmt.Errorf("application count: %w", err)
	}
	if id == 0 || id > count {
		return application.Application{}, application.ErrNotFound
	}
	return u.fetch(ctx, id)
}

// List returns applications matching f, most recent first. Unreadable
// records are logged and left out.
func (u *Usecase) List(ctx context.Context, f application.Filter) ([]application.Application, error) {
	count, err := u.apps.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("application count: %w", err)
	}

	slots := make([]*application.Application, count)
	g := new(errgroup.Group)
	g.SetLimit(u.concurrency)
	for i := uint64(0); i < count; i++ {
		g.Go(func() error {
			a, err := u.fetch(ctx, i+1)
			if err != nil {
				if ctx.Err() == nil {
					u.skip(&apperr.TransientReadError{Record: "application", ID: i + 1, Err: err})
				}
				return nil
			}
			slots[i] = &a
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]application.Application, 0, len(slots))
	for i := len(slots) - 1; i >= 0; i-- {
		if a := slots[i]; a != nil && f.Match(a.Status) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (u *Usecase) fetch(ctx context.Context, id uint64) (application.Application, error) {
	var raw application.Raw
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { raw.Applicant, err = u.apps.Applicant(gctx, id); return })
	g.Go(func() (err error) { raw.Name, err = u.apps.Name(gctx, id); return })
	g.Go(func() (err error) { raw.Email, err = u.apps.Email(gctx, id); return })
	g.Go(func() (err error) { raw.Phone, err = u.apps.Phone(gctx, id); return })
	g.Go(func() (err error) { raw.Location, err = u.apps.Location(gctx, id); return })
	g.Go(func() (err error) { raw.Business, err = u.apps.Business(gctx, id); return })
	g.Go(func() (err error) { raw.Story, err = u.apps.Story(gctx, id); return })
	g.Go(func() (err error) { raw.Amount, err = u.apps.Amount(gctx, id); return })
	g.Go(func() (err error) { raw.Timestamp, err = u.apps.Timestamp(gctx, id); return })
	g.Go(func() (err error) { raw.Status, err = u.apps.Status(gctx, id); return })
	if err := g.Wait(); err != nil {
		return application.Application{}, err
	}
	return application.Decode(id, raw)
}

func (u *Usecase) skip(err *apperr.TransientReadError) {
	u.metrics.RecordSkipped(err.Record)
	msg := "record read failed, excluded from listing"
	if errors.Is(err, application.ErrMalformed) {
		msg = "malformed record excluded from listing"
	}
	u.log.Warn(msg, zap.String("record", err.Record), zap.Uint64("id", err.ID), zap.Error(err.Err))
}
