// Package sequence executes ordered multi-step ledger workflows. Each step
// runs only after the previous one completed; a write step completes when its
// transaction is confirmed. A failure after any confirmed write is reported
// as an *apperr.PartialSequenceError and never rolled back.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"microlend/internal/domain/apperr"
	"microlend/internal/domain/journal"
	"microlend/internal/domain/ledger"
	"microlend/internal/infrastructure/metrics"
	"microlend/pkg/id"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Result is what a step reports back to the runner.
type Result struct {
	TxHash  common.Hash
	Skipped bool
}

type Step struct {
	Name string
	// Write marks steps that submit a transaction.
	Write bool
	Run   func(ctx context.Context) (Result, error)
}

// Sequence is one workflow execution.
type Sequence struct {
	Name   string
	Caller common.Address
	Steps  []Step
	// Subject reports the record the run concerns, evaluated when the run ends.
	Subject func() uint64
}

type StepOutcome struct {
	Name   string             `json:"name"`
	Status journal.StepStatus `json:"status"`
	TxHash *common.Hash       `json:"tx_hash,omitempty"`
}

type Outcome struct {
	RunID string        `json:"run_id"`
	Steps []StepOutcome `json:"steps"`
}

// Tx returns the hash recorded for a named step, if any.
func (o *Outcome) Tx(step string) *common.Hash {
	if o == nil {
		return nil
	}
	for _, s := range o.Steps {
		if s.Name == step {
			return s.TxHash
		}
	}
	return nil
}

// DefaultTimeout bounds one sequence once it has started.
const DefaultTimeout = 5 * time.Minute

type Runner struct {
	journal journal.Repository
	metrics *metrics.Metrics
	log     *zap.Logger
	timeout time.Duration
}

type Option func(*Runner)

func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRunner: journal and metrics may be nil.
func NewRunner(j journal.Repository, m *metrics.Metrics, log *zap.Logger, opts ...Option) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Runner{journal: j, metrics: m, log: log, timeout: DefaultTimeout}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Execute runs seq to completion. A caller already cancelled gets ctx.Err()
// and nothing is submitted. Once started, the run is detached from the
// caller's cancellation and bounded only by the runner timeout, so an
// abandoned request cannot stop a sequence between confirmed writes.
func (r *Runner) Execute(ctx context.Context, seq Sequence) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	out := &Outcome{RunID: id.NewID32()}
	log := r.log.With(zap.String("sequence", seq.Name), zap.String("run_id", out.RunID))

	run := r.start(ctx, log, seq, out.RunID)

	var (
		completed []string
		confirmed bool
	)
	for i, step := range seq.Steps {
		res, err := runStep(ctx, step)
		so := StepOutcome{Name: step.Name}
		if res.TxHash != (common.Hash{}) {
			h := res.TxHash
			so.TxHash = &h
		}

		switch {
		case err != nil:
			so.Status = journal.StepFailed
		case res.Skipped:
			so.Status = journal.StepSkipped
		case step.Write:
			so.Status = journal.StepConfirmed
		default:
			so.Status = journal.StepCompleted
		}
		out.Steps = append(out.Steps, so)
		r.metrics.StepObserved(seq.Name, step.Name, string(so.Status))
		r.recordStep(ctx, log, run, i, so, err)

		if err != nil {
			subject := subjectOf(seq)
			if confirmed {
				perr := &apperr.PartialSequenceError{
					Sequence:   seq.Name,
					RunID:      out.RunID,
					Completed:  completed,
					FailedStep: step.Name,
					SubjectID:  subject,
					Err:        err,
				}
				log.Error("sequence partially applied",
					zap.Strings("completed", completed), zap.String("failed_step", step.Name), zap.Error(err))
				r.finish(ctx, log, seq.Name, run, journal.RunPartial, subject, perr)
				return out, perr
			}
			log.Warn("sequence failed", zap.String("failed_step", step.Name), zap.Error(err))
			r.finish(ctx, log, seq.Name, run, journal.RunFailed, subject, err)
			return out, fmt.Errorf("%s: %s: %w", seq.Name, step.Name, err)
		}

		if so.Status == journal.StepConfirmed {
			confirmed = true
		}
		if !res.Skipped {
			completed = append(completed, step.Name)
		}
	}

	r.finish(ctx, log, seq.Name, run, journal.RunSucceeded, subjectOf(seq), nil)
	log.Info("sequence completed", zap.Strings("steps", completed))
	return out, nil
}

func runStep(ctx context.Context, step Step) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return step.Run(ctx)
}

func subjectOf(seq Sequence) uint64 {
	if seq.Subject == nil {
		return 0
	}
	return seq.Subject()
}

// Journal writes never fail a run; the ledger is the source of truth.
func (r *Runner) start(ctx context.Context, log *zap.Logger, seq Sequence, runID string) *journal.Run {
	if r.journal == nil {
		return nil
	}
	run := &journal.Run{
		RunID:    runID,
		Sequence: seq.Name,
		Caller:   seq.Caller.Hex(),
		Status:   journal.RunRunning,
	}
	if err := r.journal.Start(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("journal start failed", zap.Error(err))
		return nil
	}
	return run
}

func (r *Runner) recordStep(ctx context.Context, log *zap.Logger, run *journal.Run, pos int, so StepOutcome, stepErr error) {
	if run == nil {
		return
	}
	s := &journal.Step{
		RunID:    run.ID,
		Position: pos,
		Name:     so.Name,
		Status:   so.Status,
	}
	if so.TxHash != nil {
		s.TxHash = so.TxHash.Hex()
	}
	if stepErr != nil {
		s.Error = stepErr.Error()
	}
	if err := r.journal.RecordStep(context.WithoutCancel(ctx), s); err != nil {
		log.Warn("journal step failed", zap.String("step", so.Name), zap.Error(err))
	}
}

func (r *Runner) finish(ctx context.Context, log *zap.Logger, name string, run *journal.Run, status journal.RunStatus, subject uint64, runErr error) {
	r.metrics.RunFinished(name, string(status))
	if run == nil {
		return
	}
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	if err := r.journal.Finish(context.WithoutCancel(ctx), run.ID, status, subject, msg); err != nil {
		log.Warn("journal finish failed", zap.Error(err))
	}
}

// Read adapts a read-only check into a step.
func Read(name string, fn func(ctx context.Context) error) Step {
	return Step{Name: name, Run: func(ctx context.Context) (Result, error) {
		return Result{}, fn(ctx)
	}}
}

// Write builds a step that submits a transaction and waits for its
// confirmation. onConfirmed, if set, inspects the receipt.
func Write(name string, c ledger.Confirmer, submit func(ctx context.Context) (ledger.Tx, error), onConfirmed func(ledger.Receipt) error) Step {
	return Step{Name: name, Write: true, Run: func(ctx context.Context) (Result, error) {
		tx, err := submit(ctx)
		if err != nil {
			return Result{}, err
		}
		rcpt, err := c.WaitConfirmed(ctx, tx)
		if err != nil {
			return Result{TxHash: tx.Hash}, err
		}
		if onConfirmed != nil {
			if err := onConfirmed(rcpt); err != nil {
				return Result{TxHash: tx.Hash}, err
			}
		}
		return Result{TxHash: tx.Hash}, nil
	}}
}

// WriteIf is Write guarded by need; when need reports false the step is skipped.
func WriteIf(name string, c ledger.Confirmer, need func() bool, submit func(ctx context.Context) (ledger.Tx, error)) Step {
	w := Write(name, c, submit, nil)
	return Step{Name: name, Write: true, Run: func(ctx context.Context) (Result, error) {
		if !need() {
			return Result{Skipped: true}, nil
		}
		return w.Run(ctx)
	}}
}

// IsPartial reports whether err is a partially applied sequence.
func IsPartial(err error) bool {
	var pe *apperr.PartialSequenceError
	return errors.As(err, &pe)
}
