// Package apperr defines the failure taxonomy surfaced by the lending engine.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type Kind string

const (
	KindValidation      Kind = "validation"
	KindCapability      Kind = "capability"
	KindPartialSequence Kind = "partial_sequence"
	KindLedgerRejection Kind = "ledger_rejection"
	KindTransientRead   Kind = "transient_read"
	KindUnknown         Kind = "unknown"
)

// ValidationError: caller input violates a precondition. Raised before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// Invalid is shorthand for a *ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// CapabilityError: the caller is not the registry owner.
type CapabilityError struct {
	Action string
	Caller common.Address
	Owner  common.Address
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability: %s requires registry owner %s, caller is %s", e.Action, e.Owner.Hex(), e.Caller.Hex())
}

// PartialSequenceError: a multi-step sequence confirmed at least one write
// and then failed. Completed lists the steps that finished, in order.
type PartialSequenceError struct {
	Sequence   string
	RunID      string
	Completed  []string
	FailedStep string
	SubjectID  uint64
	Err        error
}

func (e *PartialSequenceError) Error() string {
	return fmt.Sprintf("partial sequence %s: completed [%s], failed at %s: %v",
		e.Sequence, strings.Join(e.Completed, ", "), e.FailedStep, e.Err)
}

func (e *PartialSequenceError) Unwrap() error { return e.Err }

// ResumeFrom names the first step a manual retry would have to run.
func (e *PartialSequenceError) ResumeFrom() string { return e.FailedStep }

// LedgerRejection: the ledger declined a write. Reason is the ledger's own
// message when one was available.
type LedgerRejection struct {
	Step   string
	Reason string
	TxHash common.Hash
	Err    error
}

func (e *LedgerRejection) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "no reason given"
	}
	if e.Step == "" {
		return "ledger rejected: " + reason
	}
	return fmt.Sprintf("ledger rejected %s: %s", e.Step, reason)
}

func (e *LedgerRejection) Unwrap() error { return e.Err }

// TransientReadError: a single record read inside a listing failed.
type TransientReadError struct {
	Record string
	ID     uint64
	Err    error
}

func (e *TransientReadError) Error() string {
	return fmt.Sprintf("read %s #%d: %v", e.Record, e.ID, e.Err)
}

func (e *TransientReadError) Unwrap() error { return e.Err }

// KindOf classifies err. A partial sequence wins over whatever caused it.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var (
		pe *PartialSequenceError
		ve *ValidationError
		ce *CapabilityError
		lr *LedgerRejection
		tr *TransientReadError
	)
	switch {
	case errors.As(err, &pe):
		return KindPartialSequence
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &ce):
		return KindCapability
	case errors.As(err, &lr):
		return KindLedgerRejection
	case errors.As(err, &tr):
		return KindTransientRead
	default:
		return KindUnknown
	}
}
