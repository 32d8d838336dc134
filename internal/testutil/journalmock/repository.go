package journalmock

import (
	"context"

	"microlend/internal/domain/journal"
)

// Repo is a function-backed mock that satisfies journal.Repository.
type Repo struct {
	StartFn        func(ctx context.Context, r *journal.Run) error
	RecordStepFn   func(ctx context.Context, s *journal.Step) error
	FinishFn       func(ctx context.Context, id uint64, status journal.RunStatus, subjectID uint64, errMsg string) error
	GetByRunIDFn   func(ctx context.Context, runID string) (*journal.Run, error)
	ListByStatusFn func(ctx context.Context, status journal.RunStatus, limit int) ([]journal.Run, error)
}

func (m *Repo) Start(ctx context.Context, r *journal.Run) error {
	if m.StartFn != nil {
		return m.StartFn(ctx, r)
	}
	return nil
}

func (m *Repo) RecordStep(ctx context.Context, s *journal.Step) error {
	if m.RecordStepFn != nil {
		return m.RecordStepFn(ctx, s)
	}
	return nil
}

func (m *Repo) Finish(ctx context.Context, id uint64, status journal.RunStatus, subjectID uint64, errMsg string) error {
	if m.FinishFn != nil {
		return m.FinishFn(ctx, id, status, subjectID, errMsg)
	}
	return nil
}

func (m *Repo) GetByRunID(ctx context.Context, runID string) (*journal.Run, error) {
	if m.GetByRunIDFn != nil {
		return m.GetByRunIDFn(ctx, runID)
	}
	return nil, journal.ErrNotFound
}

func (m *Repo) ListByStatus(ctx context.Context, status journal.RunStatus, limit int) ([]journal.Run, error) {
	if m.ListByStatusFn != nil {
		return m.ListByStatusFn(ctx, status, limit)
	}
	return nil, nil
}
