package journal

import "context"

type Repository interface {
	// Start inserts a running Run and fills its numeric ID.
	Start(ctx context.Context, r *Run) error

	// RecordStep appends one step outcome to an existing run.
	RecordStep(ctx context.Context, s *Step) error

	// Finish sets the terminal status of a run.
	Finish(ctx context.Context, id uint64, status RunStatus, subjectID uint64, errMsg string) error

	// GetByRunID loads a run with its steps by public run_id.
	GetByRunID(ctx context.Context, runID string) (*Run, error)

	// ListByStatus returns the most recent runs in a status, newest first.
	ListByStatus(ctx context.Context, status RunStatus, limit int) ([]Run, error)
}
