package mysql

import (
	"context"
	"errors"
	"time"

	"microlend/internal/domain/journal"

	"gorm.io/gorm"
)

type JournalRepository struct{ db *gorm.DB }

func NewJournalRepository(db *gorm.DB) *JournalRepository { return &JournalRepository{db: db} }

func (r *JournalRepository) Start(ctx context.Context, run *journal.Run) error {
	return r.db.WithContext(ctx).Omit("Steps").Create(run).Error
}

func (r *JournalRepository) RecordStep(ctx context.Context, s *journal.Step) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *JournalRepository) Finish(ctx context.Context, id uint64, status journal.RunStatus, subjectID uint64, errMsg string) error {
	res := r.db.WithContext(ctx).
		Model(&journal.Run{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"subject_id": subjectID,
			"error":      errMsg,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return journal.ErrNotFound
	}
	return nil
}

func (r *JournalRepository) GetByRunID(ctx context.Context, runID string) (*journal.Run, error) {
	var out journal.Run
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("run_id = ?", runID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, journal.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *JournalRepository) ListByStatus(ctx context.Context, status journal.RunStatus, limit int) ([]journal.Run, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []journal.Run
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("status = ?", status).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Prune deletes succeeded and failed runs last updated before cutoff, with
// their steps. Running and partial runs are kept for operators.
func (r *JournalRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	done := []journal.RunStatus{journal.RunSucceeded, journal.RunFailed}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := tx.Model(&journal.Run{}).Select("id").Where("status IN ? AND updated_at < ?", done, cutoff)
		if err := tx.Where("run_id IN (?)", ids).Delete(&journal.Step{}).Error; err != nil {
			return err
		}
		res := tx.Where("status IN ? AND updated_at < ?", done, cutoff).Delete(&journal.Run{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}
