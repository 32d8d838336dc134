package journal

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("journal run not found")

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunPartial   RunStatus = "partial"
)

type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepConfirmed StepStatus = "confirmed"
	StepSkipped   StepStatus = "skipped"
	StepFailed    StepStatus = "failed"
)

// Table: sequence_runs. One row per sequencer execution.
type Run struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	// Public identifier (32-char lowercase hex)
	RunID     string    `gorm:"column:run_id;type:char(32);not null;uniqueIndex:ux_sequence_runs_run_id" json:"run_id"`
	Sequence  string    `gorm:"column:sequence;size:64;not null;index:idx_sequence_runs_status" json:"sequence"`
	Caller    string    `gorm:"column:caller;type:char(42);not null" json:"caller"`
	SubjectID uint64    `gorm:"column:subject_id;not null;default:0" json:"subject_id"`
	Status    RunStatus `gorm:"column:status;size:16;not null;index:idx_sequence_runs_status" json:"status"`
	Error     string    `gorm:"column:error;type:text" json:"error,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	Steps     []Step    `gorm:"foreignKey:RunID;references:ID" json:"steps"`
}

func (Run) TableName() string { return "sequence_runs" }

// Table: sequence_steps. FK to sequence_runs.id (numeric).
type Step struct {
	ID        uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RunID     uint64     `gorm:"column:run_id;not null;index" json:"-"`
	Position  int        `gorm:"column:position;not null" json:"position"`
	Name      string     `gorm:"column:name;size:64;not null" json:"name"`
	Status    StepStatus `gorm:"column:status;size:16;not null" json:"status"`
	TxHash    string     `gorm:"column:tx_hash;type:char(66)" json:"tx_hash,omitempty"`
	Error     string     `gorm:"column:error;type:text" json:"error,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Step) TableName() string { return "sequence_steps" }
