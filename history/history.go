// Package history persists finished test runs.
package history

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrRunNotFound is returned when a run is not found.
	ErrRunNotFound = errors.New("run not found")

	// ErrInvalidTestID is returned when test_id is not set.
	ErrInvalidTestID = errors.New("test_id is required")

	// ErrInvalidStatus is returned when status is not PASS, FAIL or ERROR.
	ErrInvalidStatus = errors.New("invalid status")
)

// Run statuses, mirroring the reported test status.
const (
	StatusPass  = "PASS"
	StatusFail  = "FAIL"
	StatusError = "ERROR"
)

// Run is the stored record of one finished test run.
type Run struct {
	ID              uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	TestID          string    `json:"test_id" gorm:"type:varchar(255);not null;index:idx_runs_test_id"`
	Status          string    `json:"status" gorm:"type:varchar(10);not null;index:idx_runs_status"`
	Browser         string    `json:"browser" gorm:"type:varchar(20)"`
	URL             string    `json:"url" gorm:"type:text"`
	Duration        float64   `json:"duration"`
	StepsExecuted   int       `json:"steps_executed"`
	StepsPassed     int       `json:"steps_passed"`
	StepsFailed     int       `json:"steps_failed"`
	ErrorMessage    string    `json:"error_message,omitempty" gorm:"type:text"`
	ScreenshotURL   string    `json:"screenshot_url,omitempty" gorm:"type:text"`
	DetailedResults JSON      `json:"detailed_results" gorm:"type:mediumtext"`
	FinishedAt      time.Time `json:"finished_at" gorm:"index:idx_runs_finished_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName pins the table name used by the migrations.
func (Run) TableName() string {
	return "runs"
}

// BeforeCreate hook to generate UUID before creating a new run
func (r *Run) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Validate checks if the run has valid required fields.
func (r *Run) Validate() error {
	if r.TestID == "" {
		return ErrInvalidTestID
	}
	switch r.Status {
	case StatusPass, StatusFail, StatusError:
		return nil
	default:
		return ErrInvalidStatus
	}
}
