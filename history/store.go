package history

import (
	"context"

	"github.com/google/uuid"
)

// Default and maximum page sizes for List.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListFilter narrows and paginates List.
type ListFilter struct {
	TestID string
	Limit  int
	Offset int
}

// Store defines the interface for run history persistence operations.
type Store interface {
	// Create stores a finished run.
	Create(ctx context.Context, run *Run) error

	// GetByID retrieves a run by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)

	// List retrieves runs, newest first.
	List(ctx context.Context, filter ListFilter) ([]*Run, error)

	// Count returns the number of runs matching the filter, ignoring pagination.
	Count(ctx context.Context, filter ListFilter) (int, error)
}
