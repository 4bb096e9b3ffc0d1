package history

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hairizuan-noorazman/browser-bridge/logger"
	"gorm.io/gorm"
)

// GormStore implements the Store interface using GORM.
type GormStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewGormStore creates a new GORM-backed run store.
func NewGormStore(db *gorm.DB, log logger.Logger) *GormStore {
	return &GormStore{
		db:     db,
		logger: log,
	}
}

// Create stores a finished run.
func (s *GormStore) Create(ctx context.Context, run *Run) error {
	if err := run.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		s.logger.Error(ctx, "failed to create run", map[string]interface{}{
			"error":   err.Error(),
			"test_id": run.TestID,
		})
		return err
	}

	s.logger.Debug(ctx, "run stored", map[string]interface{}{
		"run_id":  run.ID,
		"test_id": run.TestID,
		"status":  run.Status,
	})
	return nil
}

// GetByID retrieves a run by its ID.
func (s *GormStore) GetByID(ctx context.Context, id uuid.UUID) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&run).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		s.logger.Error(ctx, "failed to get run by ID", map[string]interface{}{
			"error":  err.Error(),
			"run_id": id,
		})
		return nil, err
	}

	return &run, nil
}

// List retrieves runs, newest first.
func (s *GormStore) List(ctx context.Context, filter ListFilter) ([]*Run, error) {
	filter = normalize(filter)

	var runs []*Run
	err := s.scoped(ctx, filter).
		Order("finished_at DESC").
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&runs).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list runs", map[string]interface{}{
			"error":   err.Error(),
			"test_id": filter.TestID,
			"limit":   filter.Limit,
			"offset":  filter.Offset,
		})
		return nil, err
	}

	return runs, nil
}

// Count returns the number of runs matching the filter.
func (s *GormStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	var count int64
	if err := s.scoped(ctx, filter).Count(&count).Error; err != nil {
		s.logger.Error(ctx, "failed to count runs", map[string]interface{}{
			"error":   err.Error(),
			"test_id": filter.TestID,
		})
		return 0, err
	}
	return int(count), nil
}

func (s *GormStore) scoped(ctx context.Context, filter ListFilter) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&Run{})
	if filter.TestID != "" {
		query = query.Where("test_id = ?", filter.TestID)
	}
	return query
}

func normalize(filter ListFilter) ListFilter {
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return filter
}
