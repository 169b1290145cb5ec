package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hairizuan-noorazman/demo-recorder/logger"
)

// Open opens (and migrates) the run catalog at the given sqlite path.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open run catalog: %w", err)
	}
	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("failed to migrate run catalog: %w", err)
	}
	return db, nil
}

// SQLiteStore implements the Store interface using GORM and SQLite.
type SQLiteStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewSQLiteStore creates a new sqlite-backed run store.
func NewSQLiteStore(db *gorm.DB, log logger.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:     db,
		logger: log,
	}
}

// Create records a new run in the catalog.
func (s *SQLiteStore) Create(ctx context.Context, r *Run) error {
	if err := r.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		s.logger.Error(ctx, "failed to create run", map[string]interface{}{
			"error": err.Error(),
			"title": r.Title,
		})
		return err
	}

	s.logger.Info(ctx, "run created", map[string]interface{}{
		"run_id": r.ID.String(),
		"title":  r.Title,
	})

	return nil
}

// GetByID retrieves a run by its ID.
func (s *SQLiteStore) GetByID(ctx context.Context, id uuid.UUID) (*Run, error) {
	var r Run
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&r).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		s.logger.Error(ctx, "failed to get run by ID", map[string]interface{}{
			"error":  err.Error(),
			"run_id": id.String(),
		})
		return nil, err
	}

	return &r, nil
}

// List retrieves a paginated list of runs, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Run, error) {
	var runs []*Run
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&runs).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list runs", map[string]interface{}{
			"error":  err.Error(),
			"limit":  limit,
			"offset": offset,
		})
		return nil, err
	}

	return runs, nil
}

// Count returns the total number of recorded runs.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Run{}).
		Count(&count).Error

	if err != nil {
		s.logger.Error(ctx, "failed to count runs", map[string]interface{}{
			"error": err.Error(),
		})
		return 0, err
	}

	return int(count), nil
}

// Start marks a run as in progress.
func (s *SQLiteStore) Start(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, func(r *Run) error {
		return r.Start()
	})
}

// Complete marks a run as finished with its deliverable paths.
func (s *SQLiteStore) Complete(ctx context.Context, id uuid.UUID, outputs Outputs) error {
	return s.transition(ctx, id, func(r *Run) error {
		return r.Complete(outputs)
	})
}

// Fail marks a run as failed with the causing error message.
func (s *SQLiteStore) Fail(ctx context.Context, id uuid.UUID, message string) error {
	return s.transition(ctx, id, func(r *Run) error {
		return r.Fail(message)
	})
}

func (s *SQLiteStore) transition(ctx context.Context, id uuid.UUID, apply func(*Run) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r Run
		if err := tx.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRunNotFound
			}
			return err
		}

		if err := apply(&r); err != nil {
			return err
		}

		return tx.WithContext(ctx).Save(&r).Error
	})

	if err != nil {
		s.logger.Error(ctx, "failed to transition run", map[string]interface{}{
			"error":  err.Error(),
			"run_id": id.String(),
		})
		return err
	}

	return nil
}
