// Package history persists advisor runs to a local SQLite database so
// past questions and answers survive restarts and can be reviewed.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Record is one completed advisor run.
type Record struct {
	ID         uint   `gorm:"primaryKey"`
	RunID      string `gorm:"index;size:64"`
	SessionID  string `gorm:"index;size:64"`
	Agent      string `gorm:"size:128"`
	Input      string
	Output     string
	TokensUsed int
	Success    bool
	Error      string
	DurationMS int64
	CreatedAt  time.Time
}

// Store reads and writes run records.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open creates or opens the database at path and migrates the schema.
// Use ":memory:" for an ephemeral store.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate history schema: %w", err)
	}

	logger.Info("history store opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Save persists one run record.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("save history record: %w", err)
	}
	return nil
}

// Recent returns the newest records, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []Record
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("load recent history: %w", err)
	}
	return records, nil
}

// BySession returns a session's records in chronological order.
func (s *Store) BySession(ctx context.Context, sessionID string) ([]Record, error) {
	var records []Record
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("load session history: %w", err)
	}
	return records, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
