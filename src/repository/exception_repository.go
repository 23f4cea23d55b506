package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ordermonitor/src/database"
	"ordermonitor/src/model"
)

// ErrJournalDisabled is returned by a repository with no database behind it.
var ErrJournalDisabled = errors.New("exception journal disabled")

// ExceptionRepository handles persistence of captured exceptions.
type ExceptionRepository struct {
	db *gorm.DB
}

// NewExceptionRepository creates a repository bound to the main database.
// It returns nil when the journal is disabled so callers can pass it
// straight to components that treat a nil journal as "log only".
func NewExceptionRepository() *ExceptionRepository {
	if database.MainDB == nil {
		logger.WithField("component", "ExceptionRepository").
			Info("MainDB not initialised, exception journal disabled")
		return nil
	}
	return &ExceptionRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *ExceptionRepository) WithDB(db *gorm.DB) *ExceptionRepository {
	logger.WithField("component", "ExceptionRepository").
		Debug("Creating ExceptionRepository with custom DB instance")

	return &ExceptionRepository{db: db}
}

// Create persists a new exception.
func (r *ExceptionRepository) Create(ctx context.Context, exc *model.Exception) error {
	if r == nil || r.db == nil {
		return ErrJournalDisabled
	}
	logger.WithFields(map[string]interface{}{
		"repo":    "ExceptionRepository",
		"op":      "Create",
		"service": exc.Service,
		"module":  exc.Module,
		"method":  exc.Method,
		"level":   exc.Level,
	}).Debug("Persisting system exception")

	return r.db.WithContext(ctx).Create(exc).Error
}

// ExceptionFilter narrows FindLatest. Empty fields match everything.
type ExceptionFilter struct {
	Module string
	Level  string
	Limit  int
}

// FindLatest returns the newest exceptions first.
func (r *ExceptionRepository) FindLatest(ctx context.Context, filter ExceptionFilter) ([]model.Exception, error) {
	if r == nil || r.db == nil {
		return nil, ErrJournalDisabled
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := r.db.WithContext(ctx).Model(&model.Exception{})
	if filter.Module != "" {
		query = query.Where("module = ?", filter.Module)
	}
	if filter.Level != "" {
		query = query.Where("level = ?", filter.Level)
	}

	var out []model.Exception
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "ExceptionRepository",
			"op":    "FindLatest",
			"limit": limit,
		}).WithError(err).Error("Failed to fetch latest exceptions")
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":  "ExceptionRepository",
		"op":    "FindLatest",
		"count": len(out),
	}).Debug("Fetched latest exceptions")

	return out, nil
}
