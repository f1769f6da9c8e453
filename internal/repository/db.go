package repository

import (
	"context"
	"fmt"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"gorm.io/gorm"
)

// WizardDraftRepository stores in-progress wizard sessions.
type WizardDraftRepository interface {
	Create(ctx context.Context, draft *domain.WizardDraft) (*domain.WizardDraft, error)
	GetByID(ctx context.Context, id string) (*domain.WizardDraft, error)
	GetByOperator(ctx context.Context, operator string) ([]*domain.WizardDraft, error)
	Save(ctx context.Context, draft *domain.WizardDraft) error
	Delete(ctx context.Context, id string) error
}

// RepositoryManager combines all repositories
type RepositoryManager interface {
	WizardDraft() WizardDraftRepository

	// Transaction support
	WithTx(ctx context.Context, fn func(ctx context.Context, repos RepositoryManager) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connection
	Close() error
}

// GormRepositoryManager implements RepositoryManager using GORM
type GormRepositoryManager struct {
	db              *gorm.DB
	wizardDraftRepo *GormWizardDraftRepository
}

// NewGormRepositoryManager creates a new GORM repository manager
func NewGormRepositoryManager(db *gorm.DB) *GormRepositoryManager {
	return &GormRepositoryManager{
		db:              db,
		wizardDraftRepo: NewGormWizardDraftRepository(db),
	}
}

// NewRepositoryManager connects to PostgreSQL when DB_HOST is set and
// migrates the schema; otherwise drafts live in process memory.
func NewRepositoryManager(ctx context.Context) (RepositoryManager, error) {
	if !IsDatabaseConfigured() {
		return NewMemoryRepositoryManager(), nil
	}

	db, err := NewDatabaseConnection(LoadDatabaseConfigFromEnv())
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to run auto migration: %w", err)
	}

	return NewGormRepositoryManager(db), nil
}

// WizardDraft returns the wizard draft repository
func (m *GormRepositoryManager) WizardDraft() WizardDraftRepository {
	return m.wizardDraftRepo
}

// WithTx executes a function within a database transaction
func (m *GormRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos RepositoryManager) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewGormRepositoryManager(tx))
	})
}

// Ping checks the database connection
func (m *GormRepositoryManager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (m *GormRepositoryManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
