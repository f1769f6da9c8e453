package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormWizardDraftRepository implements WizardDraftRepository using GORM
type GormWizardDraftRepository struct {
	db *gorm.DB
}

// NewGormWizardDraftRepository creates a new GORM wizard draft repository
func NewGormWizardDraftRepository(db *gorm.DB) *GormWizardDraftRepository {
	return &GormWizardDraftRepository{db: db}
}

// Create inserts a draft, assigning an id when it has none.
func (r *GormWizardDraftRepository) Create(ctx context.Context, draft *domain.WizardDraft) (*domain.WizardDraft, error) {
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	if draft.Step == 0 {
		draft.Step = 1
	}
	if draft.Furthest < draft.Step {
		draft.Furthest = draft.Step
	}

	if err := r.db.WithContext(ctx).Create(draft).Error; err != nil {
		return nil, fmt.Errorf("failed to create wizard draft: %w", err)
	}
	return draft, nil
}

// GetByID retrieves a draft by ID
func (r *GormWizardDraftRepository) GetByID(ctx context.Context, id string) (*domain.WizardDraft, error) {
	var draft domain.WizardDraft
	if err := r.db.WithContext(ctx).First(&draft, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("wizard draft %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get wizard draft: %w", err)
	}
	return &draft, nil
}

// GetByOperator lists an operator's drafts, most recently updated first.
func (r *GormWizardDraftRepository) GetByOperator(ctx context.Context, operator string) ([]*domain.WizardDraft, error) {
	var drafts []*domain.WizardDraft
	if err := r.db.WithContext(ctx).
		Where("operator = ?", operator).
		Order("updated_at DESC").
		Find(&drafts).Error; err != nil {
		return nil, fmt.Errorf("failed to get wizard drafts: %w", err)
	}
	return drafts, nil
}

// Save writes the step position and draft body.
func (r *GormWizardDraftRepository) Save(ctx context.Context, draft *domain.WizardDraft) error {
	result := r.db.WithContext(ctx).Model(&domain.WizardDraft{}).Where("id = ?", draft.ID).Updates(map[string]interface{}{
		"assistant_id": draft.AssistantID,
		"step":         draft.Step,
		"furthest":     draft.Furthest,
		"draft":        draft.Draft,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to save wizard draft: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("wizard draft %s: %w", draft.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a draft
func (r *GormWizardDraftRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.WizardDraft{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete wizard draft: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("wizard draft %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
