package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// MemoryWizardDraftRepository keeps drafts in process memory.
type MemoryWizardDraftRepository struct {
	mutex  sync.RWMutex
	drafts map[string]*domain.WizardDraft
	now    func() time.Time
}

func NewMemoryWizardDraftRepository() *MemoryWizardDraftRepository {
	return &MemoryWizardDraftRepository{drafts: make(map[string]*domain.WizardDraft), now: time.Now}
}

func copyDraft(d *domain.WizardDraft) *domain.WizardDraft {
	out := &domain.WizardDraft{}
	opt := copier.Option{DeepCopy: true}
	if err := copier.CopyWithOption(out, d, opt); err != nil {
		c := *d
		return &c
	}
	// AssistantDraft is a sql.Scanner, which copier assigns without descending.
	_ = copier.CopyWithOption(&out.Draft, &d.Draft, opt)
	return out
}

func (r *MemoryWizardDraftRepository) Create(_ context.Context, draft *domain.WizardDraft) (*domain.WizardDraft, error) {
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	if draft.Step == 0 {
		draft.Step = 1
	}
	if draft.Furthest < draft.Step {
		draft.Furthest = draft.Step
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, exists := r.drafts[draft.ID]; exists {
		return nil, fmt.Errorf("wizard draft already exists: %s", draft.ID)
	}
	now := r.now()
	draft.CreatedAt = now
	draft.UpdatedAt = now
	r.drafts[draft.ID] = copyDraft(draft)
	return draft, nil
}

func (r *MemoryWizardDraftRepository) GetByID(_ context.Context, id string) (*domain.WizardDraft, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	d, ok := r.drafts[id]
	if !ok {
		return nil, fmt.Errorf("wizard draft %s: %w", id, domain.ErrNotFound)
	}
	return copyDraft(d), nil
}

func (r *MemoryWizardDraftRepository) GetByOperator(_ context.Context, operator string) ([]*domain.WizardDraft, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	out := make([]*domain.WizardDraft, 0)
	for _, d := range r.drafts {
		if d.Operator == operator {
			out = append(out, copyDraft(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *MemoryWizardDraftRepository) Save(_ context.Context, draft *domain.WizardDraft) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	existing, ok := r.drafts[draft.ID]
	if !ok {
		return fmt.Errorf("wizard draft %s: %w", draft.ID, domain.ErrNotFound)
	}
	next := copyDraft(draft)
	next.Operator = existing.Operator
	next.CreatedAt = existing.CreatedAt
	next.UpdatedAt = r.now()
	r.drafts[draft.ID] = next
	return nil
}

func (r *MemoryWizardDraftRepository) Delete(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.drafts[id]; !ok {
		return fmt.Errorf("wizard draft %s: %w", id, domain.ErrNotFound)
	}
	delete(r.drafts, id)
	return nil
}

// MemoryRepositoryManager implements RepositoryManager without a database.
type MemoryRepositoryManager struct {
	drafts *MemoryWizardDraftRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{drafts: NewMemoryWizardDraftRepository()}
}

func (m *MemoryRepositoryManager) WizardDraft() WizardDraftRepository { return m.drafts }

// WithTx runs fn directly; the memory store has no transactions.
func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos RepositoryManager) error) error {
	return fn(ctx, m)
}

func (m *MemoryRepositoryManager) Ping(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Close() error { return nil }
