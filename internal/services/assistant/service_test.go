package assistant

import (
	"context"
	"testing"

	"github.com/ClareAI/astra-voice-admin/internal/cache"
	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	items   map[string]domain.Assistant
	updated []domain.AssistantPayload
}

func (f *fakeAPI) ListAssistants(_ context.Context, userID string) ([]domain.Assistant, error) {
	var out []domain.Assistant
	for _, a := range f.items {
		if userID == "" || a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAPI) GetAssistant(_ context.Context, id string) (*domain.Assistant, error) {
	a, ok := f.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (f *fakeAPI) CreateAssistant(_ context.Context, req domain.AssistantPayload) (*domain.Assistant, error) {
	a := domain.Assistant{ID: "as-new", UserID: req.UserID, AgentName: req.AgentName, Status: domain.AssistantStatusDraft}
	f.items[a.ID] = a
	return &a, nil
}

func (f *fakeAPI) UpdateAssistant(_ context.Context, id string, req domain.AssistantPayload) (*domain.Assistant, error) {
	f.updated = append(f.updated, req)
	a := f.items[id]
	a.AgentName = req.AgentName
	f.items[id] = a
	return &a, nil
}

func (f *fakeAPI) UpdateAssistantStatus(_ context.Context, id string, status domain.AssistantStatus) (*domain.Assistant, error) {
	a := f.items[id]
	a.Status = status
	f.items[id] = a
	return &a, nil
}

func (f *fakeAPI) DeleteAssistant(_ context.Context, id string) error {
	delete(f.items, id)
	return nil
}

func fixture() (*fakeAPI, *AssistantService) {
	api := &fakeAPI{items: map[string]domain.Assistant{
		"as1": {ID: "as1", UserID: "u1", AgentName: "Support", Status: domain.AssistantStatusActive},
		"as2": {ID: "as2", UserID: "u2", AgentName: "Sales", Status: domain.AssistantStatusDraft},
	}}
	return api, NewAssistantService(api, cache.NewQueryCache(0))
}

func TestUpdate_KeepsOwner(t *testing.T) {
	ctx := context.Background()
	api, svc := fixture()

	_, err := svc.Update(ctx, "as1", domain.AssistantPayload{UserID: "u2", AgentName: "Moved"})
	require.ErrorIs(t, err, ErrOwnerImmutable)
	assert.Empty(t, api.updated)

	a, err := svc.Update(ctx, "as1", domain.AssistantPayload{AgentName: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", a.AgentName)
	require.Len(t, api.updated, 1)
	assert.Equal(t, "u1", api.updated[0].UserID)
}

func TestList_ByOwnerAndInvalidation(t *testing.T) {
	ctx := context.Background()
	_, svc := fixture()

	mine, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = svc.Create(ctx, domain.AssistantPayload{UserID: "u1", AgentName: "Second"})
	require.NoError(t, err)
	mine, err = svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = svc.Create(ctx, domain.AssistantPayload{AgentName: "Orphan"})
	assert.Error(t, err)
}

func TestSetStatusAndDelete(t *testing.T) {
	ctx := context.Background()
	_, svc := fixture()

	_, err := svc.SetStatus(ctx, "as2", "archived")
	assert.Error(t, err)

	a, err := svc.SetStatus(ctx, "as2", domain.AssistantStatusInactive)
	require.NoError(t, err)
	assert.Equal(t, domain.AssistantStatusInactive, a.Status)

	require.NoError(t, svc.Delete(ctx, "as2"))
	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
