package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleUsers() []domain.User {
	return []domain.User{
		{ID: "u1", Name: "Ada", IsApproval: domain.ApprovalPending},
		{ID: "u2", Name: "Grace", IsApproval: domain.ApprovalApproved},
	}
}

func TestFetch_UsesFreshEntryAndRefetchesAfterInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewQueryCache(0)
	calls := 0
	fetch := func(context.Context) ([]domain.User, error) {
		calls++
		return sampleUsers(), nil
	}

	_, err := Fetch(ctx, c, KeyUsers, fetch)
	require.NoError(t, err)
	_, err = Fetch(ctx, c, KeyUsers, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	c.Invalidate(KeyUsers)
	assert.True(t, c.Stale(KeyUsers))
	_, err = Fetch(ctx, c, KeyUsers, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestFetch_ConcurrentMissesShareOneRequest(t *testing.T) {
	c := NewQueryCache(0)
	var calls int32
	release := make(chan struct{})
	fetch := func(context.Context) ([]domain.User, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return sampleUsers(), nil
	}

	var wg sync.WaitGroup
	results := make([][]domain.User, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			users, err := Fetch(context.Background(), c, KeyUsers, fetch)
			assert.NoError(t, err)
			results[i] = users
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	results[0][0].Name = "changed"
	for _, r := range results[1:] {
		assert.Equal(t, "Ada", r[0].Name)
	}
}

func TestFetch_StaleAfter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewQueryCache(time.Minute)
	c.now = func() time.Time { return now }

	calls := 0
	fetch := func(context.Context) (int, error) { calls++; return calls, nil }

	v, _ := Fetch(ctx, c, "n", fetch)
	assert.Equal(t, 1, v)
	now = now.Add(30 * time.Second)
	v, _ = Fetch(ctx, c, "n", fetch)
	assert.Equal(t, 1, v)
	now = now.Add(time.Minute)
	v, _ = Fetch(ctx, c, "n", fetch)
	assert.Equal(t, 2, v)
}

func TestFetch_ErrorKeepsPreviousEntry(t *testing.T) {
	ctx := context.Background()
	c := NewQueryCache(0)
	Set(c, KeyUsers, sampleUsers())
	c.Invalidate(KeyUsers)

	_, err := Fetch(ctx, c, KeyUsers, func(context.Context) ([]domain.User, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)

	got, ok := Get[[]domain.User](c, KeyUsers)
	require.True(t, ok)
	assert.Len(t, got, 2)
}

func TestGet_ReturnsCopies(t *testing.T) {
	c := NewQueryCache(0)
	Set(c, KeyUsers, sampleUsers())

	got, ok := Get[[]domain.User](c, KeyUsers)
	require.True(t, ok)
	got[0].Name = "mutated"

	again, _ := Get[[]domain.User](c, KeyUsers)
	assert.Equal(t, "Ada", again[0].Name)
}

func TestInvalidatePrefix(t *testing.T) {
	c := NewQueryCache(0)
	Set(c, KeyAssignments, 1)
	Set(c, AssignmentsByUserKey("u1"), 2)
	Set(c, KeyAssistants, 3)
	Set(c, "voice-assignments-extra", 4)

	c.InvalidatePrefix(KeyAssignments)
	assert.True(t, c.Stale(KeyAssignments))
	assert.True(t, c.Stale(AssignmentsByUserKey("u1")))
	assert.False(t, c.Stale(KeyAssistants))
	assert.False(t, c.Stale("voice-assignments-extra"))
}

func toggle(id string) func([]domain.User) []domain.User {
	return func(users []domain.User) []domain.User {
		for i := range users {
			if users[i].ID == id {
				users[i].IsApproval = 1 - users[i].IsApproval
			}
		}
		return users
	}
}

func TestOptimistic_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	c := NewQueryCache(0)
	Set(c, KeyUsers, sampleUsers())

	err := Optimistic(ctx, c, KeyUsers, toggle("u1"), func(context.Context) error {
		provisional, _ := Get[[]domain.User](c, KeyUsers)
		assert.Equal(t, domain.ApprovalApproved, provisional[0].IsApproval, "provisional value visible during commit")
		return errors.New("network down")
	})
	require.EqualError(t, err, "network down")

	got, _ := Get[[]domain.User](c, KeyUsers)
	assert.Equal(t, sampleUsers(), got)
	assert.False(t, c.Stale(KeyUsers))
}

func TestOptimistic_InvalidatesOnSuccess(t *testing.T) {
	ctx := context.Background()
	c := NewQueryCache(0)
	Set(c, KeyUsers, sampleUsers())

	require.NoError(t, Optimistic(ctx, c, KeyUsers, toggle("u1"), func(context.Context) error { return nil }))

	got, _ := Get[[]domain.User](c, KeyUsers)
	assert.Equal(t, domain.ApprovalApproved, got[0].IsApproval)
	assert.True(t, c.Stale(KeyUsers))
}

func TestOptimistic_MissingKeyJustCommits(t *testing.T) {
	c := NewQueryCache(0)
	committed := false
	err := Optimistic(context.Background(), c, KeyUsers, toggle("u1"), func(context.Context) error {
		committed = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, committed)
	_, ok := Get[[]domain.User](c, KeyUsers)
	assert.False(t, ok)
}

func TestClone_FallsBackWhenCopierFails(t *testing.T) {
	orig := deepCopy
	deepCopy = func(dst, src interface{}) error { return errors.New("unsupported type") }
	t.Cleanup(func() { deepCopy = orig })

	c := NewQueryCache(time.Minute)
	Set(c, KeyUsers, sampleUsers())

	got, ok := Get[[]domain.User](c, KeyUsers)
	require.True(t, ok)
	got[0].Name = "changed"

	again, _ := Get[[]domain.User](c, KeyUsers)
	assert.Equal(t, "Ada", again[0].Name)
}
