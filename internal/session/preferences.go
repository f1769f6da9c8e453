package session

import (
	"context"
	"strconv"
)

// Preferences persists console UI preferences next to the session.
type Preferences struct {
	kv KVStore
}

// NewPreferences creates a preference accessor over kv.
func NewPreferences(kv KVStore) *Preferences {
	return &Preferences{kv: kv}
}

// SidebarCollapsed reports the stored sidebar state; false when unset.
func (p *Preferences) SidebarCollapsed(ctx context.Context) (bool, error) {
	raw, ok, err := p.kv.Get(ctx, KeySidebarCollapsed)
	if err != nil || !ok {
		return false, err
	}
	collapsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, nil
	}
	return collapsed, nil
}

// SetSidebarCollapsed stores the sidebar state.
func (p *Preferences) SetSidebarCollapsed(ctx context.Context, collapsed bool) error {
	return p.kv.Set(ctx, KeySidebarCollapsed, strconv.FormatBool(collapsed))
}
