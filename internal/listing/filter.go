package listing

import (
	"strings"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
)

// Filter keeps the items whose searchable fields contain query
// (case-insensitive) and that satisfy match. An empty query matches every
// item; a nil match accepts every item.
func Filter[T any](items []T, query string, fields func(T) []string, match func(T) bool) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]T, 0, len(items))
	for _, it := range items {
		if match != nil && !match(it) {
			continue
		}
		if q == "" || containsAny(fields(it), q) {
			out = append(out, it)
		}
	}
	return out
}

func containsAny(fields []string, q string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Assistants filters assistants by name, type, status, id and owner name or
// email, optionally restricted to one owner. users resolves owners for
// records that carry no embedded user summary.
func Assistants(items []domain.Assistant, query, userID string, users []domain.User) []domain.Assistant {
	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	var match func(domain.Assistant) bool
	if userID != "" {
		match = func(a domain.Assistant) bool { return a.UserID == userID }
	}
	return Filter(items, query, func(a domain.Assistant) []string {
		fields := []string{a.AgentName, string(a.AgentType), string(a.Status), a.ID}
		if a.User != nil {
			fields = append(fields, a.User.Name, a.User.Email)
		} else if u, ok := byID[a.UserID]; ok {
			fields = append(fields, u.Name, u.Email)
		}
		return fields
	}, match)
}

// Users filters users by name, email, company and id.
func Users(items []domain.User, query string) []domain.User {
	return Filter(items, query, func(u domain.User) []string {
		return []string{u.Name, u.Email, u.CompanyName, u.ID}
	}, nil)
}

// Assignments filters voice assignments by voice, provider, project, status,
// id and user, optionally restricted to one user.
func Assignments(items []domain.VoiceAssignment, query, userID string) []domain.VoiceAssignment {
	var match func(domain.VoiceAssignment) bool
	if userID != "" {
		match = func(a domain.VoiceAssignment) bool { return a.UserID == userID }
	}
	return Filter(items, query, func(a domain.VoiceAssignment) []string {
		fields := []string{a.VoiceName, a.VoiceProvider, a.ProjectName, string(a.Status), a.ID, a.VoiceID}
		if a.User != nil {
			fields = append(fields, a.User.Name, a.User.Email)
		}
		return fields
	}, match)
}
