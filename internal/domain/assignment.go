package domain

import "time"

// AssignmentStatus is the lifecycle flag of a voice assignment.
type AssignmentStatus string

const (
	AssignmentActive   AssignmentStatus = "active"
	AssignmentInactive AssignmentStatus = "inactive"
)

// VoiceAssignment grants a user access to a catalog voice.
type VoiceAssignment struct {
	ID            string           `json:"id"`
	UserID        string           `json:"userId"`
	VoiceID       string           `json:"voiceId"`
	VoiceName     string           `json:"voiceName"`
	VoiceProvider string           `json:"voiceProvider"`
	ProjectName   string           `json:"projectName,omitempty"`
	Status        AssignmentStatus `json:"status"`
	User          *UserSummary     `json:"user,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	DeletedAt     *time.Time       `json:"deletedAt,omitempty"`
}

// Deleted reports whether the assignment was soft-deleted.
func (a VoiceAssignment) Deleted() bool {
	return a.DeletedAt != nil
}

// AssignVoiceRequest creates a voice assignment.
type AssignVoiceRequest struct {
	UserID        string `json:"userId"`
	VoiceID       string `json:"voiceId"`
	VoiceName     string `json:"voiceName"`
	VoiceProvider string `json:"voiceProvider"`
	ProjectName   string `json:"projectName,omitempty"`
}

// UpdateAssignmentRequest updates a voice assignment.
type UpdateAssignmentRequest struct {
	ProjectName *string           `json:"projectName,omitempty"`
	Status      *AssignmentStatus `json:"status,omitempty"`
}
