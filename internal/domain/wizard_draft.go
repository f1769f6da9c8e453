package domain

import "time"

// WizardDraft is a saved, possibly incomplete, wizard session.
type WizardDraft struct {
	ID          string         `json:"id" gorm:"type:uuid;primary_key"`
	Operator    string         `json:"operator" gorm:"type:varchar(255);index:idx_wizard_drafts_operator;not null"`
	AssistantID string         `json:"assistantId,omitempty" gorm:"type:varchar(255)"`
	Step        int            `json:"step" gorm:"not null;default:1"`
	Furthest    int            `json:"furthest" gorm:"not null;default:1"`
	Draft       AssistantDraft `json:"draft" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName sets the table name for WizardDraft
func (WizardDraft) TableName() string {
	return "wizard_drafts"
}
