package domain

import "time"

// Approval values carried by User.IsApproval.
const (
	ApprovalPending  = 0
	ApprovalApproved = 1
)

// User is a platform customer account managed from the console.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	CompanyName    string    `json:"companyName,omitempty"`
	CompanyWebsite string    `json:"companyWebsite,omitempty"`
	IsApproval     int       `json:"isApproval"`
	IsActive       bool      `json:"isActive"`
	IsVerified     bool      `json:"isVerified"`
	BearerToken    string    `json:"bearerToken,omitempty"`
	TotalAgents    int       `json:"totalAgents"`
	TotalCalls     int       `json:"totalCalls"`
	TotalMinutes   float64   `json:"totalMinutes"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Approved reports whether the account has been approved by an admin.
func (u User) Approved() bool {
	return u.IsApproval == ApprovalApproved
}

// CanOwnAssistants reports whether the user may be picked as an assistant owner:
// approved and holding a provider bearer token.
func (u User) CanOwnAssistants() bool {
	return u.Approved() && u.BearerToken != ""
}

// UserSummary is the trimmed user record embedded in assistant and assignment listings.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateUserRequest represents the request to create a user
type CreateUserRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password,omitempty"`
	Phone          string `json:"phone,omitempty"`
	CompanyName    string `json:"companyName,omitempty"`
	CompanyWebsite string `json:"companyWebsite,omitempty"`
	BearerToken    string `json:"bearerToken,omitempty"`
}

// UpdateUserRequest represents a partial user update
type UpdateUserRequest struct {
	Name           *string `json:"name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	CompanyName    *string `json:"companyName,omitempty"`
	CompanyWebsite *string `json:"companyWebsite,omitempty"`
	BearerToken    *string `json:"bearerToken,omitempty"`
	IsActive       *bool   `json:"isActive,omitempty"`
}

// ApprovalRequest toggles a user's approval flag.
type ApprovalRequest struct {
	IsApproval int `json:"isApproval"`
}
