package model

import "time"

// User represents a user in the database.
// PasswordHash is only populated on credential lookups.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SignupRequest represents a user registration request.
// FullName is accepted for clients that still send the older field name.
type SignupRequest struct {
	Name     string `json:"name"`
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest represents a profile update. Only the name is mutable.
type UpdateUserRequest struct {
	Name string `json:"name"`
}

// LogoutRequest is the optional body sent with a logout, e.g. by an auto-logout trigger.
type LogoutRequest struct {
	Reason string `json:"reason"`
}

// UserResponse represents user data safe for API responses (no sensitive fields).
type UserResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// UserEnvelope wraps a user as {"user": {...}}.
type UserEnvelope struct {
	User UserResponse `json:"user"`
}

// OKResponse is the body of operations that have nothing else to report.
type OKResponse struct {
	OK bool `json:"ok"`
}

// ToResponse projects a user onto its public fields.
func (u *User) ToResponse() UserResponse {
	resp := UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
	if !u.CreatedAt.IsZero() {
		created := u.CreatedAt
		resp.CreatedAt = &created
	}
	return resp
}
