package users

import "time"

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// User is a registered account. PasswordHash is empty for Google-only accounts.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Plan         Plan
	CreatedAt    time.Time
}

// PublicUser is the subset of User returned to clients.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Plan  Plan   `json:"plan"`
}

func (u User) Public() PublicUser {
	plan := u.Plan
	if plan == "" {
		plan = PlanFree
	}
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Plan: plan}
}

// AuthResult is returned by register, login and OAuth sign-in.
type AuthResult struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}
