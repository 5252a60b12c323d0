// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered user account.
//
// Users sign up with email and password. GitHub sign-in is optional: when a
// GitHub account is linked, GitHubID holds GitHub's numeric user ID and the
// password hash stays empty.
//
// WHY A SEPARATE INTERNAL ID?
// We generate our own string ID (xid) instead of using the email or the
// GitHub ID as primary key, so neither can change the identity of a row.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`         // bcrypt hash, never serialized
	GitHubID     int64     `json:"github_id,omitempty"`
	IsStaff      bool      `json:"is_staff"`
	DateJoined   time.Time `json:"date_joined"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenPair is what a successful login returns: a short-lived access token
// sent as a Bearer header and a longer-lived refresh token used to mint new
// access tokens.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}
