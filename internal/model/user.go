package model

import (
	"time"
)

// User represents a user in the system
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"name"`
	APIKey    string    `db:"api_key" json:"-"` // never rendered
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Summary projects the user to its public id + name pair.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Username}
}

// UserSummary is the public projection of a user: identifier and display name only.
type UserSummary struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"username" json:"name"`
}

// Profile is the public profile with the full follower and following lists.
type Profile struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Followers []UserSummary `json:"followers"`
	Following []UserSummary `json:"following"`
}

// ProfileResponse wraps a profile in the success envelope.
type ProfileResponse struct {
	Result bool     `json:"result"`
	User   *Profile `json:"user"`
}

const MaxUsernameLength = 100

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = NewError(KindNotFound, "user not found")

	// ErrUserExists is returned when the username or api key is already taken
	ErrUserExists = NewError(KindAlreadyExists, "user already exists")

	ErrUsernameRequired = Validation("username is required")
	ErrUsernameTooLong  = Validation("username too long")
)
