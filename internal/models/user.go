package models

import (
	"strings"
	"time"
)

// User is an administrator account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Email        string
	IsStaff      bool
	LastLogin    *time.Time
	DateJoined   time.Time
}

// DisplayName prefers the full name over the username.
func (u *User) DisplayName() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Username
}
