package domain

import (
	"github.com/google/uuid"
)

// UnknownUserName is shown when an inspector cannot be resolved.
const UnknownUserName = "Unknown"

// User is the slice of user master data the workflow reads.
type User struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// DisplayName returns the user's name, the email if the name is empty,
// or UnknownUserName.
func (u *User) DisplayName() string {
	if u == nil {
		return UnknownUserName
	}
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return UnknownUserName
}
