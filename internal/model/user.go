package model

import (
	"strings"

	"github.com/google/uuid"
)

// User represents the identity record owned by the identity provider.
type User struct {
	ID       uuid.UUID
	Email    string
	Metadata UserMetadata
}

// UserMetadata holds the user-supplied fields captured at sign up.
type UserMetadata struct {
	Name    string `json:"name,omitempty"`
	Company string `json:"company,omitempty"`
}

const (
	// DefaultProfileName is used when signup metadata carries no name.
	DefaultProfileName = "User"
	// DefaultProfileCompany is used when signup metadata carries no company.
	DefaultProfileCompany = "Company"
)

// DefaultProfile builds the profile provisioned for a user that has none yet.
func DefaultProfile(user User) Profile {
	name := strings.TrimSpace(user.Metadata.Name)
	if name == "" {
		name = DefaultProfileName
	}
	company := strings.TrimSpace(user.Metadata.Company)
	if company == "" {
		company = DefaultProfileCompany
	}

	return Profile{
		ID:      user.ID,
		Name:    name,
		Company: company,
	}
}
