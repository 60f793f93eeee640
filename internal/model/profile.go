package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProfileRepository persists application-owned profile rows.
type ProfileRepository interface {
	Get(ctx context.Context, id uuid.UUID) (Profile, error)
	Insert(ctx context.Context, profile Profile) (Profile, error)
	Update(ctx context.Context, id uuid.UUID, patch ProfilePatch) (Profile, error)
}

// Profile is the user-supplied record keyed by the identity id.
type Profile struct {
	ID        uuid.UUID
	Name      string
	Company   string
	AvatarURL *string
	Industry  *string
	Website   *string
	Bio       *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfilePatch is a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	Name      *string
	Company   *string
	AvatarURL *string
	Industry  *string
	Website   *string
	Bio       *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.Name == nil && p.Company == nil && p.AvatarURL == nil &&
		p.Industry == nil && p.Website == nil && p.Bio == nil
}

// Apply returns a copy of profile with the patch fields applied.
func (p ProfilePatch) Apply(profile Profile) Profile {
	if p.Name != nil {
		profile.Name = *p.Name
	}
	if p.Company != nil {
		profile.Company = *p.Company
	}
	if p.AvatarURL != nil {
		profile.AvatarURL = p.AvatarURL
	}
	if p.Industry != nil {
		profile.Industry = p.Industry
	}
	if p.Website != nil {
		profile.Website = p.Website
	}
	if p.Bio != nil {
		profile.Bio = p.Bio
	}
	return profile
}
