package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/qubras-auth/internal/model"
)

// stateResponse is the public view of model.State. Tokens are never exposed.
type stateResponse struct {
	Phase            string           `json:"phase"`
	Loading          bool             `json:"loading"`
	User             *userResponse    `json:"user"`
	Profile          *profileResponse `json:"profile"`
	SessionExpiresAt *time.Time       `json:"session_expires_at,omitempty"`
	Error            *errorResponse   `json:"error"`
}

type userResponse struct {
	ID      uuid.UUID `json:"id"`
	Email   string    `json:"email"`
	Name    string    `json:"name,omitempty"`
	Company string    `json:"company,omitempty"`
}

type profileResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	AvatarURL *string   `json:"avatar_url"`
	Industry  *string   `json:"industry"`
	Website   *string   `json:"website"`
	Bio       *string   `json:"bio"`
	UpdatedAt time.Time `json:"updated_at"`
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Op      string `json:"op,omitempty"`
	Message string `json:"message"`
}

func newStateResponse(s model.State) stateResponse {
	resp := stateResponse{
		Phase:   string(s.Phase),
		Loading: s.Loading,
	}
	if s.User != nil {
		resp.User = &userResponse{
			ID:      s.User.ID,
			Email:   s.User.Email,
			Name:    s.User.Metadata.Name,
			Company: s.User.Metadata.Company,
		}
	}
	if s.Profile != nil {
		p := newProfileResponse(*s.Profile)
		resp.Profile = &p
	}
	if s.Session != nil && !s.Session.ExpiresAt.IsZero() {
		exp := s.Session.ExpiresAt
		resp.SessionExpiresAt = &exp
	}
	if s.Error != nil {
		resp.Error = &errorResponse{
			Kind:    string(s.Error.Kind),
			Op:      s.Error.Op,
			Message: s.Error.Error(),
		}
	}
	return resp
}

func newProfileResponse(p model.Profile) profileResponse {
	return profileResponse{
		ID:        p.ID,
		Name:      p.Name,
		Company:   p.Company,
		AvatarURL: p.AvatarURL,
		Industry:  p.Industry,
		Website:   p.Website,
		Bio:       p.Bio,
		UpdatedAt: p.UpdatedAt,
	}
}
