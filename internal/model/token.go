package model

import (
	"time"

	"github.com/google/uuid"
)

// AccessClaims are the fields the controller reads from an access token.
type AccessClaims struct {
	Subject   uuid.UUID
	Email     string
	ExpiresAt time.Time
}

// TokenParser extracts claims from provider-issued access tokens.
type TokenParser interface {
	ParseAccessToken(token string) (AccessClaims, error)
}
