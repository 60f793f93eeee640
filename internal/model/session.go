package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is the cached copy of a provider-issued credential bundle.
type Session struct {
	AccessToken  string
	RefreshToken string
	SubjectID    uuid.UUID
	ExpiresAt    time.Time
	User         User
}

// Valid reports whether the session satisfies the session/user invariant.
func (s *Session) Valid() bool {
	return s != nil && s.SubjectID != uuid.Nil && s.User.ID == s.SubjectID
}

// Expired reports whether the session expires before now plus margin.
func (s *Session) Expired(now time.Time, margin time.Duration) bool {
	return !s.ExpiresAt.IsZero() && now.Add(margin).After(s.ExpiresAt)
}

// EventType enumerates session change notifications.
type EventType string

const (
	EventInitialSession   EventType = "INITIAL_SESSION"
	EventSignedIn         EventType = "SIGNED_IN"
	EventSignedOut        EventType = "SIGNED_OUT"
	EventTokenRefreshed   EventType = "TOKEN_REFRESHED"
	EventUserUpdated      EventType = "USER_UPDATED"
	EventPasswordRecovery EventType = "PASSWORD_RECOVERY"
)

// SessionEvent is pushed by the identity provider whenever the session changes.
type SessionEvent struct {
	Type    EventType
	Session *Session
}

// Subscription is returned by IdentityProvider.OnSessionChange.
type Subscription interface {
	Unsubscribe()
}

// AuthResult is returned by password and signup flows. Session may be nil
// when the provider requires email confirmation first.
type AuthResult struct {
	Session *Session
	User    *User
}

// OAuthProvider names a social sign in provider.
type OAuthProvider string

const (
	OAuthGoogle OAuthProvider = "google"
	OAuthGitHub OAuthProvider = "github"
)

// IdentityProvider is the hosted identity backend consumed by the controller.
type IdentityProvider interface {
	GetSession(ctx context.Context) (*Session, error)
	OnSessionChange(handler func(SessionEvent)) Subscription
	SignInWithPassword(ctx context.Context, email, password string) (AuthResult, error)
	SignUp(ctx context.Context, email, password string, metadata UserMetadata) (AuthResult, error)
	SignOut(ctx context.Context) error
	SignInWithOAuth(ctx context.Context, provider OAuthProvider, redirectTo string) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
}

// SessionCache persists the current session between process restarts.
type SessionCache interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context) error
	SaveVerifier(ctx context.Context, verifier string, ttl time.Duration) error
	TakeVerifier(ctx context.Context) (string, error)
}
