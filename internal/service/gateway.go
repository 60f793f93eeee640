package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/dtroode/qubras-auth/internal/model"
)

// MinPasswordLength is enforced on sign up.
const MinPasswordLength = 6

const (
	msgSignedIn      = "Welcome back!"
	msgSignedUp      = "Registration successful! Please check your email to confirm your account."
	msgSignedOut     = "Signed out successfully"
	msgSignOutFailed = "Failed to log out. Please try again."
	msgResetSent     = "Password reset email sent. Please check your inbox."
	msgNoSession     = "Authentication error: No session data"
)

// begin registers an operation: loading turns on, the prior error is cleared
// and the phase becomes Authenticating.
func (m *Manager) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return model.ErrClosed
	}
	m.beginLocked()
	m.state.Error = nil
	m.state.Phase = model.PhaseAuthenticating
	m.publishLocked()
	return nil
}

func (m *Manager) end() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return
	}
	m.endLocked()
	m.publishLocked()
}

// run executes one operation. A failure is returned to the caller and also
// recorded in State.Error; notifyFailure controls whether it is announced.
func (m *Manager) run(ctx context.Context, op string, notifyFailure bool, fn func(ctx context.Context) error) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()

	err := fn(ctx)
	if err == nil {
		m.metrics.RecordOperation(op, "")
		m.mu.Lock()
		if m.activeLocked() {
			m.clearTimeoutLocked()
		}
		m.mu.Unlock()
		return nil
	}

	authErr := classifyOpError(op, err)
	m.metrics.RecordOperation(op, string(authErr.Kind))

	if authErr.Kind == model.KindUnknown {
		m.logger.Error("Auth gateway: operation failed", "op", op, "error", err.Error())
	} else {
		m.logger.Info("Auth gateway: operation rejected", "op", op, "kind", authErr.Kind, "error", err.Error())
	}

	m.mu.Lock()
	if !m.activeLocked() {
		m.mu.Unlock()
		return authErr
	}
	m.setErrorLocked(authErr)
	m.publishLocked()
	m.mu.Unlock()

	if notifyFailure {
		m.notify(model.Notification{Level: model.NotifyError, Op: op, Message: failureMessage(authErr)})
	}
	return authErr
}

func classifyOpError(op string, err error) *model.AuthError {
	var authErr *model.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}

	var providerErr *model.ProviderError
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return model.NewAuthError(model.KindInvalidInput, op, err)
	case errors.Is(err, model.ErrInvalidCredentials),
		errors.Is(err, model.ErrNotAuthenticated):
		return model.NewAuthError(model.KindCredentials, op, err)
	case errors.As(err, &providerErr):
		// Only a rejected login is a credentials problem. Sign up rejections
		// such as an existing account or a weak password are not.
		if op == "signIn" {
			return model.NewAuthError(model.KindCredentials, op, err)
		}
		return model.NewAuthError(model.KindProviderRejected, op, err)
	default:
		return model.NewAuthError(model.KindUnknown, op, err)
	}
}

func failureMessage(err *model.AuthError) string {
	var providerErr *model.ProviderError
	switch {
	case err.Kind == model.KindMissingSessionData:
		return msgNoSession
	case errors.As(err, &providerErr):
		return providerErr.Message
	case errors.Is(err, model.ErrInvalidCredentials):
		return "Invalid login credentials"
	case err.Err != nil:
		return err.Err.Error()
	default:
		return err.Error()
	}
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return invalidInput("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return invalidInput("email %q is not valid", email)
	}
	return nil
}

// awaitLoad waits for a scheduled profile load. Its failure is reflected in
// State.Error only.
func awaitLoad(ctx context.Context, load *profileLoad) {
	if load == nil {
		return
	}
	select {
	case <-load.done:
	case <-ctx.Done():
	}
}

// applyAuthResult installs the session of a successful password or signup
// flow and waits for its profile.
func (m *Manager) applyAuthResult(ctx context.Context, op string, res model.AuthResult) error {
	if res.Session == nil || res.User == nil {
		return model.NewAuthError(model.KindMissingSessionData, op, errors.New("provider returned no session or user"))
	}
	session := *res.Session
	session.User = *res.User
	if !session.Valid() {
		return model.NewAuthError(model.KindMissingSessionData, op,
			fmt.Errorf("session subject %s does not match user %s", session.SubjectID, res.User.ID))
	}

	m.mu.Lock()
	if !m.activeLocked() {
		m.mu.Unlock()
		return model.ErrClosed
	}
	load := m.applySessionLocked(&session)
	m.publishLocked()
	m.mu.Unlock()

	awaitLoad(ctx, load)
	return nil
}

// SignIn signs in with email and password and waits for the profile.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	return m.run(ctx, "signIn", true, func(ctx context.Context) error {
		if err := validateEmail(email); err != nil {
			return err
		}
		if password == "" {
			return invalidInput("password is required")
		}

		res, err := m.identity.SignInWithPassword(ctx, email, password)
		if err != nil {
			return fmt.Errorf("failed to sign in: %w", err)
		}
		if err := m.applyAuthResult(ctx, "signIn", res); err != nil {
			return err
		}

		m.logger.Info("Auth gateway: signed in", "user_id", res.User.ID)
		m.notify(model.Notification{Level: model.NotifySuccess, Op: "signIn", Message: msgSignedIn})
		return nil
	})
}

// SignUp registers a user. A pending email confirmation leaves the state
// signed out and is not an error.
func (m *Manager) SignUp(ctx context.Context, email, password, name, company string) error {
	return m.run(ctx, "signUp", true, func(ctx context.Context) error {
		if err := validateEmail(email); err != nil {
			return err
		}
		if len(password) < MinPasswordLength {
			return invalidInput("password must be at least %d characters", MinPasswordLength)
		}
		name, company = strings.TrimSpace(name), strings.TrimSpace(company)
		if name == "" {
			return invalidInput("name is required")
		}
		if company == "" {
			return invalidInput("company is required")
		}

		res, err := m.identity.SignUp(ctx, email, password, model.UserMetadata{Name: name, Company: company})
		if err != nil {
			return fmt.Errorf("failed to sign up: %w", err)
		}

		if res.Session != nil {
			if err := m.applyAuthResult(ctx, "signUp", res); err != nil {
				return err
			}
			m.logger.Info("Auth gateway: signed up and signed in", "user_id", res.User.ID)
		} else {
			m.logger.Info("Auth gateway: signed up, confirmation pending", "email", email)
		}

		m.notify(model.Notification{Level: model.NotifySuccess, Op: "signUp", Message: msgSignedUp})
		return nil
	})
}

// SignOut clears the local session before contacting the provider. A remote
// failure is still reported.
func (m *Manager) SignOut(ctx context.Context) error {
	return m.run(ctx, "signOut", false, func(ctx context.Context) error {
		m.mu.Lock()
		if !m.activeLocked() {
			m.mu.Unlock()
			return model.ErrClosed
		}
		m.clearSessionLocked()
		m.publishLocked()
		m.mu.Unlock()

		if err := m.identity.SignOut(ctx); err != nil {
			m.notify(model.Notification{Level: model.NotifyError, Op: "signOut", Message: msgSignOutFailed})
			return model.NewAuthError(model.KindUnknown, "signOut", err)
		}

		m.logger.Info("Auth gateway: signed out")
		m.notify(model.Notification{Level: model.NotifySuccess, Op: "signOut", Message: msgSignedOut})
		return nil
	})
}

// SocialSignIn starts a redirect flow. The session arrives later as a
// session change event.
func (m *Manager) SocialSignIn(ctx context.Context, provider model.OAuthProvider) error {
	return m.run(ctx, "socialSignIn", true, func(ctx context.Context) error {
		switch provider {
		case model.OAuthGoogle, model.OAuthGitHub:
		default:
			return invalidInput("unsupported provider %q", provider)
		}

		if err := m.identity.SignInWithOAuth(ctx, provider, m.cfg.SiteURL+"/dashboard"); err != nil {
			if errors.Is(err, model.ErrInvalidInput) {
				return err
			}
			return model.NewAuthError(model.KindUnknown, "socialSignIn", err)
		}

		m.logger.Info("Auth gateway: redirect flow started", "provider", provider)
		return nil
	})
}

// ResetPassword asks the provider to send a recovery email.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	return m.run(ctx, "resetPassword", true, func(ctx context.Context) error {
		if err := validateEmail(email); err != nil {
			return err
		}

		if err := m.identity.ResetPasswordForEmail(ctx, email, m.cfg.SiteURL+"/auth?reset=true"); err != nil {
			return model.NewAuthError(model.KindUnknown, "resetPassword", err)
		}

		m.notify(model.Notification{Level: model.NotifySuccess, Op: "resetPassword", Message: msgResetSent})
		return nil
	})
}

// UpdateProfile patches the signed in user's profile.
func (m *Manager) UpdateProfile(ctx context.Context, patch model.ProfilePatch) (model.Profile, error) {
	var updated model.Profile
	err := m.run(ctx, "updateProfile", false, func(ctx context.Context) error {
		user, epoch, ok := m.currentUser()
		if !ok {
			return model.ErrNotAuthenticated
		}
		if err := validatePatch(patch); err != nil {
			return err
		}

		profile, err := m.profiles.Update(ctx, user, patch)
		if err != nil {
			return err
		}
		m.installProfile(epoch, profile)
		updated = profile
		return nil
	})
	return updated, err
}

func validatePatch(patch model.ProfilePatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return invalidInput("name is required")
	}
	if patch.Company != nil && strings.TrimSpace(*patch.Company) == "" {
		return invalidInput("company is required")
	}
	return nil
}

// RefreshProfile reloads the signed in user's profile.
func (m *Manager) RefreshProfile(ctx context.Context) error {
	return m.run(ctx, "refreshProfile", false, func(ctx context.Context) error {
		m.mu.Lock()
		if !m.activeLocked() {
			m.mu.Unlock()
			return model.ErrClosed
		}
		if m.state.User == nil {
			m.mu.Unlock()
			return model.ErrNotAuthenticated
		}
		load := m.scheduleProfileLoadLocked(*m.state.User)
		m.publishLocked()
		m.mu.Unlock()

		if load == nil {
			return model.ErrClosed
		}
		select {
		case <-load.done:
			return load.err
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// UploadAvatar stores a new avatar and points the profile at it. The
// previous avatar object is removed on a best effort basis.
func (m *Manager) UploadAvatar(ctx context.Context, contentType string, size int64, r io.Reader) (model.Profile, error) {
	var updated model.Profile
	err := m.run(ctx, "uploadAvatar", false, func(ctx context.Context) error {
		if m.avatars == nil {
			return errors.New("avatar storage is not configured")
		}
		user, epoch, ok := m.currentUser()
		if !ok {
			return model.ErrNotAuthenticated
		}

		var previous string
		if cached, ok := m.profiles.Cached(user.ID); ok && cached.AvatarURL != nil {
			previous = *cached.AvatarURL
		}

		avatarURL, err := m.avatars.UploadAvatar(ctx, user.ID, contentType, size, r)
		if err != nil {
			m.notify(model.Notification{Level: model.NotifyError, Op: "uploadAvatar", Message: "Failed to upload avatar"})
			return fmt.Errorf("failed to upload avatar: %w", err)
		}

		profile, err := m.profiles.Update(ctx, user, model.ProfilePatch{AvatarURL: &avatarURL})
		if err != nil {
			return err
		}
		m.installProfile(epoch, profile)
		updated = profile

		if previous != "" && previous != avatarURL {
			if err := m.avatars.DeleteAvatar(ctx, previous); err != nil {
				m.logger.Warn("Auth gateway: failed to delete previous avatar", "url", previous, "error", err.Error())
			}
		}
		return nil
	})
	return updated, err
}

// installProfile publishes profile if the session it was loaded for is
// still current.
func (m *Manager) installProfile(epoch uint64, profile model.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() || epoch != m.epoch {
		return
	}
	m.state.Profile = &profile
	m.publishLocked()
}
