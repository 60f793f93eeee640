package service

import (
	"context"
	"errors"

	"github.com/dtroode/qubras-auth/internal/model"
)

// fetchInitialSession runs once per Start on the guard's context.
func (m *Manager) fetchInitialSession(ctx context.Context) {
	session, err := m.identity.GetSession(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() {
		return
	}
	defer m.publishLocked()
	defer m.endLocked()

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Error("Session watcher: failed to fetch current session", "error", err.Error())
		m.state.Phase = model.PhaseSessionFetchFailed
		m.setErrorLocked(model.NewAuthError(model.KindSessionFetch, "getSession", err))
		return
	}

	m.metrics.RecordSessionEvent(string(model.EventInitialSession))
	m.state.Phase = model.PhaseSessionFetched
	if session == nil {
		m.logger.Info("Session watcher: no current session")
	} else {
		m.logger.Info("Session watcher: restored session", "user_id", session.SubjectID)
	}
	m.publishLocked()
	m.applySessionLocked(session)
	m.clearTimeoutLocked()
}

// handleEvent receives pushed session changes. It may run on any goroutine.
func (m *Manager) handleEvent(event model.SessionEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.guard == nil || !m.activeLocked() {
		return
	}
	m.metrics.RecordSessionEvent(string(event.Type))
	m.logger.Debug("Session watcher: session event", "type", event.Type)

	switch event.Type {
	case model.EventSignedOut:
		m.clearSessionLocked()
	case model.EventPasswordRecovery:
		m.applySessionLocked(event.Session)
		m.notify(model.Notification{
			Level:   model.NotifyInfo,
			Op:      "passwordRecovery",
			Message: "Please choose a new password.",
		})
	default:
		m.applySessionLocked(event.Session)
	}
	m.publishLocked()
}

// applySessionLocked makes session the current one. Applying the session
// that is already current only refreshes the profile. It returns the profile
// load scheduled for the session user, or nil when there is none.
func (m *Manager) applySessionLocked(session *model.Session) *profileLoad {
	if session != nil && !session.Valid() {
		m.logger.Warn("Session watcher: session without matching user dropped")
		m.setErrorLocked(model.NewAuthError(model.KindMissingSessionData, "applySession",
			errors.New("session carries no matching user")))
		session = nil
	}

	if session == nil {
		if m.state.User != nil || m.state.Session != nil {
			m.clearSessionLocked()
		}
		return nil
	}

	cp := *session
	user := cp.User

	if m.state.User == nil || m.state.User.ID != user.ID {
		m.epoch++
		m.dropLoadLocked()
		if m.state.User != nil {
			m.profiles.Forget(m.state.User.ID)
		}
		m.state.Profile = nil
	}

	m.state.Session = &cp
	m.state.User = &user
	m.signedOut = false

	return m.scheduleProfileLoadLocked(user)
}

// clearSessionLocked drops session, user and profile in one step and
// invalidates profile loads of the old session.
func (m *Manager) clearSessionLocked() {
	if m.state.User != nil {
		m.profiles.Forget(m.state.User.ID)
	}
	m.epoch++
	m.dropLoadLocked()
	m.signedOut = true
	m.state.Session = nil
	m.state.User = nil
	m.state.Profile = nil
	m.state.Phase = model.PhaseSignedOut
}

// scheduleProfileLoadLocked starts a profile fetch for user unless one for
// the same user and epoch is already running.
func (m *Manager) scheduleProfileLoadLocked(user model.User) *profileLoad {
	if m.load != nil && m.load.epoch == m.epoch && m.load.userID == user.ID {
		return m.load
	}

	load := &profileLoad{
		userID: user.ID,
		epoch:  m.epoch,
		done:   make(chan struct{}),
	}
	m.beginLocked()
	if m.state.Phase != model.PhaseAuthenticating {
		m.state.Phase = model.PhaseProfileLoading
	}

	started := m.guard != nil && m.guard.Go(func(ctx context.Context) {
		m.runProfileLoad(ctx, user, load)
	})
	if !started {
		m.endLocked()
		close(load.done)
		return nil
	}

	m.load = load
	return load
}

// dropLoadLocked detaches the running profile load from the loading state.
// Its result is discarded when it arrives.
func (m *Manager) dropLoadLocked() {
	if m.load == nil {
		return
	}
	m.load.released = true
	m.load = nil
	m.endLocked()
}

func (m *Manager) runProfileLoad(ctx context.Context, user model.User, load *profileLoad) {
	profile, err := m.profiles.Get(ctx, user)

	m.mu.Lock()
	defer m.mu.Unlock()
	defer close(load.done)

	load.err = err
	if m.load == load {
		m.load = nil
	}
	if !m.activeLocked() {
		return
	}
	if load.released || load.epoch != m.epoch {
		m.logger.Debug("Session watcher: discarding profile of a previous session", "user_id", user.ID)
		if m.state.User == nil || m.state.User.ID != user.ID {
			m.profiles.Forget(user.ID)
		}
		if !load.released {
			m.endLocked()
			m.publishLocked()
		}
		return
	}
	defer m.publishLocked()
	defer m.endLocked()

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		var authErr *model.AuthError
		if !errors.As(err, &authErr) {
			authErr = model.NewAuthError(model.KindUnknown, "getProfile", err)
		}
		m.setErrorLocked(authErr)
		return
	}

	m.state.Profile = profile
	m.clearTimeoutLocked()
}
