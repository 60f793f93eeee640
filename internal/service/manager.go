// Package service implements the session controller: it merges pushed session
// changes and explicit auth operations into one State and keeps the user's
// profile in sync with it.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/qubras-auth/internal/lifecycle"
	"github.com/dtroode/qubras-auth/internal/logger"
	"github.com/dtroode/qubras-auth/internal/metrics"
	"github.com/dtroode/qubras-auth/internal/model"
)

// ManagerDeps are the collaborators of a Manager. Avatars and Metrics may be nil.
type ManagerDeps struct {
	Identity model.IdentityProvider
	Profiles model.ProfileRepository
	Avatars  model.AvatarStorage
	Metrics  metrics.Recorder
	Logger   *logger.Logger
}

// ManagerConfig tunes a Manager. Zero values fall back to defaults.
type ManagerConfig struct {
	SiteURL            string
	SafetyTimeout      time.Duration
	MaxAttempts        int
	RetryStep          time.Duration
	NotificationBuffer int
}

// Manager owns the controller state. It is created once, started once and
// closed on teardown; after Close it never changes its state again.
type Manager struct {
	identity model.IdentityProvider
	profiles *Profiles
	avatars  model.AvatarStorage
	metrics  metrics.Recorder
	logger   *logger.Logger
	cfg      ManagerConfig
	dispatch *dispatcher

	mu        sync.Mutex
	guard     *lifecycle.Guard
	sub       model.Subscription
	state     model.State
	busy      int
	timedOut  bool
	epoch     uint64
	signedOut bool
	load      *profileLoad
	started   bool
	closed    bool
}

// profileLoad is a scheduled profile fetch for one user within one session epoch.
type profileLoad struct {
	userID uuid.UUID
	epoch  uint64
	done   chan struct{}
	err    error

	released bool
}

func NewManager(deps ManagerDeps, cfg ManagerConfig) *Manager {
	if cfg.SafetyTimeout <= 0 {
		cfg.SafetyTimeout = lifecycle.DefaultSafetyTimeout
	}
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")

	rec := deps.Metrics
	if rec == nil {
		rec = metrics.Noop{}
	}
	l := deps.Logger.Component("session")

	m := &Manager{
		identity: deps.Identity,
		avatars:  deps.Avatars,
		metrics:  rec,
		logger:   l,
		cfg:      cfg,
		dispatch: newDispatcher(l, cfg.NotificationBuffer),
		state:    model.State{Phase: model.PhaseInitializing},
	}
	m.profiles = NewProfiles(deps.Profiles, rec, l, m.notify, ProfilesConfig{
		MaxAttempts: cfg.MaxAttempts,
		RetryStep:   cfg.RetryStep,
	})

	return m
}

// Start subscribes to session changes and fetches the current session in
// the background. The guard lives as long as ctx or until Close.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return model.ErrClosed
	}
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.guard = lifecycle.New(ctx, m.cfg.SafetyTimeout)
	m.state.Phase = model.PhaseInitializing
	m.beginLocked()
	m.publishLocked()
	guard := m.guard
	m.mu.Unlock()

	m.logger.Info("Session manager: starting", "safety_timeout", guard.Timeout())

	sub := m.identity.OnSessionChange(m.handleEvent)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		sub.Unsubscribe()
		return model.ErrClosed
	}
	m.sub = sub
	m.mu.Unlock()

	// Cancelling ctx is a teardown as well.
	go func() {
		<-guard.Context().Done()
		m.Close()
	}()

	if !guard.Go(m.fetchInitialSession) {
		return model.ErrClosed
	}
	return nil
}

// Close tears the manager down and resets the state to its initial value
// without publishing it. In-flight provider calls may finish but their
// results are discarded. Close does not block and may be called from an
// observer.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.state.User != nil {
		m.profiles.Forget(m.state.User.ID)
	}
	m.epoch++
	if m.load != nil {
		m.load.released = true
		m.load = nil
	}
	m.busy = 0
	m.timedOut = false
	m.state = model.State{Phase: model.PhaseInitializing}
	guard := m.guard
	sub := m.sub
	m.mu.Unlock()

	if guard != nil {
		guard.Close()
	}
	if sub != nil {
		sub.Unsubscribe()
	}
	m.dispatch.close()

	m.logger.Info("Session manager: closed")
}

// Wait blocks until background continuations started by the manager return
// and, once closed, until queued observer deliveries are done. It must not be
// called from an observer.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	guard := m.guard
	closed := m.closed
	m.mu.Unlock()

	if guard != nil {
		if err := guard.Wait(ctx); err != nil {
			return err
		}
	}
	if closed {
		return m.dispatch.wait(ctx)
	}
	return nil
}

// State returns the current snapshot.
func (m *Manager) State() model.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn for every state change. fn runs on the dispatcher
// goroutine, in publication order.
func (m *Manager) Subscribe(fn func(model.State)) (unsubscribe func()) {
	return m.dispatch.subscribeState(fn)
}

// OnNotify registers fn for toast-equivalent notifications.
func (m *Manager) OnNotify(fn func(model.Notification)) (unsubscribe func()) {
	return m.dispatch.subscribeNote(fn)
}

func (m *Manager) notify(n model.Notification) {
	m.dispatch.emitNote(n)
}

// activeLocked reports whether results may still be written to the state.
// It turns false on Close and as soon as the Start context is cancelled.
func (m *Manager) activeLocked() bool {
	return !m.closed && (m.guard == nil || m.guard.Active())
}

func (m *Manager) loadingLocked() bool {
	return m.busy > 0 && !m.timedOut
}

func (m *Manager) publishLocked() {
	m.state.Loading = m.loadingLocked()
	m.dispatch.emitState(m.state)
}

// beginLocked registers a unit of pending work. The watchdog is armed each
// time loading turns on, so a single loading stretch is bounded by the
// safety timeout.
func (m *Manager) beginLocked() {
	if !m.loadingLocked() {
		m.timedOut = false
		if m.guard != nil {
			m.guard.Arm(m.onSafetyTimeout)
		}
	}
	m.busy++
}

// endLocked releases a unit of work registered with beginLocked.
func (m *Manager) endLocked() {
	if m.busy > 0 {
		m.busy--
	}
	if m.busy > 0 {
		return
	}
	m.timedOut = false
	if m.guard != nil {
		m.guard.Disarm()
	}
	m.settlePhaseLocked()
}

func (m *Manager) settlePhaseLocked() {
	switch m.state.Phase {
	case model.PhaseReady, model.PhaseSignedOut, model.PhaseSessionFetchFailed:
		return
	}
	if m.state.User == nil && m.signedOut {
		m.state.Phase = model.PhaseSignedOut
		return
	}
	m.state.Phase = model.PhaseReady
}

func (m *Manager) onSafetyTimeout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.activeLocked() || !m.loadingLocked() {
		return
	}
	m.timedOut = true
	m.state.Error = model.NewAuthError(model.KindTimeout, "loading",
		fmt.Errorf("loading did not finish within %s", m.cfg.SafetyTimeout))
	m.metrics.RecordSafetyTimeout()
	m.publishLocked()

	m.logger.Warn("Session manager: safety timeout forced loading off",
		"timeout", m.cfg.SafetyTimeout,
		"pending", m.busy,
		"phase", m.state.Phase)
}

// clearTimeoutLocked drops a Timeout error once the work it reported on
// has completed.
func (m *Manager) clearTimeoutLocked() {
	if m.state.Error != nil && m.state.Error.Kind == model.KindTimeout {
		m.state.Error = nil
	}
}

func (m *Manager) setErrorLocked(err *model.AuthError) {
	m.state.Error = err
}

// currentUser returns a copy of the signed in user and the session epoch.
func (m *Manager) currentUser() (model.User, uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.User == nil {
		return model.User{}, 0, false
	}
	return *m.state.User, m.epoch, true
}
