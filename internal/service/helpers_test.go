package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/qubras-auth/internal/mocks"
	"github.com/dtroode/qubras-auth/internal/model"
	"github.com/dtroode/qubras-auth/internal/testutil"
)

// memRepo is an in-memory profile table with a unique primary key.
type memRepo struct {
	mu          sync.Mutex
	rows        map[uuid.UUID]model.Profile
	getCalls    int
	insertCalls int
	updateCalls int

	// getErr, when set, is consulted before every Get with the 1-based call number.
	getErr func(call int) error
	// getGate, when set, blocks every Get until it is closed.
	getGate chan struct{}
	// beforeInsert runs before the uniqueness check of every Insert.
	beforeInsert func()
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[uuid.UUID]model.Profile)}
}

func (r *memRepo) Get(ctx context.Context, id uuid.UUID) (model.Profile, error) {
	r.mu.Lock()
	r.getCalls++
	call := r.getCalls
	gate := r.getGate
	getErr := r.getErr
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return model.Profile{}, ctx.Err()
		}
	}
	if getErr != nil {
		if err := getErr(call); err != nil {
			return model.Profile{}, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return model.Profile{}, model.ErrNotFound
	}
	return p, nil
}

func (r *memRepo) Insert(_ context.Context, p model.Profile) (model.Profile, error) {
	r.mu.Lock()
	r.insertCalls++
	hook := r.beforeInsert
	r.mu.Unlock()

	if hook != nil {
		hook()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[p.ID]; ok {
		return model.Profile{}, model.ErrProfileExists
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	p.CreatedAt, p.UpdatedAt = now, now
	r.rows[p.ID] = p
	return p, nil
}

func (r *memRepo) Update(_ context.Context, id uuid.UUID, patch model.ProfilePatch) (model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	p, ok := r.rows[id]
	if !ok {
		return model.Profile{}, model.ErrNotFound
	}
	p = patch.Apply(p)
	p.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	r.rows[id] = p
	return p, nil
}

func (r *memRepo) put(p model.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[p.ID] = p
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *memRepo) calls() (gets, inserts, updates int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getCalls, r.insertCalls, r.updateCalls
}

// eventSink captures the handler the manager registers with the provider.
type eventSink struct {
	mu      sync.Mutex
	handler func(model.SessionEvent)
}

func (s *eventSink) push(t *testing.T, event model.SessionEvent) {
	t.Helper()
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	require.NotNil(t, h, "manager did not subscribe to session changes")
	h(event)
}

// newIdentity returns a provider mock that accepts a subscription and
// captures its handler.
func newIdentity(t *testing.T) (*mocks.IdentityProvider, *eventSink) {
	idp := mocks.NewIdentityProvider(t)
	sub := mocks.NewSubscription(t)
	sub.On("Unsubscribe").Return().Maybe()

	sink := &eventSink{}
	idp.On("OnSessionChange", mock.Anything).Run(func(args mock.Arguments) {
		sink.mu.Lock()
		sink.handler = args.Get(0).(func(model.SessionEvent))
		sink.mu.Unlock()
	}).Return(sub).Maybe()

	return idp, sink
}

func testConfig() ManagerConfig {
	return ManagerConfig{
		SiteURL:       "http://app.local/",
		SafetyTimeout: 2 * time.Second,
		MaxAttempts:   3,
		RetryStep:     time.Millisecond,
	}
}

func newTestManager(t *testing.T, idp model.IdentityProvider, repo model.ProfileRepository, cfg ManagerConfig) *Manager {
	t.Helper()
	m := NewManager(ManagerDeps{
		Identity: idp,
		Profiles: repo,
		Logger:   testutil.MakeNoopLogger(),
	}, cfg)
	t.Cleanup(m.Close)
	return m
}

func newUser(name, company string) model.User {
	return model.User{
		ID:       uuid.New(),
		Email:    "a@x.com",
		Metadata: model.UserMetadata{Name: name, Company: company},
	}
}

func sessionFor(u model.User) *model.Session {
	return &model.Session{
		AccessToken:  "access-" + u.ID.String(),
		RefreshToken: "refresh",
		SubjectID:    u.ID,
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         u,
	}
}

func profileFor(u model.User) model.Profile {
	return model.Profile{ID: u.ID, Name: "Ann", Company: "Acme"}
}

func isSettled(s model.State) bool {
	if s.Loading {
		return false
	}
	switch s.Phase {
	case model.PhaseReady, model.PhaseSignedOut, model.PhaseSessionFetchFailed:
		return true
	}
	return false
}

func waitSettled(t *testing.T, m *Manager) model.State {
	t.Helper()
	require.Eventually(t, func() bool { return isSettled(m.State()) }, 2*time.Second, 5*time.Millisecond)
	return m.State()
}

func waitContinuations(t *testing.T, m *Manager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))
}

// closeAndWait tears m down and waits until observers saw every queued item.
func closeAndWait(t *testing.T, m *Manager) {
	t.Helper()
	m.Close()
	waitContinuations(t, m)
}

// stateLog records every published state.
type stateLog struct {
	mu     sync.Mutex
	states []model.State
}

func (l *stateLog) record(s model.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, s)
}

func (l *stateLog) all() []model.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.State(nil), l.states...)
}

type noteLog struct {
	mu    sync.Mutex
	notes []model.Notification
}

func (l *noteLog) record(n model.Notification) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notes = append(l.notes, n)
}

func (l *noteLog) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.notes))
	for _, n := range l.notes {
		out = append(out, n.Message)
	}
	return out
}
