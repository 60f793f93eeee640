package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/qubras-auth/internal/mocks"
	"github.com/dtroode/qubras-auth/internal/model"
	"github.com/dtroode/qubras-auth/internal/testutil"
)

func newTestProfiles(repo model.ProfileRepository, notes *noteLog) *Profiles {
	var notify Notifier
	if notes != nil {
		notify = notes.record
	}
	return NewProfiles(repo, nil, testutil.MakeNoopLogger(), notify, ProfilesConfig{
		MaxAttempts: 3,
		RetryStep:   time.Millisecond,
	})
}

func TestProfiles_GetExisting(t *testing.T) {
	repo := newMemRepo()
	user := newUser("Ann", "Acme")
	repo.put(profileFor(user))

	p := newTestProfiles(repo, nil)

	first, err := p.Get(context.Background(), user)
	require.NoError(t, err)
	second, err := p.Get(context.Background(), user)
	require.NoError(t, err)

	assert.Equal(t, *first, *second)
	_, inserts, _ := repo.calls()
	assert.Equal(t, 0, inserts)

	cached, ok := p.Cached(user.ID)
	require.True(t, ok)
	assert.Equal(t, *first, cached)
}

func TestProfiles_GetProvisionsDefault(t *testing.T) {
	tests := []struct {
		name        string
		user        model.User
		wantName    string
		wantCompany string
	}{
		{name: "from signup metadata", user: newUser("Ann", "Acme"), wantName: "Ann", wantCompany: "Acme"},
		{name: "fallback defaults", user: newUser("", "  "), wantName: "User", wantCompany: "Company"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			p := newTestProfiles(repo, nil)

			got, err := p.Get(context.Background(), tt.user)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantCompany, got.Company)

			again, err := p.Get(context.Background(), tt.user)
			require.NoError(t, err)
			assert.Equal(t, *got, *again)

			_, inserts, _ := repo.calls()
			assert.Equal(t, 1, inserts)
			assert.Equal(t, 1, repo.count())
		})
	}
}

func TestProfiles_ConcurrentProvisioningAcrossInstances(t *testing.T) {
	repo := newMemRepo()
	user := newUser("Ann", "Acme")

	// Both fetchers see no row and reach Insert before either commits.
	var barrier sync.WaitGroup
	barrier.Add(2)
	repo.beforeInsert = func() {
		barrier.Done()
		barrier.Wait()
	}

	a := newTestProfiles(repo, nil)
	b := newTestProfiles(repo, nil)

	var wg sync.WaitGroup
	results := make([]*model.Profile, 2)
	errs := make([]error, 2)
	for i, p := range []*Profiles{a, b} {
		wg.Add(1)
		go func(i int, p *Profiles) {
			defer wg.Done()
			results[i], errs[i] = p.Get(context.Background(), user)
		}(i, p)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, *results[0], *results[1])
	assert.Equal(t, 1, repo.count())
	_, inserts, _ := repo.calls()
	assert.Equal(t, 2, inserts)
}

func TestProfiles_ConcurrentGetsShareOneFetch(t *testing.T) {
	repo := newMemRepo()
	user := newUser("Ann", "Acme")
	gate := make(chan struct{})
	repo.getGate = gate

	p := newTestProfiles(repo, nil)

	var wg sync.WaitGroup
	results := make([]*model.Profile, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := p.Get(context.Background(), user)
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}

	require.Eventually(t, func() bool {
		gets, _, _ := repo.calls()
		return gets >= 1
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, 1, repo.count())
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, *results[0], *r)
	}
}

func TestProfiles_GetRetriesTransientFailures(t *testing.T) {
	repo := newMemRepo()
	user := newUser("Ann", "Acme")
	repo.put(profileFor(user))
	repo.getErr = func(call int) error {
		if call <= 2 {
			return fmt.Errorf("%w: connection reset", model.ErrUnavailable)
		}
		return nil
	}

	p := newTestProfiles(repo, nil)
	got, err := p.Get(context.Background(), user)
	require.NoError(t, err)
	require.NotNil(t, got)

	gets, _, _ := repo.calls()
	assert.Equal(t, 3, gets)
}

func TestProfiles_GetGivesUpAfterMaxAttempts(t *testing.T) {
	repo := newMemRepo()
	user := newUser("Ann", "Acme")
	repo.put(profileFor(user))

	notes := &noteLog{}
	p := newTestProfiles(repo, notes)

	_, err := p.Get(context.Background(), user)
	require.NoError(t, err)

	repo.getErr = func(int) error { return fmt.Errorf("%w: timeout", model.ErrUnavailable) }

	got, err := p.Get(context.Background(), user)
	assert.Nil(t, got)
	assert.Equal(t, model.KindProfileFetch, model.KindOf(err))

	gets, _, _ := repo.calls()
	assert.Equal(t, 4, gets)

	_, ok := p.Cached(user.ID)
	assert.True(t, ok, "cached profile must survive a failed fetch")
	assert.Equal(t, []string{"Failed to load profile"}, notes.messages())
}

func TestProfiles_GetDoesNotRetryPermanentErrors(t *testing.T) {
	repo := mocks.NewProfileRepository(t)
	user := newUser("Ann", "Acme")
	repo.On("Get", mock.Anything, user.ID).Return(model.Profile{}, errors.New("permission denied")).Once()

	p := newTestProfiles(repo, nil)
	got, err := p.Get(context.Background(), user)
	assert.Nil(t, got)
	assert.Equal(t, model.KindUnknown, model.KindOf(err))
}

func TestProfiles_GetConflictRefetchesWinner(t *testing.T) {
	repo := mocks.NewProfileRepository(t)
	user := newUser("Ann", "Acme")
	winner := model.Profile{ID: user.ID, Name: "Winner", Company: "Co"}

	repo.On("Get", mock.Anything, user.ID).Return(model.Profile{}, model.ErrNotFound).Once()
	repo.On("Insert", mock.Anything, model.DefaultProfile(user)).Return(model.Profile{}, model.ErrProfileExists).Once()
	repo.On("Get", mock.Anything, user.ID).Return(winner, nil).Once()

	p := newTestProfiles(repo, nil)
	got, err := p.Get(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, winner, *got)
}

func TestProfiles_Update(t *testing.T) {
	name := "Ann B"
	bio := "We sell boats"

	t.Run("patches existing row and re-reads it", func(t *testing.T) {
		repo := newMemRepo()
		user := newUser("Ann", "Acme")
		repo.put(profileFor(user))
		notes := &noteLog{}
		p := newTestProfiles(repo, notes)

		got, err := p.Update(context.Background(), user, model.ProfilePatch{Name: &name, Bio: &bio})
		require.NoError(t, err)
		assert.Equal(t, name, got.Name)
		assert.Equal(t, "Acme", got.Company)
		require.NotNil(t, got.Bio)
		assert.Equal(t, bio, *got.Bio)

		cached, ok := p.Cached(user.ID)
		require.True(t, ok)
		assert.Equal(t, got, cached)
		assert.Equal(t, []string{"Profile updated successfully"}, notes.messages())
	})

	t.Run("provisions missing row with patch applied", func(t *testing.T) {
		repo := newMemRepo()
		user := newUser("", "")
		p := newTestProfiles(repo, nil)

		got, err := p.Update(context.Background(), user, model.ProfilePatch{Bio: &bio})
		require.NoError(t, err)
		assert.Equal(t, "User", got.Name)
		assert.Equal(t, "Company", got.Company)
		require.NotNil(t, got.Bio)
		assert.Equal(t, bio, *got.Bio)
		assert.Equal(t, 1, repo.count())
	})

	t.Run("concurrent with fetch converges", func(t *testing.T) {
		repo := newMemRepo()
		user := newUser("Ann", "Acme")
		var barrier sync.WaitGroup
		barrier.Add(2)
		repo.beforeInsert = func() {
			barrier.Done()
			barrier.Wait()
		}
		p := newTestProfiles(repo, nil)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := p.Get(context.Background(), user)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := p.Update(context.Background(), user, model.ProfilePatch{Name: &name})
			assert.NoError(t, err)
		}()
		wg.Wait()

		assert.Equal(t, 1, repo.count())
		final, err := repo.Get(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, name, final.Name)
	})

	t.Run("terminal failure notifies", func(t *testing.T) {
		repo := mocks.NewProfileRepository(t)
		user := newUser("Ann", "Acme")
		repo.On("Get", mock.Anything, user.ID).Return(model.Profile{}, fmt.Errorf("%w: down", model.ErrUnavailable)).Times(3)

		notes := &noteLog{}
		p := newTestProfiles(repo, notes)

		_, err := p.Update(context.Background(), user, model.ProfilePatch{Name: &name})
		assert.Equal(t, model.KindProfileFetch, model.KindOf(err))
		assert.Equal(t, []string{"Failed to update profile"}, notes.messages())
	})
}

func TestProfiles_Forget(t *testing.T) {
	repo := newMemRepo()
	user := newUser("Ann", "Acme")
	p := newTestProfiles(repo, nil)

	_, err := p.Get(context.Background(), user)
	require.NoError(t, err)

	p.Forget(user.ID)
	_, ok := p.Cached(user.ID)
	assert.False(t, ok)
}
