package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dtroode/qubras-auth/internal/logger"
	"github.com/dtroode/qubras-auth/internal/metrics"
	"github.com/dtroode/qubras-auth/internal/model"
	"github.com/dtroode/qubras-auth/internal/retry"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryStep   = time.Second
)

// Notifier receives toast-equivalent events.
type Notifier func(model.Notification)

// ProfilesConfig tunes profile fetch retries.
type ProfilesConfig struct {
	MaxAttempts int
	RetryStep   time.Duration
}

// Profiles fetches, provisions and updates profile rows and caches the last
// known row per user.
type Profiles struct {
	repo        model.ProfileRepository
	metrics     metrics.Recorder
	logger      *logger.Logger
	notify      Notifier
	maxAttempts int
	delay       retry.DelayFunc

	group singleflight.Group

	mu    sync.RWMutex
	cache map[uuid.UUID]model.Profile
}

func NewProfiles(repo model.ProfileRepository, rec metrics.Recorder, l *logger.Logger, notify Notifier, cfg ProfilesConfig) *Profiles {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryStep <= 0 {
		cfg.RetryStep = DefaultRetryStep
	}
	if rec == nil {
		rec = metrics.Noop{}
	}
	if notify == nil {
		notify = func(model.Notification) {}
	}

	return &Profiles{
		repo:        repo,
		metrics:     rec,
		logger:      l,
		notify:      notify,
		maxAttempts: cfg.MaxAttempts,
		delay:       retry.Linear(cfg.RetryStep),
		cache:       make(map[uuid.UUID]model.Profile),
	}
}

// Get returns the profile of user, provisioning a default one when none
// exists. Concurrent calls for the same user share one fetch. On failure it
// returns nil and an *model.AuthError; the cached row is kept.
func (p *Profiles) Get(ctx context.Context, user model.User) (*model.Profile, error) {
	v, err, shared := p.group.Do(user.ID.String(), func() (any, error) {
		return p.fetch(ctx, user)
	})
	if shared {
		p.logger.Debug("Profile service: joined in-flight fetch", "user_id", user.ID)
	}
	if err != nil {
		return nil, err
	}

	profile := v.(model.Profile)
	return &profile, nil
}

func (p *Profiles) fetch(ctx context.Context, user model.User) (model.Profile, error) {
	p.logger.Debug("Profile service: fetching profile", "user_id", user.ID)

	var profile model.Profile
	err := retry.WithBackoff(ctx, func(ctx context.Context, attempt int) error {
		p.metrics.RecordProfileFetchAttempt()

		got, err := p.fetchOrProvision(ctx, user)
		if err != nil {
			p.logger.Warn("Profile service: fetch attempt failed",
				"user_id", user.ID,
				"attempt", attempt,
				"error", err.Error())
			return err
		}
		profile = got
		return nil
	}, p.maxAttempts, p.delay)
	if err != nil {
		return model.Profile{}, p.fail(ctx, "getProfile", "Failed to load profile", user.ID, err)
	}

	p.store(profile)
	return profile, nil
}

// fetchOrProvision is one attempt of the fetch algorithm. A lost provisioning
// race is resolved by re-reading the winner's row.
func (p *Profiles) fetchOrProvision(ctx context.Context, user model.User) (model.Profile, error) {
	profile, err := p.repo.Get(ctx, user.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Profile{}, err
	}

	created, err := p.repo.Insert(ctx, model.DefaultProfile(user))
	if err == nil {
		p.metrics.RecordProfileProvisioned(false)
		p.logger.Info("Profile service: provisioned default profile", "user_id", user.ID)
		return created, nil
	}
	if !errors.Is(err, model.ErrProfileExists) {
		return model.Profile{}, err
	}

	p.metrics.RecordProfileProvisioned(true)
	conflict := model.NewAuthError(model.KindProfileProvisionConflict, "getProfile", err)
	p.logger.Debug("Profile service: provisioning race lost, re-fetching",
		"user_id", user.ID,
		"error", conflict.Error())

	profile, err = p.repo.Get(ctx, user.ID)
	if errors.Is(err, model.ErrNotFound) {
		// The winning row is not visible yet; try again on the next attempt.
		return model.Profile{}, fmt.Errorf("%w: provisioned profile not visible: %v", model.ErrUnavailable, err)
	}
	return profile, err
}

// Update applies patch to the profile of user. A missing row is provisioned
// from the defaults with the patch applied on top.
func (p *Profiles) Update(ctx context.Context, user model.User, patch model.ProfilePatch) (model.Profile, error) {
	p.logger.Debug("Profile service: updating profile", "user_id", user.ID)

	var profile model.Profile
	err := retry.WithBackoff(ctx, func(ctx context.Context, attempt int) error {
		got, err := p.upsert(ctx, user, patch)
		if err != nil {
			p.logger.Warn("Profile service: update attempt failed",
				"user_id", user.ID,
				"attempt", attempt,
				"error", err.Error())
			return err
		}
		profile = got
		return nil
	}, p.maxAttempts, p.delay)
	if err != nil {
		return model.Profile{}, p.fail(ctx, "updateProfile", "Failed to update profile", user.ID, err)
	}

	p.store(profile)
	p.notify(model.Notification{Level: model.NotifySuccess, Op: "updateProfile", Message: "Profile updated successfully"})
	p.logger.Info("Profile service: profile updated", "user_id", user.ID)

	return profile, nil
}

func (p *Profiles) upsert(ctx context.Context, user model.User, patch model.ProfilePatch) (model.Profile, error) {
	_, err := p.repo.Get(ctx, user.ID)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrNotFound):
		created, err := p.repo.Insert(ctx, patch.Apply(model.DefaultProfile(user)))
		if err == nil {
			p.metrics.RecordProfileProvisioned(false)
			return created, nil
		}
		if !errors.Is(err, model.ErrProfileExists) {
			return model.Profile{}, err
		}
		p.metrics.RecordProfileProvisioned(true)
	default:
		return model.Profile{}, err
	}

	if !patch.IsEmpty() {
		if _, err := p.repo.Update(ctx, user.ID, patch); err != nil {
			return model.Profile{}, err
		}
	}
	return p.repo.Get(ctx, user.ID)
}

// fail turns a terminal error into an AuthError and notifies about it.
func (p *Profiles) fail(ctx context.Context, op, message string, userID uuid.UUID, err error) error {
	if ctx.Err() != nil {
		return err
	}

	kind := model.KindProfileFetch
	if !retry.IsTransient(err) {
		kind = model.KindUnknown
	}
	p.logger.Error("Profile service: giving up",
		"op", op,
		"user_id", userID,
		"kind", kind,
		"error", err.Error())
	p.notify(model.Notification{Level: model.NotifyError, Op: op, Message: message})

	return model.NewAuthError(kind, op, err)
}

// Cached returns the last profile loaded for id.
func (p *Profiles) Cached(id uuid.UUID) (model.Profile, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	profile, ok := p.cache[id]
	return profile, ok
}

// Forget drops the cached profile of id.
func (p *Profiles) Forget(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cache, id)
}

func (p *Profiles) store(profile model.Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[profile.ID] = profile
}
