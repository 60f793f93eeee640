package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/qubras-auth/internal/mocks"
	"github.com/dtroode/qubras-auth/internal/model"
	"github.com/dtroode/qubras-auth/internal/testutil"
)

func TestManager_UploadAvatar(t *testing.T) {
	user := newUser("Ann", "Acme")
	oldURL := "http://minio.local/avatars/" + user.ID.String() + "/old.png"
	newURL := "http://minio.local/avatars/" + user.ID.String() + "/new.png"

	repo := newMemRepo()
	existing := profileFor(user)
	existing.AvatarURL = &oldURL
	repo.put(existing)

	idp, _ := newIdentity(t)
	idp.On("GetSession", mock.Anything).Return(sessionFor(user), nil).Once()

	avatars := mocks.NewAvatarStorage(t)
	body := bytes.NewReader([]byte("png-bytes"))
	avatars.On("UploadAvatar", mock.Anything, user.ID, "image/png", int64(9), body).Return(newURL, nil).Once()
	avatars.On("DeleteAvatar", mock.Anything, oldURL).Return(errors.New("gone")).Once()

	m := NewManager(ManagerDeps{
		Identity: idp,
		Profiles: repo,
		Avatars:  avatars,
		Logger:   testutil.MakeNoopLogger(),
	}, testConfig())
	t.Cleanup(m.Close)

	require.NoError(t, m.Start(context.Background()))
	waitSettled(t, m)

	got, err := m.UploadAvatar(context.Background(), "image/png", 9, body)
	require.NoError(t, err)
	require.NotNil(t, got.AvatarURL)
	assert.Equal(t, newURL, *got.AvatarURL)

	state := m.State()
	require.NotNil(t, state.Profile)
	require.NotNil(t, state.Profile.AvatarURL)
	assert.Equal(t, newURL, *state.Profile.AvatarURL)
	assert.Nil(t, state.Error)
}

func TestManager_UploadAvatarRejectsInvalidInput(t *testing.T) {
	user := newUser("Ann", "Acme")
	idp, _ := newIdentity(t)
	idp.On("GetSession", mock.Anything).Return(sessionFor(user), nil).Once()

	avatars := mocks.NewAvatarStorage(t)
	avatars.On("UploadAvatar", mock.Anything, user.ID, "text/plain", int64(3), mock.Anything).
		Return("", model.ErrInvalidInput).Once()

	m := NewManager(ManagerDeps{
		Identity: idp,
		Profiles: newMemRepo(),
		Avatars:  avatars,
		Logger:   testutil.MakeNoopLogger(),
	}, testConfig())
	t.Cleanup(m.Close)

	require.NoError(t, m.Start(context.Background()))
	waitSettled(t, m)

	_, err := m.UploadAvatar(context.Background(), "text/plain", 3, bytes.NewReader([]byte("abc")))
	assert.Equal(t, model.KindInvalidInput, model.KindOf(err))
}

func TestClassifyOpError(t *testing.T) {
	tests := []struct {
		name string
		op   string
		err  error
		want model.ErrorKind
	}{
		{name: "auth error kept", op: "signIn", err: model.NewAuthError(model.KindTimeout, "x", nil), want: model.KindTimeout},
		{name: "invalid input", op: "signUp", err: model.ErrInvalidInput, want: model.KindInvalidInput},
		{name: "invalid credentials", op: "signIn", err: model.ErrInvalidCredentials, want: model.KindCredentials},
		{name: "not authenticated", op: "updateProfile", err: model.ErrNotAuthenticated, want: model.KindCredentials},
		{name: "sign in rejected", op: "signIn", err: &model.ProviderError{Status: 400, Message: "Email not confirmed"}, want: model.KindCredentials},
		{name: "sign up rejected", op: "signUp", err: &model.ProviderError{Status: 422, Message: "User already registered"}, want: model.KindProviderRejected},
		{name: "weak password", op: "signUp", err: fmt.Errorf("failed to sign up: %w", &model.ProviderError{Status: 422, Code: "weak_password"}), want: model.KindProviderRejected},
		{name: "transient", op: "signIn", err: model.ErrUnavailable, want: model.KindUnknown},
		{name: "anything else", op: "signOut", err: errors.New("boom"), want: model.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyOpError(tt.op, tt.err)
			assert.Equal(t, tt.want, got.Kind)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
