package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/qubras-auth/internal/mocks"
	"github.com/dtroode/qubras-auth/internal/model"
	"github.com/dtroode/qubras-auth/internal/testutil"
)

func TestRouter_Health(t *testing.T) {
	r := New(mocks.NewController(t), mocks.NewRedirectCompleter(t), nil, "http://site", testutil.MakeNoopLogger())

	rec := httptest.NewRecorder()
	r.Register().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("qubras_auth_operations_total 1"))
	})
	r := New(mocks.NewController(t), mocks.NewRedirectCompleter(t), metrics, "http://site", testutil.MakeNoopLogger())

	rec := httptest.NewRecorder()
	r.Register().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "qubras_auth_operations_total")
}

func TestRouter_ProfileRequiresSession(t *testing.T) {
	ctrl := mocks.NewController(t)
	ctrl.On("State").Return(model.State{Phase: model.PhaseSignedOut})

	r := New(ctrl, mocks.NewRedirectCompleter(t), nil, "http://site", testutil.MakeNoopLogger())

	rec := httptest.NewRecorder()
	r.Register().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/profile/refresh", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_SocialSignIn(t *testing.T) {
	ctrl := mocks.NewController(t)
	ctrl.On("SocialSignIn", mock.Anything, model.OAuthGoogle).Return(nil)

	r := New(ctrl, mocks.NewRedirectCompleter(t), nil, "http://site", testutil.MakeNoopLogger())

	rec := httptest.NewRecorder()
	r.Register().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/social/google", strings.NewReader("")))

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	r := New(mocks.NewController(t), mocks.NewRedirectCompleter(t), nil, "http://site", testutil.MakeNoopLogger())

	rec := httptest.NewRecorder()
	r.Register().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
