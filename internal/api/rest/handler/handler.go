package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	restctx "github.com/dtroode/qubras-auth/internal/api/rest/context"
	"github.com/dtroode/qubras-auth/internal/logger"
	"github.com/dtroode/qubras-auth/internal/model"
)

const maxRequestBody = 1 << 16

// Controller is the session controller facade driven over HTTP.
type Controller interface {
	State() model.State
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password, name, company string) error
	SignOut(ctx context.Context) error
	SocialSignIn(ctx context.Context, provider model.OAuthProvider) error
	ResetPassword(ctx context.Context, email string) error
	UpdateProfile(ctx context.Context, patch model.ProfilePatch) (model.Profile, error)
	RefreshProfile(ctx context.Context) error
	UploadAvatar(ctx context.Context, contentType string, size int64, r io.Reader) (model.Profile, error)
}

// RedirectCompleter finishes redirect based sign in flows.
type RedirectCompleter interface {
	CompleteRedirect(ctx context.Context, callback *url.URL) (*model.Session, error)
}

// Auth serves the controller state and operations.
type Auth struct {
	controller Controller
	redirects  RedirectCompleter
	siteURL    string
	logger     *logger.Logger
}

// NewAuth creates an Auth handler. siteURL is where browsers land after a
// completed redirect flow.
func NewAuth(controller Controller, redirects RedirectCompleter, siteURL string, logger *logger.Logger) *Auth {
	return &Auth{
		controller: controller,
		redirects:  redirects,
		siteURL:    strings.TrimRight(siteURL, "/"),
		logger:     logger,
	}
}

// State writes the current snapshot.
func (h *Auth) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateResponse(h.controller.State()))
}

// Callback completes an OAuth or recovery redirect and forwards the browser.
func (h *Auth) Callback(w http.ResponseWriter, r *http.Request) {
	if _, err := h.redirects.CompleteRedirect(r.Context(), r.URL); err != nil {
		h.logger.Warn("Auth handler: redirect flow failed", "error", err.Error())
		writeError(w, err)
		return
	}

	target := h.siteURL + "/dashboard"
	if r.URL.Query().Get("type") == "recovery" {
		target = h.siteURL + "/auth?reset=true"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Company  string `json:"company,omitempty"`
}

// SignIn signs in with email and password.
func (h *Auth) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.controller.SignIn(r.Context(), req.Email, req.Password); err != nil {
		writeError(w, err)
		return
	}
	h.State(w, r)
}

// SignUp registers a new account.
func (h *Auth) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.controller.SignUp(r.Context(), req.Email, req.Password, req.Name, req.Company); err != nil {
		writeError(w, err)
		return
	}
	h.State(w, r)
}

func (h *Auth) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.SignOut(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.State(w, r)
}

// SocialSignIn starts the redirect flow of the provider in the path.
func (h *Auth) SocialSignIn(w http.ResponseWriter, r *http.Request) {
	provider := model.OAuthProvider(chi.URLParam(r, "provider"))
	if err := h.controller.SocialSignIn(r.Context(), provider); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Auth) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.controller.ResetPassword(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type profileRequest struct {
	Name      *string `json:"name"`
	Company   *string `json:"company"`
	AvatarURL *string `json:"avatar_url"`
	Industry  *string `json:"industry"`
	Website   *string `json:"website"`
	Bio       *string `json:"bio"`
}

// UpdateProfile applies a partial profile update.
func (h *Auth) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decode(w, r, &req) {
		return
	}
	profile, err := h.controller.UpdateProfile(r.Context(), model.ProfilePatch{
		Name:      req.Name,
		Company:   req.Company,
		AvatarURL: req.AvatarURL,
		Industry:  req.Industry,
		Website:   req.Website,
		Bio:       req.Bio,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(profile))
}

func (h *Auth) RefreshProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.RefreshProfile(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.State(w, r)
}

// UploadAvatar stores the request body as the signed in user's avatar.
func (h *Auth) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, _ := restctx.UserIDFromContext(r.Context())
	h.logger.Debug("Auth handler: avatar upload", "user_id", userID, "size", r.ContentLength)

	profile, err := h.controller.UploadAvatar(r.Context(), r.Header.Get("Content-Type"), r.ContentLength, r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(profile))
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Kind:    string(model.KindInvalidInput),
			Message: "malformed request body",
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
