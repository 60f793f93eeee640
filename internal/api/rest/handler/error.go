package handler

import (
	"errors"
	"net/http"

	"github.com/dtroode/qubras-auth/internal/model"
)

func statusFor(err error) int {
	if errors.Is(err, model.ErrClosed) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, model.ErrInvalidInput) {
		return http.StatusBadRequest
	}

	var providerErr *model.ProviderError
	var authErr *model.AuthError
	switch {
	case errors.As(err, &authErr):
		switch authErr.Kind {
		case model.KindInvalidInput:
			return http.StatusBadRequest
		case model.KindCredentials:
			return http.StatusUnauthorized
		case model.KindProviderRejected:
			return http.StatusUnprocessableEntity
		case model.KindMissingSessionData:
			return http.StatusBadGateway
		case model.KindSessionFetch, model.KindProfileFetch:
			return http.StatusServiceUnavailable
		case model.KindTimeout:
			return http.StatusGatewayTimeout
		}
	case errors.As(err, &providerErr):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)

	resp := errorResponse{Kind: string(model.KindOf(err)), Message: err.Error()}
	var authErr *model.AuthError
	if errors.As(err, &authErr) {
		resp.Op = authErr.Op
	}
	if status == http.StatusInternalServerError {
		resp.Message = "internal server error"
	}

	writeJSON(w, status, resp)
}
