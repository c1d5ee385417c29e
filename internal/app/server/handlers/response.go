package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/KelvCodes/real-time-chat-app/internal/core/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeError maps domain errors onto a status. Anything unrecognised is a
// 500 with a generic body.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingFields),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrProfilePicRequired),
		errors.Is(err, domain.ErrInvalidUserID):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrTokenRevoked):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrImageStoreDisabled):
		writeMessage(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

const maxBodyBytes = 10 << 20 // base64 images ride in the body

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
