package api

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/susu3304/billdividr/internal/group"
)

func generateRandomString(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	encoded := base64.RawURLEncoding.EncodeToString(b)
	return encoded[:length]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	key := "message"
	if status >= http.StatusBadRequest {
		key = "error"
	}
	writeJSON(w, status, map[string]string{key: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}

// writeError maps group errors to HTTP statuses.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, group.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, group.ErrInvalidAmount),
		errors.Is(err, group.ErrInvalidMember),
		errors.Is(err, group.ErrNoParticipants),
		errors.Is(err, group.ErrSamePerson),
		errors.Is(err, group.ErrNameRequired):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, group.ErrOutstandingBalance),
		errors.Is(err, group.ErrChannelInUse):
		writeMessage(w, http.StatusConflict, err.Error())
	default:
		a.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}
