package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/AnshRaj112/journal-backend/internal/logger"
	"github.com/AnshRaj112/journal-backend/internal/services"
)

// maxBodyBytes caps request bodies; journal entries are text.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	json.NewEncoder(w).Encode(v)
}

// statusFor is the single place error kinds become HTTP statuses. Conflict is
// a 400 on this API.
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindBadRequest, services.KindConflict:
		return http.StatusBadRequest
	case services.KindUnauthenticated:
		return http.StatusUnauthorized
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error": msg}. Internal errors are logged and
// their detail replaced by a generic message plus the request id.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		svcErr = services.Internal(err)
	}

	if svcErr.Kind == services.KindInternal {
		logger.FromContext(r.Context()).WithError(svcErr.Err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:     svcErr.Message,
			RequestID: logger.RequestID(r.Context()),
		})
		return
	}

	writeJSON(w, statusFor(svcErr.Kind), errorResponse{Error: svcErr.Message})
}

// readBody reads at most maxBodyBytes of the request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, services.BadRequest("request body too large")
		}
		return nil, services.BadRequest("invalid request body")
	}
	return body, nil
}
