package handlers

import (
	"errors"
	"net/http"

	"github.com/AnshRaj112/journal-backend/internal/middleware"
	"github.com/AnshRaj112/journal-backend/internal/services"
)

// Handler serves the HTTP API on top of the services.
type Handler struct {
	users   *services.UserService
	journal *services.JournalService
	store   services.Pinger
}

func New(users *services.UserService, journal *services.JournalService, store services.Pinger) *Handler {
	return &Handler{users: users, journal: journal, store: store}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Register handles POST /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req credentialsRequest
	if err := credentialsBody.decode(body, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req credentialsRequest
	if err := credentialsBody.decode(body, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var svcErr *services.Error
		if errors.As(err, &svcErr) && svcErr.Kind == services.KindUnauthenticated {
			// Rejected credentials are a 400; 401 is reserved for missing tokens.
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: svcErr.Message})
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// Me handles GET /me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, services.Unauthenticated("authentication required", nil))
		return
	}

	user, err := h.users.Me(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
