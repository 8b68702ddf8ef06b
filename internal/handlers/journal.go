package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/AnshRaj112/journal-backend/internal/middleware"
	"github.com/AnshRaj112/journal-backend/internal/models"
	"github.com/AnshRaj112/journal-backend/internal/services"
)

type createEntryRequest struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Mood    *string `json:"mood"`
}

// caller returns the authenticated user or writes a 401.
func caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, services.Unauthenticated("authentication required", nil))
	}
	return userID, ok
}

// entryID parses the {id} path parameter. A malformed id cannot name an
// entry, so it is reported as not found.
func entryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, services.NotFound("entry not found"))
		return uuid.Nil, false
	}
	return id, true
}

func parsePage(r *http.Request) (models.Page, error) {
	var page models.Page
	q := r.URL.Query()
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return page, services.BadRequest("limit must be a positive integer")
		}
		page.Limit = n
	}
	if s := q.Get("skip"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return page, services.BadRequest("skip must be a non-negative integer")
		}
		page.Skip = n
	}
	return page, nil
}

// ListEntries handles GET /entries.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	page, err := parsePage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries, err := h.journal.List(r.Context(), userID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// CreateEntry handles POST /entries. Any ownerId in the body is ignored.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createEntryRequest
	if err := createEntryBody.decode(body, &req); err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := h.journal.Create(r.Context(), userID, services.NewEntry{
		Title:   req.Title,
		Content: req.Content,
		Mood:    req.Mood,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// GetEntry handles GET /entries/{id}.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	entry, err := h.journal.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// UpdateEntry handles PUT /entries/{id}. Only fields present in the body
// change; "mood": null clears the mood.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// Decoded generically so an explicit null is distinguishable from an
	// absent key.
	var fields map[string]any
	if err := updateEntryBody.decode(body, &fields); err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := h.journal.Update(r.Context(), userID, id, patchFrom(fields))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func patchFrom(fields map[string]any) models.JournalPatch {
	var patch models.JournalPatch
	if v, ok := fields["title"].(string); ok {
		patch.Title = &v
	}
	if v, ok := fields["content"].(string); ok {
		patch.Content = &v
	}
	if v, present := fields["mood"]; present {
		if s, ok := v.(string); ok {
			patch.Mood = &s
		} else {
			patch.ClearMood = true
		}
	}
	return patch
}

// DeleteEntry handles DELETE /entries/{id}.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	if err := h.journal.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
