package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/journal-backend/internal/logger"
	"github.com/AnshRaj112/journal-backend/internal/middleware"
	"github.com/AnshRaj112/journal-backend/internal/models"
	"github.com/AnshRaj112/journal-backend/internal/services"
	"github.com/AnshRaj112/journal-backend/internal/testutil"
	"github.com/AnshRaj112/journal-backend/pkg/utils"
)

type fixture struct {
	store   *testutil.MemStore
	handler *Handler
	router  chi.Router
	userID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewMemStore()
	tokens, err := services.NewTokenIssuer("test-secret")
	require.NoError(t, err)
	users := services.NewUserService(store.Users(), utils.NewPasswordHasher(1, 1024, 1), tokens)
	h := New(users, services.NewJournalService(store.Entries()), store)

	user, err := users.Register(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)

	f := &fixture{store: store, handler: h, userID: user.ID}

	// Stand-in for the auth guard: the caller is whoever X-Test-User names.
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(logger.Middleware(logger.Discard()))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := uuid.Parse(r.Header.Get("X-Test-User")); err == nil {
				r = r.WithContext(middleware.WithUserID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Get("/me", h.Me)
	r.Get("/entries", h.ListEntries)
	r.Post("/entries", h.CreateEntry)
	r.Get("/entries/{id}", h.GetEntry)
	r.Put("/entries/{id}", h.UpdateEntry)
	r.Delete("/entries/{id}", h.DeleteEntry)
	f.router = r
	return f
}

func (f *fixture) do(method, path, body string, as uuid.UUID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if as != uuid.Nil {
		req.Header.Set("X-Test-User", as.String())
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) createEntry(t *testing.T, body string) models.JournalEntry {
	t.Helper()
	rec := f.do(http.MethodPost, "/entries", body, f.userID)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var e models.JournalEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body["error"]
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/register", `{"email":"Bob@Example.com","password":"pw"}`, uuid.Nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var user map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "bob@example.com", user["email"])
	assert.NotEmpty(t, user["id"])
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "argon2")

	rec = f.do(http.MethodPost, "/register", `{"email":"bob@example.com","password":"x"}`, uuid.Nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email already registered", errorMessage(t, rec))
}

func TestRegister_BadBodies(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", ``, "request body is required"},
		{"not json", `{email`, "invalid JSON body"},
		{"missing password", `{"email":"x@example.com"}`, "password is required"},
		{"wrong type", `{"email":"x@example.com","password":5}`, "password: Invalid type. Expected: string, given: integer"},
		{"array", `[]`, "(root): Invalid type. Expected: object, given: array"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/register", tt.body, uuid.Nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, errorMessage(t, rec))
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/login", `{"email":"alice@example.com","password":"pw"}`, uuid.Nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])

	wrongPw := f.do(http.MethodPost, "/login", `{"email":"alice@example.com","password":"nope"}`, uuid.Nil)
	noUser := f.do(http.MethodPost, "/login", `{"email":"nobody@example.com","password":"pw"}`, uuid.Nil)
	assert.Equal(t, http.StatusBadRequest, wrongPw.Code)
	assert.Equal(t, http.StatusBadRequest, noUser.Code)
	assert.Equal(t, wrongPw.Body.String(), noUser.Body.String())
	assert.Equal(t, "invalid email or password", errorMessage(t, wrongPw))
}

func TestMe(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/me", "", f.userID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"alice@example.com"`)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/me", "", uuid.Nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/me", "", uuid.New()).Code)
}

func TestCreateEntry(t *testing.T) {
	f := newFixture(t)

	e := f.createEntry(t, `{"title":"T","content":"C","mood":"calm","ownerId":"`+uuid.NewString()+`"}`)
	assert.Equal(t, f.userID, e.OwnerID, "owner comes from the caller, not the body")
	require.NotNil(t, e.Mood)
	assert.Equal(t, "calm", *e.Mood)

	rec := f.do(http.MethodPost, "/entries", `{"title":"T"}`, f.userID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "content is required", errorMessage(t, rec))

	rec = f.do(http.MethodPost, "/entries", `{"title":"T","content":""}`, f.userID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/entries", `{"title":"T","content":"C","mood":3}`, f.userID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 1, f.store.EntryCount())
}

func TestListEntries(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/entries", "", f.userID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for i := 0; i < 3; i++ {
		f.createEntry(t, `{"title":"T","content":"C"}`)
	}

	rec = f.do(http.MethodGet, "/entries?limit=2", "", f.userID)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.JournalEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	for _, q := range []string{"limit=0", "limit=abc", "skip=-1"} {
		rec = f.do(http.MethodGet, "/entries?"+q, "", f.userID)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestGetEntry(t *testing.T) {
	f := newFixture(t)
	e := f.createEntry(t, `{"title":"T","content":"C"}`)

	rec := f.do(http.MethodGet, "/entries/"+e.ID.String(), "", f.userID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mood":null`)

	rec = f.do(http.MethodGet, "/entries/not-a-uuid", "", f.userID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "entry not found", errorMessage(t, rec))

	rec = f.do(http.MethodGet, "/entries/"+uuid.NewString(), "", f.userID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateEntry(t *testing.T) {
	f := newFixture(t)
	e := f.createEntry(t, `{"title":"T","content":"C","mood":"sad"}`)
	path := "/entries/" + e.ID.String()

	rec := f.do(http.MethodPut, path, `{"title":"T2"}`, f.userID)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.JournalEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "T2", got.Title)
	assert.Equal(t, "C", got.Content)
	require.NotNil(t, got.Mood)
	assert.Equal(t, "sad", *got.Mood)

	rec = f.do(http.MethodPut, path, `{"mood":null}`, f.userID)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Nil(t, got.Mood)

	rec = f.do(http.MethodPut, path, `{"content":""}`, f.userID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPut, path, `{"title":false}`, f.userID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPut, "/entries/"+uuid.NewString(), `{"title":"x"}`, f.userID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteEntry(t *testing.T) {
	f := newFixture(t)
	e := f.createEntry(t, `{"title":"T","content":"C"}`)
	path := "/entries/" + e.ID.String()

	rec := f.do(http.MethodDelete, path, "", f.userID)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = f.do(http.MethodDelete, path, "", f.userID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInternalErrorCarriesRequestID(t *testing.T) {
	f := newFixture(t)
	f.store.Err = errors.New("connection refused to 10.0.0.5")

	rec := f.do(http.MethodGet, "/entries", "", f.userID)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body["error"])
	assert.NotEmpty(t, body["requestId"])
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/health", "", uuid.Nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	f.store.PingErr = errors.New("down")
	rec = f.do(http.MethodGet, "/health", "", uuid.Nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = f.do(http.MethodGet, "/", "", uuid.Nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(services.KindBadRequest))
	assert.Equal(t, http.StatusBadRequest, statusFor(services.KindConflict))
	assert.Equal(t, http.StatusUnauthorized, statusFor(services.KindUnauthenticated))
	assert.Equal(t, http.StatusNotFound, statusFor(services.KindNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(services.KindInternal))
}
