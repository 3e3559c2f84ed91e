package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	identityapp "github.com/sngm3741/mess-hall/api/internal/identity/application"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
	"github.com/sngm3741/mess-hall/api/internal/interfaces/http/common"
)

var (
	student   = identitydomain.Account{ID: "stu", Name: "Alice", Email: "alice@campus.edu", Role: identitydomain.RoleStudent}
	secretary = identitydomain.Account{ID: "sec", Name: "Sam", Email: "sam@campus.edu", Role: identitydomain.RoleSecretary}
	expiresAt = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
)

type fakeAuth struct {
	registered []identityapp.RegisterCommand
	idTokens   []string
}

func (f *fakeAuth) Register(_ context.Context, cmd identityapp.RegisterCommand) (*identityapp.Session, error) {
	if cmd.Email == "taken@campus.edu" {
		return nil, apperr.Conflict("User already exists")
	}
	f.registered = append(f.registered, cmd)
	return &identityapp.Session{Token: "tok", ExpiresAt: expiresAt, Account: identitydomain.Account{ID: "new", Name: cmd.Name, Email: cmd.Email, Role: identitydomain.Role(cmd.Role)}}, nil
}

func (f *fakeAuth) Login(_ context.Context, cmd identityapp.LoginCommand) (*identityapp.Session, error) {
	if cmd.Email != student.Email || cmd.Password != "pw" {
		return nil, apperr.InvalidCredentials()
	}
	return &identityapp.Session{Token: "tok", ExpiresAt: expiresAt, Account: student}, nil
}

func (f *fakeAuth) FederatedLogin(_ context.Context, idToken string) (*identityapp.Session, error) {
	f.idTokens = append(f.idTokens, idToken)
	if idToken == "" {
		return nil, apperr.Validation("idToken is required")
	}
	return &identityapp.Session{Token: "tok", ExpiresAt: expiresAt, Account: student}, nil
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*identitydomain.Account, error) {
	switch token {
	case "student":
		return &student, nil
	case "secretary":
		return &secretary, nil
	case "":
		return nil, apperr.Unauthenticated("No token, authorization denied")
	}
	return nil, apperr.Unauthenticated("Token is not valid")
}

func (f *fakeAuth) RequireRole(account identitydomain.Account, role identitydomain.Role) error {
	return identityapp.RequireRole(account, role)
}

type fakeAllowList struct {
	items []identitydomain.AllowedEmail
}

func (f *fakeAllowList) List(context.Context) ([]identitydomain.AllowedEmail, error) {
	return f.items, nil
}

func (f *fakeAllowList) Add(_ context.Context, actor identitydomain.Account, email string) (*identitydomain.AllowedEmail, error) {
	if err := identityapp.RequireRole(actor, identitydomain.RoleSecretary); err != nil {
		return nil, err
	}
	for _, item := range f.items {
		if item.Email == email {
			return nil, apperr.Conflict("Email already allowed")
		}
	}
	item := identitydomain.AllowedEmail{ID: "ae-1", Email: email}
	f.items = append(f.items, item)
	return &item, nil
}

func (f *fakeAllowList) Remove(_ context.Context, actor identitydomain.Account, id string) error {
	if err := identityapp.RequireRole(actor, identitydomain.RoleSecretary); err != nil {
		return err
	}
	for i, item := range f.items {
		if item.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("Email not found")
}

func newRouter(auth *fakeAuth, allow *fakeAllowList) http.Handler {
	h := NewHandler(Config{Auth: auth, AllowList: allow})
	r := chi.NewRouter()
	h.Register(r, common.RequireAuth(nil, auth))
	return r
}

func do(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	auth := &fakeAuth{}
	router := newRouter(auth, &fakeAllowList{})

	rec := do(t, router, http.MethodPost, "/auth/register", "", `{"name":"Bob","email":"bob@campus.edu","password":"pw","role":"student"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"token":"tok","expiresAt":"2030-01-01T00:00:00Z","user":{"id":"new","name":"Bob","email":"bob@campus.edu","role":"student"}}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/auth/register", "", `{"name":"Bob","email":"bob@campus.edu"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"All fields are required","error":"password is required"}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/auth/register", "", `{"name":"Bob","email":"taken@campus.edu","password":"pw","role":"student"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Len(t, auth.registered, 1)
}

func TestLogin(t *testing.T) {
	router := newRouter(&fakeAuth{}, &fakeAllowList{})

	rec := do(t, router, http.MethodPost, "/auth/login", "", `{"email":"alice@campus.edu","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token":"tok"`)

	rec = do(t, router, http.MethodPost, "/auth/login", "", `{"email":"alice@campus.edu","password":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid credentials"}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/auth/login", "", `{"email":"alice@campus.edu"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email and password are required")
}

func TestGoogleLoginAcceptsCredentialAlias(t *testing.T) {
	auth := &fakeAuth{}
	router := newRouter(auth, &fakeAllowList{})

	rec := do(t, router, http.MethodPost, "/auth/google", "", `{"credential":"g-token"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"g-token"}, auth.idTokens)
}

func TestVerify(t *testing.T) {
	router := newRouter(&fakeAuth{}, &fakeAllowList{})

	rec := do(t, router, http.MethodGet, "/auth/verify", "student", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","user":{"id":"stu","name":"Alice","email":"alice@campus.edu","role":"student"}}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/auth/verify", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAllowedEmails(t *testing.T) {
	allow := &fakeAllowList{}
	router := newRouter(&fakeAuth{}, allow)

	rec := do(t, router, http.MethodPost, "/allowed-emails", "student", `{"email":"x@campus.edu"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodPost, "/allowed-emails", "secretary", `{"email":"x@campus.edu"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"ae-1","email":"x@campus.edu"}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/allowed-emails", "secretary", `{"email":"x@campus.edu"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodGet, "/allowed-emails", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":"ae-1","email":"x@campus.edu"}]`, rec.Body.String())

	rec = do(t, router, http.MethodDelete, "/allowed-emails/ae-1", "secretary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Email removed","id":"ae-1"}`, rec.Body.String())

	rec = do(t, router, http.MethodDelete, "/allowed-emails/ae-1", "secretary", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodDelete, "/allowed-emails/ae-1", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
