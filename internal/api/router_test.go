package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/sellerpanel/account-service/internal/core/domain"
	"github.com/sellerpanel/account-service/internal/core/ports"
	"github.com/sellerpanel/account-service/internal/infrastructure/security"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// fakeAccounts answers every call with a fixed result or error.
type fakeAccounts struct {
	err     error
	account *domain.Account
	gotID   string
}

func (f *fakeAccounts) Signup(context.Context, ports.SignupInput) (*domain.Account, error) {
	return f.account, f.err
}

func (f *fakeAccounts) Signin(context.Context, string, string) (*ports.SigninResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ports.SigninResult{Account: f.account, Token: "t", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeAccounts) Signout(context.Context, string, time.Time) error { return f.err }

func (f *fakeAccounts) GetByID(_ context.Context, _ domain.Requester, id string) (*domain.Account, error) {
	f.gotID = id
	return f.account, f.err
}

func (f *fakeAccounts) Update(context.Context, domain.Requester, string, ports.UpdateInput) (*domain.Account, error) {
	return f.account, f.err
}

func (f *fakeAccounts) Delete(context.Context, domain.Requester, string) error { return f.err }

func (f *fakeAccounts) List(context.Context, domain.Requester, int) (*ports.AccountPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ports.AccountPage{Items: []*domain.Account{}, Page: 1, Limit: 10}, nil
}

func (f *fakeAccounts) Search(context.Context, domain.Requester, ports.SearchInput) (*ports.AccountPage, error) {
	return f.List(context.Background(), domain.Requester{}, 1)
}

type testServer struct {
	handler http.Handler
	issuer  *security.TokenIssuer
}

func newTestServer(t *testing.T, accounts ports.AccountService) *testServer {
	t.Helper()
	issuer, err := security.NewTokenIssuer(testSecret)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	e := NewRouter(Dependencies{
		Accounts: accounts,
		Tokens:   issuer,
		Logger:   zerolog.Nop(),
		Registry: prometheus.NewRegistry(),
	})
	return &testServer{handler: e, issuer: issuer}
}

func (s *testServer) token(t *testing.T, role string) string {
	t.Helper()
	tok, err := s.issuer.Issue(&domain.Account{ID: "acc-1", Email: "a@example.com", Role: role})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok.Token
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestRouter_ErrorEnvelope(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", &domain.ValidationError{Violations: []domain.FieldViolation{
			{Field: "email", Rule: "email", Message: "email must be a valid email address"},
			{Field: "password", Rule: "password_length", Message: "password must be at least 8 characters"},
		}}, http.StatusBadRequest, "email must be a valid email address"},
		{"email taken", domain.ErrEmailTaken, http.StatusConflict, "email is already taken"},
		{"username taken", domain.ErrUsernameTaken, http.StatusConflict, "username is already taken"},
		{"internal", domain.Internal("signup: insert", errors.New("socket closed")), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeAccounts{err: tc.err})
			rec := srv.do(http.MethodPost, "/users/signup", `{}`, "")

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			resp := decodeError(t, rec)
			if resp.Status != "FAILED" || resp.Error != tc.msg {
				t.Fatalf("unexpected envelope: %+v", resp)
			}
			if strings.Contains(rec.Body.String(), "socket closed") {
				t.Fatalf("internal cause leaked: %s", rec.Body.String())
			}
		})
	}
}

func TestRouter_ValidationDetails(t *testing.T) {
	srv := newTestServer(t, &fakeAccounts{err: &domain.ValidationError{Violations: []domain.FieldViolation{
		{Field: "first_name", Rule: "required", Message: "first_name is required"},
		{Field: "role", Rule: "role", Message: "role must be one of: seller admin"},
	}}})

	resp := decodeError(t, srv.do(http.MethodPost, "/users/signup", `{}`, ""))
	if len(resp.Details) != 2 || resp.Details[0].Field != "first_name" {
		t.Fatalf("unexpected details: %+v", resp.Details)
	}
}

func TestRouter_SigninFailuresAreIdentical(t *testing.T) {
	srv := newTestServer(t, &fakeAccounts{err: domain.ErrInvalidCredentials})

	a := srv.do(http.MethodPost, "/users/signin", `{"email":"nobody@example.com","password":"password1"}`, "")
	b := srv.do(http.MethodPost, "/users/signin", `{"email":"ana@example.com","password":"wrong-pass"}`, "")

	if a.Code != http.StatusUnauthorized || b.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401s, got %d and %d", a.Code, b.Code)
	}
	if a.Body.String() != b.Body.String() {
		t.Fatalf("bodies differ: %q vs %q", a.Body.String(), b.Body.String())
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, &fakeAccounts{})
	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/users"},
		{http.MethodGet, "/users/search?name=a"},
		{http.MethodGet, "/users/acc-2"},
		{http.MethodPut, "/users/acc-2"},
		{http.MethodDelete, "/users/acc-2"},
		{http.MethodPost, "/users/signout"},
	} {
		rec := srv.do(r.method, r.path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", r.method, r.path, rec.Code)
		}
		if decodeError(t, rec).Status != "FAILED" {
			t.Fatalf("%s %s: expected FAILED envelope", r.method, r.path)
		}
	}
}

func TestRouter_GetByIDRequiresPrivilegedRole(t *testing.T) {
	fake := &fakeAccounts{account: &domain.Account{ID: "acc-2"}}
	srv := newTestServer(t, fake)

	rec := srv.do(http.MethodGet, "/users/acc-2", "", srv.token(t, domain.RoleSeller))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for seller, got %d", rec.Code)
	}

	rec = srv.do(http.MethodGet, "/users/acc-2", "", srv.token(t, domain.RoleAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
	if fake.gotID != "acc-2" {
		t.Fatalf("expected id acc-2, got %q", fake.gotID)
	}
}

func TestRouter_NotFound(t *testing.T) {
	srv := newTestServer(t, &fakeAccounts{err: domain.ErrAccountNotFound})

	rec := srv.do(http.MethodDelete, "/users/acc-2", "", srv.token(t, domain.RoleAdmin))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if decodeError(t, rec).Error != "account not found" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRouter_OperationalRoutes(t *testing.T) {
	srv := newTestServer(t, &fakeAccounts{})

	if rec := srv.do(http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}
	if rec := srv.do(http.MethodGet, "/health/ready", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", rec.Code)
	}

	srv.do(http.MethodGet, "/health", "", "")
	rec := srv.do(http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Fatalf("expected http metrics in exposition")
	}
}

func TestRouter_RequestIDHeader(t *testing.T) {
	srv := newTestServer(t, &fakeAccounts{})
	rec := srv.do(http.MethodGet, "/health", "", "")
	if len(rec.Header().Get("X-Request-Id")) != 20 {
		t.Fatalf("expected xid request id, got %q", rec.Header().Get("X-Request-Id"))
	}
}

func TestRouter_InputValidationLivesInService(t *testing.T) {
	issuer, err := security.NewTokenIssuer(testSecret)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	e := NewRouter(Dependencies{
		Accounts: &fakeAccounts{},
		Tokens:   issuer,
		Logger:   zerolog.Nop(),
		Registry: prometheus.NewRegistry(),
	})
	if e.Validator != nil {
		t.Fatalf("router must not install an echo validator; the account service validates input")
	}
}
