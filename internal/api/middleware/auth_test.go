package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sellerpanel/account-service/internal/core/domain"
	"github.com/sellerpanel/account-service/internal/infrastructure/security"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type stubRevoker struct {
	revoked map[string]bool
	err     error
}

func (s *stubRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	return s.revoked[id], s.err
}

func issue(t *testing.T) (*security.TokenIssuer, string, string) {
	t.Helper()
	issuer, err := security.NewTokenIssuer(testSecret)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	tok, err := issuer.Issue(&domain.Account{ID: "acc-1", Email: "alice@example.com", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return issuer, tok.Token, tok.ID
}

func serve(mw echo.MiddlewareFunc, req *http.Request, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, mw(next)(c)
}

func TestAuthMiddleware_ValidBearerToken(t *testing.T) {
	issuer, token, jti := issue(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	called := false
	rec, err := serve(Auth(issuer, nil, zerolog.Nop()), req, func(c echo.Context) error {
		called = true
		if c.Get(CtxAccountID) != "acc-1" {
			t.Fatalf("account_id not set")
		}
		if c.Get(CtxEmail) != "alice@example.com" {
			t.Fatalf("email not set")
		}
		if c.Get(CtxRole) != domain.RoleAdmin {
			t.Fatalf("role not set")
		}
		if c.Get(CtxTokenID) != jti {
			t.Fatalf("token_id not set")
		}
		if exp, ok := c.Get(CtxTokenExpires).(time.Time); !ok || exp.IsZero() {
			t.Fatalf("token_expires not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_CookieToken(t *testing.T) {
	issuer, token, _ := issue(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})

	called := false
	_, err := serve(Auth(issuer, nil, zerolog.Nop()), req, func(c echo.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("expected cookie token to authenticate, err=%v", err)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	issuer, token, _ := issue(t)

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": "acc-1", "role": "admin", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("another-secret-another-secret-xx"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cases := map[string]string{
		"missing header":    "",
		"wrong scheme":      "Token " + token,
		"empty bearer":      "Bearer ",
		"garbage":           "Bearer not-a-token",
		"foreign signature": "Bearer " + other,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			_, err := serve(Auth(issuer, nil, zerolog.Nop()), req, func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})
			if !errors.Is(err, domain.ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	issuer, token, jti := issue(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	revoker := &stubRevoker{revoked: map[string]bool{jti: true}}
	_, err := serve(Auth(issuer, revoker, zerolog.Nop()), req, func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthMiddleware_RevocationStoreDownFailsClosed(t *testing.T) {
	issuer, token, _ := issue(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	revoker := &stubRevoker{err: errors.New("redis down")}
	_, err := serve(Auth(issuer, revoker, zerolog.Nop()), req, func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
