package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sellerpanel/account-service/internal/core/domain"
	"github.com/sellerpanel/account-service/internal/infrastructure/security"
)

// TokenCookie is the HTTP-only cookie that carries the token for browser
// clients.
const TokenCookie = "token"

// Context keys set by Auth.
const (
	CtxAccountID    = "account_id"
	CtxEmail        = "email"
	CtxRole         = "role"
	CtxTokenID      = "token_id"
	CtxTokenExpires = "token_expires"
)

// TokenParser verifies a raw token and returns its claims.
type TokenParser interface {
	Parse(token string) (*security.Claims, error)
}

// RevocationChecker reports whether a token id was signed out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Auth validates the bearer token (header first, then the token cookie),
// rejects revoked tokens and injects the claims into the context. A nil
// revoker disables the revocation check.
func Auth(parser TokenParser, revoker RevocationChecker, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := extractToken(c)
			if !ok {
				return domain.ErrUnauthenticated
			}

			claims, err := parser.Parse(raw)
			if err != nil {
				return domain.ErrUnauthenticated
			}

			if revoker != nil && claims.ID != "" {
				revoked, err := revoker.IsRevoked(c.Request().Context(), claims.ID)
				if err != nil {
					log.Error().Err(err).Str("token_id", claims.ID).Msg("revocation check failed")
					return domain.ErrUnauthenticated
				}
				if revoked {
					return domain.ErrUnauthenticated
				}
			}

			c.Set(CtxAccountID, claims.AccountID)
			c.Set(CtxEmail, claims.Email)
			c.Set(CtxRole, claims.Role)
			c.Set(CtxTokenID, claims.ID)
			if claims.ExpiresAt != nil {
				c.Set(CtxTokenExpires, claims.ExpiresAt.Time)
			}

			return next(c)
		}
	}
}

func extractToken(c echo.Context) (string, bool) {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}
