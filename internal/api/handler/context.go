package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sellerpanel/account-service/internal/api/middleware"
	"github.com/sellerpanel/account-service/internal/core/domain"
)

// ctxRequester builds the explicit requester identity from the claims injected
// by the Auth middleware. Missing claims mean the middleware did not run.
func ctxRequester(c echo.Context) (domain.Requester, error) {
	id, _ := c.Get(middleware.CtxAccountID).(string)
	role, _ := c.Get(middleware.CtxRole).(string)
	if id == "" || role == "" {
		return domain.Requester{}, domain.ErrUnauthenticated
	}
	email, _ := c.Get(middleware.CtxEmail).(string)
	return domain.Requester{ID: id, Email: email, Role: role}, nil
}

func ctxToken(c echo.Context) (id string, expiresAt time.Time) {
	id, _ = c.Get(middleware.CtxTokenID).(string)
	expiresAt, _ = c.Get(middleware.CtxTokenExpires).(time.Time)
	return id, expiresAt
}
