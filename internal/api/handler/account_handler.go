package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sellerpanel/account-service/internal/api/middleware"
	"github.com/sellerpanel/account-service/internal/core/ports"
)

// AccountHandler handles HTTP requests for account operations. Errors are
// returned to the central error handler, never rendered here.
type AccountHandler struct {
	service      ports.AccountService
	cookieSecure bool
}

func NewAccountHandler(service ports.AccountService, cookieSecure bool) *AccountHandler {
	return &AccountHandler{service: service, cookieSecure: cookieSecure}
}

// Signup creates a new account.
//
// @Summary      Create an account
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      ports.SignupInput  true  "Account details"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  api.errorResponse
// @Failure      409   {object}  api.errorResponse
// @Failure      500   {object}  api.errorResponse
// @Router       /users/signup [post]
func (h *AccountHandler) Signup(c echo.Context) error {
	var req ports.SignupInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	acc, err := h.service.Signup(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountResponse{Status: statusSuccess, Message: "Signup successful", Data: acc})
}

// Signin verifies credentials and returns a token, also set as an HTTP-only
// cookie.
//
// @Summary      Sign in
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      signinRequest  true  "Credentials"
// @Success      200   {object}  signinResponse
// @Failure      400   {object}  api.errorResponse
// @Failure      401   {object}  api.errorResponse
// @Router       /users/signin [post]
func (h *AccountHandler) Signin(c echo.Context) error {
	var req signinRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	res, err := h.service.Signin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	c.SetCookie(h.tokenCookie(res.Token, res.ExpiresAt))
	return c.JSON(http.StatusOK, signinResponse{
		Status:  statusSuccess,
		Message: "Signin successful",
		Data:    res.Account,
		Token:   res.Token,
	})
}

// Signout revokes the current token and clears the cookie.
//
// @Summary      Sign out
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  api.errorResponse
// @Router       /users/signout [post]
func (h *AccountHandler) Signout(c echo.Context) error {
	tokenID, expiresAt := ctxToken(c)
	if err := h.service.Signout(c.Request().Context(), tokenID, expiresAt); err != nil {
		return err
	}

	c.SetCookie(h.tokenCookie("", time.Unix(0, 0)))
	return c.JSON(http.StatusOK, messageResponse{Status: statusSuccess, Message: "Signout successful"})
}

// List returns one page of accounts, newest first.
//
// @Summary      List accounts
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "Page number (1-based)"
// @Success      200   {object}  pageResponse
// @Failure      400   {object}  api.errorResponse
// @Failure      401   {object}  api.errorResponse
// @Router       /users [get]
func (h *AccountHandler) List(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}

	var q listQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}

	page, err := h.service.List(c.Request().Context(), requester, q.Page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPageResponse(page))
}

// Search matches accounts by first name, last name or username.
//
// @Summary      Search accounts
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        name   query     string  false  "Case-insensitive substring"
// @Param        limit  query     int     false  "Page size (default 10, max 100)"
// @Param        page   query     int     false  "Page number (1-based)"
// @Success      200    {object}  pageResponse
// @Failure      400    {object}  api.errorResponse
// @Failure      401    {object}  api.errorResponse
// @Router       /users/search [get]
func (h *AccountHandler) Search(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}

	var q searchQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}

	page, err := h.service.Search(c.Request().Context(), requester, ports.SearchInput{
		Query: q.Name,
		Page:  q.Page,
		Limit: q.Limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPageResponse(page))
}

// Get returns a single account.
//
// @Summary      Get an account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account id"
// @Success      200  {object}  domain.Account
// @Failure      401  {object}  api.errorResponse
// @Failure      403  {object}  api.errorResponse
// @Failure      404  {object}  api.errorResponse
// @Router       /users/{id} [get]
func (h *AccountHandler) Get(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}

	acc, err := h.service.GetByID(c.Request().Context(), requester, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, acc)
}

// Update merges the supplied fields into an account.
//
// @Summary      Update an account
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Account id"
// @Param        body  body      ports.UpdateInput  true  "Fields to change"
// @Success      200   {object}  domain.Account
// @Failure      400   {object}  api.errorResponse
// @Failure      403   {object}  api.errorResponse
// @Failure      404   {object}  api.errorResponse
// @Failure      409   {object}  api.errorResponse
// @Router       /users/{id} [put]
func (h *AccountHandler) Update(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}

	var req ports.UpdateInput
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	acc, err := h.service.Update(c.Request().Context(), requester, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, acc)
}

// Delete removes an account.
//
// @Summary      Delete an account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  api.errorResponse
// @Failure      404  {object}  api.errorResponse
// @Router       /users/{id} [delete]
func (h *AccountHandler) Delete(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), requester, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Status: statusSuccess, Message: "User deleted successfully"})
}

func (h *AccountHandler) tokenCookie(value string, expires time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	} else {
		cookie.MaxAge = int(time.Until(expires).Seconds())
	}
	return cookie
}
