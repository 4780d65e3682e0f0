package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/agrodesk/internal/middleware"
	"github.com/iliyamo/agrodesk/internal/model"
	"github.com/iliyamo/agrodesk/internal/service"
	"github.com/iliyamo/agrodesk/internal/utils"
)

// AuthHandler serves the /users endpoints.
type AuthHandler struct {
	Svc    *service.AuthService
	Secret string
}

func NewAuthHandler(svc *service.AuthService, secret string) *AuthHandler {
	return &AuthHandler{Svc: svc, Secret: secret}
}

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Area     string `json:"area"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// SignupUser: POST /users/signup/user
func (h *AuthHandler) SignupUser(c echo.Context) error {
	return h.signup(c, h.Svc.SignupUser)
}

// SignupAdmin: POST /users/signup/admin
func (h *AuthHandler) SignupAdmin(c echo.Context) error {
	return h.signup(c, h.Svc.SignupAdmin)
}

func (h *AuthHandler) signup(c echo.Context, create func(context.Context, service.SignupInput) (model.Identity, error)) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := create(ctx, service.SignupInput{Name: req.Name, Email: req.Email, Password: req.Password, Area: req.Area})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toUser(u))
}

// Login: POST /users/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	sess, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSession(sess))
}

// Refresh: POST /users/refresh. Rotates the refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	sess, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSession(sess))
}

// Logout: POST /users/logout. A refresh_token in the body revokes that
// session; otherwise a valid bearer token revokes every session of its
// user. The route is not behind JWTAuth so either form works alone.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req) // an empty or invalid body just means "no refresh token"
	refresh := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := requestCtx(c)
	defer cancel()

	if refresh != "" {
		if err := h.Svc.Logout(ctx, refresh); err != nil {
			return respondError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	raw, ok := middleware.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "provide Authorization header or refresh_token")
	}
	claims, err := utils.ParseAccessToken(h.Secret, raw)
	if err != nil {
		return errorJSON(c, http.StatusUnauthorized, "invalid token")
	}
	uid, _ := claims.UserID()
	if err := h.Svc.LogoutAll(ctx, uid); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Profile: GET /users/profile
func (h *AuthHandler) Profile(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	p, err := h.Svc.Profile(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, profileResp{
		userResp: toUser(p.Identity),
		Reports:  toReports(p.Reports),
		Crops:    toCrops(p.Crops),
	})
}
