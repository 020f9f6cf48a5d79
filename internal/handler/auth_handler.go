package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chenglin1712/deming-rollcall/internal/models"
	"github.com/chenglin1712/deming-rollcall/internal/service"
	"github.com/chenglin1712/deming-rollcall/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error)
	CheckLogin(ctx context.Context, token string) models.LoginStatus
	Logout(ctx context.Context, token string, meta service.RequestMeta) error
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	cookie  CookieConfig
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{service: svc, cookie: cookie}
}

// Login godoc
// @Summary Log in
// @Description Authenticate with username and password; the session is kept in an HttpOnly cookie
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Result
// @Failure 400 {object} response.Result
// @Failure 401 {object} response.Result
// @Router /api/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "登入資料格式錯誤"))
		return
	}
	meta := requestMeta(c)
	req.IP = meta.IP
	req.UserAgent = meta.UserAgent

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setCookie(c, res.Token, res.ExpiresAt)
	response.OK(c, response.Result{Message: "登入成功", User: res.User})
}

// Logout godoc
// @Summary Log out
// @Description Destroy the current session and expire the cookie
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Result
// @Router /api/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(h.cookie.Name)
	if err := h.service.Logout(c.Request.Context(), token, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	h.setCookie(c, "", time.Unix(0, 0))
	response.OK(c, response.Result{Message: "已登出"})
}

// CheckLogin godoc
// @Summary Session status
// @Description Report whether the caller holds a live session
// @Tags Authentication
// @Produce json
// @Success 200 {object} models.LoginStatus
// @Router /api/check-login [get]
func (h *AuthHandler) CheckLogin(c *gin.Context) {
	token, _ := c.Cookie(h.cookie.Name)
	response.Raw(c, http.StatusOK, h.service.CheckLogin(c.Request.Context(), token))
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	}
	http.SetCookie(c.Writer, cookie)
}
