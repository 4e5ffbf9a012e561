package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/service"
	"pfe-hub/backend/pkg/jwt"
	"pfe-hub/backend/pkg/response"
)

const refreshCookieName = "refresh_token"

// AuthCookieOptions refresh token cookie 设置
type AuthCookieOptions struct {
	Secure      bool
	RememberTTL time.Duration // remember_me 时的 cookie 有效期；否则为会话 cookie
}

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
	cookie  AuthCookieOptions
}

// NewAuthHandler 创建 AuthHandler；opts 为 nil 时使用默认 cookie 设置
func NewAuthHandler(authSvc service.AuthService, opts *AuthCookieOptions) *AuthHandler {
	h := &AuthHandler{authSvc: authSvc}
	if opts != nil {
		h.cookie = *opts
	}
	return h
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBinding(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	maxAge := 0
	if req.RememberMe {
		maxAge = int(h.cookie.RememberTTL.Seconds())
	}
	h.setRefreshCookie(c, result.RefreshToken, maxAge)
	response.OK(c, result)
}

// RefreshToken 刷新 Token（请求体优先，其次 cookie）
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	_ = c.ShouldBindJSON(&req)
	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(refreshCookieName)
	}
	if token == "" {
		response.BadRequest(c, 10001, "refresh_token 不能为空")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), token)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken, 0)
	response.OK(c, result)
}

// Logout 登出：吊销当前 access token 与 refresh token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	_ = c.ShouldBindJSON(&req)
	refresh := req.RefreshToken
	if refresh == "" {
		refresh, _ = c.Cookie(refreshCookieName)
	}

	if err := h.authSvc.Logout(c.Request.Context(), c.GetString("access_token"), refresh); err != nil {
		response.InternalError(c)
		return
	}

	h.setRefreshCookie(c, "", -1)
	response.OK(c, nil)
}

// GetCurrentUser 当前登录账号
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, role, ok := MustGetCaller(c)
	if !ok {
		return
	}

	me, err := h.authSvc.Me(c.Request.Context(), userID, role)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, me)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, value, maxAge, "/api/v1/auth", "", h.cookie.Secure, true)
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, 11001, "邮箱或密码错误")
	case errors.Is(err, service.ErrTokenRevoked),
		errors.Is(err, jwt.ErrTokenInvalid),
		errors.Is(err, jwt.ErrTokenExpired):
		response.Unauthorized(c, 11002, "Token 无效或已过期")
	case errors.Is(err, service.ErrAccountNotFound):
		response.Unauthorized(c, 11003, "账号不存在")
	default:
		response.InternalError(c)
	}
}
