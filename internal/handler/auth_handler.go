package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/halal_inventory_api/internal/middleware"
	"github.com/GTDGit/halal_inventory_api/internal/service"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

type AuthHandler struct {
	authService *service.AuthService
	rateLimiter *middleware.InvalidAuthRateLimiter
}

func NewAuthHandler(authService *service.AuthService, rateLimiter *middleware.InvalidAuthRateLimiter) *AuthHandler {
	return &AuthHandler{authService: authService, rateLimiter: rateLimiter}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to register")
		return
	}

	utils.Success(c, 201, "Registration successful", result)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if h.rateLimiter != nil && !h.rateLimiter.Allow(c.ClientIP()) {
			utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many failed login attempts")
			return
		}
		respondError(c, err, "Failed to login")
		return
	}

	utils.Success(c, 200, "Login successful", result)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err, "Failed to load account")
		return
	}
	utils.Success(c, 200, "Account retrieved", user)
}

// CreateManager handles POST /api/v1/auth/managers
func (h *AuthHandler) CreateManager(c *gin.Context) {
	var req service.CreateManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}

	user, err := h.authService.CreateManager(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err, "Failed to create manager")
		return
	}
	utils.Success(c, 201, "Manager created", user)
}
