package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

const (
	ctxActor = "actor"
	ctxScope = "scope"
)

// ScopeResolver turns an actor into its visible scope.
type ScopeResolver interface {
	Resolve(ctx context.Context, actor *models.Actor) (models.Scope, error)
}

// JWTMiddleware authenticates bearer tokens and attaches the actor and its
// scope to the request. Scope is resolved on every request so deactivated
// sub-locations drop out immediately.
type JWTMiddleware struct {
	jwt         *utils.JWTManager
	scopes      ScopeResolver
	rateLimiter *InvalidAuthRateLimiter
}

// NewJWTMiddleware creates a new JWTMiddleware.
func NewJWTMiddleware(jwt *utils.JWTManager, scopes ScopeResolver, rateLimiter *InvalidAuthRateLimiter) *JWTMiddleware {
	return &JWTMiddleware{jwt: jwt, scopes: scopes, rateLimiter: rateLimiter}
}

// Handle requires an Authorization: Bearer header.
func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return m.handle(false)
}

// HandleStream also accepts the token as a ?token= query parameter, since
// browser EventSource clients cannot set headers.
func (m *JWTMiddleware) HandleStream() gin.HandlerFunc {
	return m.handle(true)
}

func (m *JWTMiddleware) handle(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && allowQuery {
			token = c.Query("token")
		}
		if token == "" {
			m.reject(c, "UNAUTHORIZED", "Missing or invalid authorization header")
			return
		}

		claims, err := m.jwt.ValidateJWT(token)
		if err != nil {
			if errors.Is(err, utils.ErrExpiredToken) {
				m.reject(c, "TOKEN_EXPIRED", "Token has expired")
				return
			}
			m.reject(c, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		actor := &models.Actor{
			UserID:        claims.UserID,
			Email:         claims.Email,
			Role:          models.Role(claims.Role),
			StoreID:       claims.StoreID,
			SubLocationID: claims.SubLocationID,
		}
		scope, err := m.scopes.Resolve(c.Request.Context(), actor)
		if err != nil {
			log.Error().Err(err).Int64("user_id", actor.UserID).Msg("Failed to resolve scope")
			utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
			c.Abort()
			return
		}

		c.Set(ctxActor, actor)
		c.Set(ctxScope, scope)
		c.Set("user_id", actor.UserID)
		c.Next()
	}
}

func (m *JWTMiddleware) reject(c *gin.Context, code, message string) {
	if m.rateLimiter != nil && !m.rateLimiter.Allow(c.ClientIP()) {
		utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
		c.Abort()
		return
	}
	utils.Error(c, 401, code, message)
	c.Abort()
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAdmin rejects non-admin actors. Must run after JWTMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetActor(c).IsAdmin() {
			utils.Error(c, 403, "FORBIDDEN", "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetActor returns the authenticated actor, or nil.
func GetActor(c *gin.Context) *models.Actor {
	v, ok := c.Get(ctxActor)
	if !ok {
		return nil
	}
	actor, _ := v.(*models.Actor)
	return actor
}

// GetScope returns the actor's visible scope. Unauthenticated requests get
// the empty scope.
func GetScope(c *gin.Context) models.Scope {
	v, ok := c.Get(ctxScope)
	if !ok {
		return models.Scope{}
	}
	scope, _ := v.(models.Scope)
	return scope
}
