package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/policywatch/policywatch-backend/internal/common"
	"github.com/policywatch/policywatch-backend/pkg/jwt"
)

// JWTAuth JWT authentication middleware
func JWTAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.ErrorResponse(c, 401, "Missing authorization header", nil)
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			common.ErrorResponse(c, 401, "Invalid authorization header format", nil)
			c.Abort()
			return
		}

		claims, err := jwtManager.VerifyToken(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.ErrorResponse(c, 401, "Token expired", err)
			} else {
				common.ErrorResponse(c, 401, "Invalid token", err)
			}
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get("userID")
	if !exists {
		return ""
	}
	if str, ok := userID.(string); ok {
		return str
	}
	return ""
}

// RequireRole aborts unless the authenticated caller has the given role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get("role")
		if !exists || v != role {
			common.ErrorResponse(c, 403, "Insufficient permissions", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
