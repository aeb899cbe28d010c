// middleware/auth.go
package middleware

import (
	"strings"

	"medislot/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by JWTAuthMiddleware.
const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	// Browsers cannot set headers on a websocket upgrade.
	if c.IsWebsocket() {
		return c.Query("token")
	}
	return ""
}

// JWTAuthMiddleware validates the bearer token and, when roles are given, requires
// the token's role to be one of them.
func JWTAuthMiddleware(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			utils.JSONError(c, utils.KindUnauthorized, "Missing or invalid Authorization header", "")
			return
		}

		userID, role, err := utils.ExtractIdentity(tokenString)
		if err != nil {
			utils.JSONError(c, utils.KindUnauthorized, "Invalid token", err.Error())
			return
		}

		if len(roles) > 0 && !contains(roles, role) {
			utils.JSONError(c, utils.KindForbidden, "This action requires the "+strings.Join(roles, " or ")+" role", "")
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextRole, role)
		c.Next()
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
