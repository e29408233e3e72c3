package middleware

import (
	"net/http"

	"github.com/bu-wallet-ledger/internal/domain/shared"
	"github.com/bu-wallet-ledger/internal/identity"
	"github.com/gin-gonic/gin"
)

const (
	UserIDHeader   = "X-User-ID"
	UserRoleHeader = "X-User-Role"
	UserKey        = "user"
)

// Identity trusts the X-User-ID and X-User-Role headers set by the
// authenticating proxy in front of the service. Requests without a user id
// are rejected.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(UserIDHeader)
		if userID == "" {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+UserIDHeader+" header")
			return
		}

		role := shared.Role(c.GetHeader(UserRoleHeader))
		if role != shared.RoleAdmin {
			role = shared.RoleUser
		}

		c.Set(UserKey, identity.User{ID: userID, Role: role})
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUser(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+UserIDHeader+" header")
			return
		}
		if !user.IsAdmin() {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "admin role required")
			return
		}
		c.Next()
	}
}

func GetUser(c *gin.Context) (identity.User, bool) {
	value, exists := c.Get(UserKey)
	if !exists {
		return identity.User{}, false
	}
	user, ok := value.(identity.User)
	return user, ok
}

func abortWithError(c *gin.Context, status int, code, message string) {
	response := gin.H{"error": gin.H{"code": code, "message": message}}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		response["correlation_id"] = correlationID
	}
	c.AbortWithStatusJSON(status, response)
}
