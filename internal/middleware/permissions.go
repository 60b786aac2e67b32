// internal/middleware/permissions.go

package middleware

import (
	"net/http"

	"freestate-servicedelivery/internal/models"

	"github.com/gin-gonic/gin"
)

// RequirePermission creates middleware that checks for one concrete
// permission. Used to protect endpoints at the backend level.
func RequirePermission(permission models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, ok := roleFromContext(c)
		if !ok {
			return
		}

		if !userRole.HasPermission(permission) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":     "Insufficient permissions",
				"required":  permission,
				"user_role": userRole.String(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAnyRole creates middleware that allows a set of roles.
func RequireAnyRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, ok := roleFromContext(c)
		if !ok {
			return
		}

		hasRole := false
		for _, allowedRole := range roles {
			if userRole == allowedRole {
				hasRole = true
				break
			}
		}

		if !hasRole {
			c.JSON(http.StatusForbidden, gin.H{
				"error":          "Insufficient permissions",
				"required_roles": roles,
				"user_role":      userRole.String(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireStaff restricts an endpoint to municipality-side roles.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, ok := roleFromContext(c)
		if !ok {
			return
		}

		if !userRole.IsStaff() {
			c.JSON(http.StatusForbidden, gin.H{
				"error":     "Municipal staff access required",
				"user_role": userRole.String(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// roleFromContext extracts and validates the role set by
// AuthMiddleware; it writes the error response itself on failure.
func roleFromContext(c *gin.Context) (models.Role, bool) {
	roleInterface, exists := c.Get("role")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		c.Abort()
		return "", false
	}

	roleStr, ok := roleInterface.(string)
	if !ok || roleStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid user role",
		})
		c.Abort()
		return "", false
	}

	userRole, valid := models.RoleFromString(roleStr)
	if !valid {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Invalid role",
		})
		c.Abort()
		return "", false
	}

	return userRole, true
}
