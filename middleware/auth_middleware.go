package middleware

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/newsdeskhq/newsdesk-backend/models"
	"github.com/newsdeskhq/newsdesk-backend/subscription"
	"github.com/newsdeskhq/newsdesk-backend/utils"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// UserFinder loads the stored user behind a validated credential.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// RequireAuth validates the bearer token and puts the caller's email in
// the request context. Roles are never trusted from the token; the
// role guards below always read the stored user.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims, err := utils.ValidateToken(tokenStr, os.Getenv("JWT_SECRET"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set("email", claims.Email)
		c.Next()
	}
}

func RequireAdmin(users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := loadUser(c, users)
		if !ok {
			return
		}
		if user.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// RequirePremium admits admins and premium users whose window has not
// lapsed. An expired premium row is demoted here and now, the same
// conditional write the sweep would issue, before the request is denied.
func RequirePremium(users UserFinder, manager *subscription.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := loadUser(c, users)
		if !ok {
			return
		}
		if user.Role == models.RoleAdmin {
			c.Next()
			return
		}

		role, err := manager.Reconcile(c.Request.Context(), user)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if role != models.RolePremium {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "premium subscription required"})
			return
		}
		c.Next()
	}
}

// loadUser resolves the context email to a stored user. An unknown user
// is a 403; a store failure is a 500, not an authorization verdict.
func loadUser(c *gin.Context, users UserFinder) (*models.User, bool) {
	email := c.GetString("email")
	user, err := users.FindByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	return user, true
}
