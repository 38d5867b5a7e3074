package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/newsdeskhq/newsdesk-backend/database"
	"github.com/newsdeskhq/newsdesk-backend/dto"
	"github.com/newsdeskhq/newsdesk-backend/models"
	"github.com/newsdeskhq/newsdesk-backend/subscription"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// POST /users/:email
// Upsert-or-fetch: a first contact creates a viewer record; repeat calls
// return the stored document untouched, role and timestamp included,
// after the same lazy expiry check the role read performs.
func SaveUser(manager *subscription.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.ToLower(strings.TrimSpace(c.Param("email")))
		if email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
			return
		}

		var body dto.SaveUserDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := manager.EnsureUser(c.Request.Context(), email, body.Name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

// GET /users (admin)
func GetUsers(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := store.Collection(database.UsersCollection)

		findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := usersCol.Find(ctx, bson.M{}, findOpts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer cursor.Close(ctx)

		users := make([]models.User, 0)
		if err := cursor.All(ctx, &users); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, users)
	}
}

// GET /users/role/:email
// Reports the stored role after the lazy expiry check, so an expired
// premium user reads back as viewer and is demoted in the same request.
func GetUserRole(users *database.UserStore, manager *subscription.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.ToLower(strings.TrimSpace(c.Param("email")))

		user, err := users.FindByEmail(c.Request.Context(), email)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		role, err := manager.Reconcile(c.Request.Context(), user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"role": role})
	}
}

// PATCH /users/role/:email (admin)
func UpdateUserRole(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.ToLower(strings.TrimSpace(c.Param("email")))

		var body dto.UpdateRoleDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		role := models.Role(body.Role)
		if !role.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}

		update := bson.M{"$set": bson.M{"role": role}}
		if role != models.RolePremium {
			// A non-premium role never carries an expiry.
			update["$unset"] = bson.M{"subscriptionExpiry": ""}
		}

		usersCol := store.Collection(database.UsersCollection)
		res, err := usersCol.UpdateOne(c.Request.Context(), bson.M{"email": email}, update)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"email": email, "role": role})
	}
}

// PATCH /users/admin/:id (admin)
func PromoteToAdmin(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		usersCol := store.Collection(database.UsersCollection)
		res, err := usersCol.UpdateByID(c.Request.Context(), userID, bson.M{
			"$set":   bson.M{"role": models.RoleAdmin},
			"$unset": bson.M{"subscriptionExpiry": ""},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"role": models.RoleAdmin})
	}
}
