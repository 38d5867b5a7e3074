package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newsdeskhq/newsdesk-backend/database"
	"github.com/newsdeskhq/newsdesk-backend/models"
	"github.com/newsdeskhq/newsdesk-backend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// POST /publishers (admin)
// Multipart: "name" plus an optional "logo" image stored in GCS.
func CreatePublisher(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.PostForm("name"))
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}

		var logoUrl string
		if fileHeader, err := c.FormFile("logo"); err == nil && fileHeader != nil {
			gcs, bucket, err := utils.NewGCSClient(c)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			defer gcs.Close()

			logoUrl, err = utils.UploadPublisherLogoToGCS(c.Request.Context(), gcs, bucket, utils.GenerateSlug(name), fileHeader)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		publisher := models.Publisher{
			ID:        bson.NewObjectID(),
			Name:      name,
			LogoUrl:   logoUrl,
			CreatedAt: time.Now().UTC(),
		}

		publishersCol := store.Collection(database.PublishersCollection)
		if _, err := publishersCol.InsertOne(c.Request.Context(), publisher); err != nil {
			if utils.IsDuplicateKey(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "publisher already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, publisher)
	}
}

// GET /publishers
func GetPublishers(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		publishersCol := store.Collection(database.PublishersCollection)

		findOpts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
		cursor, err := publishersCol.Find(ctx, bson.M{}, findOpts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer cursor.Close(ctx)

		publishers := make([]models.Publisher, 0)
		if err := cursor.All(ctx, &publishers); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, publishers)
	}
}
