package controllers

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newsdeskhq/newsdesk-backend/database"
	"github.com/newsdeskhq/newsdesk-backend/dto"
	"github.com/newsdeskhq/newsdesk-backend/events"
	"github.com/newsdeskhq/newsdesk-backend/metrics"
	"github.com/newsdeskhq/newsdesk-backend/models"
	"github.com/newsdeskhq/newsdesk-backend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const trendingLimit = 6

// buildArticleSearchFilter matches article titles case-insensitively
// against the user-supplied term. The term is escaped so it is always a
// literal, never a regex.
func buildArticleSearchFilter(searchTerm string) bson.M {
	filter := bson.M{}
	if searchTerm != "" {
		filter["title"] = bson.M{
			"$regex":   regexp.QuoteMeta(searchTerm),
			"$options": "i",
		}
	}
	return filter
}

// POST /articles-req (auth)
func CreateArticle(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreateArticleDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		article := models.Article{
			ID:          bson.NewObjectID(),
			Title:       body.Title,
			Slug:        utils.GenerateSlug(body.Title),
			Description: body.Description,
			Content:     body.Content,
			ImageUrl:    body.ImageUrl,
			Publisher:   body.Publisher,
			Tags:        body.Tags,
			AuthorEmail: c.GetString("email"),
			Status:      models.ArticleStatusPending,
			CreatedAt:   time.Now().UTC(),
		}

		articlesCol := store.Collection(database.ArticlesCollection)
		if _, err := articlesCol.InsertOne(c.Request.Context(), article); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, article)
	}
}

// GET /articles-req?searchTerm=
func GetArticles(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		articlesCol := store.Collection(database.ArticlesCollection)

		filter := buildArticleSearchFilter(strings.TrimSpace(c.Query("searchTerm")))
		findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

		cursor, err := articlesCol.Find(ctx, filter, findOpts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer cursor.Close(ctx)

		articles := make([]models.Article, 0)
		if err := cursor.All(ctx, &articles); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, articles)
	}
}

// GET /articles-req/:id
func GetArticle(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		articleID, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
			return
		}

		articlesCol := store.Collection(database.ArticlesCollection)

		var article models.Article
		if err := articlesCol.FindOne(c.Request.Context(), bson.M{"_id": articleID}).Decode(&article); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
			return
		}

		c.JSON(http.StatusOK, article)
	}
}

// PUT /articles-req/update/:id (auth)
// Authors may only touch their own articles.
func UpdateArticle(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		articleID, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
			return
		}

		var body dto.UpdateArticleDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		set := bson.M{}
		if body.Title != nil {
			set["title"] = *body.Title
			set["slug"] = utils.GenerateSlug(*body.Title)
		}
		if body.Description != nil {
			set["description"] = *body.Description
		}
		if body.Content != nil {
			set["content"] = *body.Content
		}
		if body.ImageUrl != nil {
			set["imageUrl"] = *body.ImageUrl
		}
		if body.Publisher != nil {
			set["publisher"] = *body.Publisher
		}
		if body.Tags != nil {
			set["tags"] = *body.Tags
		}
		if len(set) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
			return
		}

		articlesCol := store.Collection(database.ArticlesCollection)
		res, err := articlesCol.UpdateOne(c.Request.Context(),
			bson.M{"_id": articleID, "authorEmail": c.GetString("email")},
			bson.M{"$set": set},
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// DELETE /delete-article/:id (auth)
func DeleteArticle(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		articleID, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
			return
		}

		articlesCol := store.Collection(database.ArticlesCollection)
		res, err := articlesCol.DeleteOne(c.Request.Context(),
			bson.M{"_id": articleID, "authorEmail": c.GetString("email")},
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if res.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// PATCH /articles-req/approve/:id (admin)
func ApproveArticle(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		setArticleStatus(c, store, bson.M{
			"$set":   bson.M{"status": models.ArticleStatusApproved},
			"$unset": bson.M{"rejectReason": ""},
		})
	}
}

// PATCH /articles-req/reject/:id (admin)
func RejectArticle(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RejectArticleDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		setArticleStatus(c, store, bson.M{
			"$set": bson.M{
				"status":       models.ArticleStatusRejected,
				"rejectReason": body.Reason,
			},
		})
	}
}

// PATCH /articles-req/premium/:id (admin)
func MakeArticlePremium(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		setArticleStatus(c, store, bson.M{
			"$set": bson.M{"isPremium": true},
		})
	}
}

func setArticleStatus(c *gin.Context, store *database.Store, update bson.M) {
	articleID, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	articlesCol := store.Collection(database.ArticlesCollection)
	res, err := articlesCol.UpdateByID(c.Request.Context(), articleID, update)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// PUT /articles-req/view/:id
func ViewArticle(store *database.Store, bus *events.Bus) gin.HandlerFunc {
	return func(c *gin.Context) {
		articleID, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
			return
		}

		articlesCol := store.Collection(database.ArticlesCollection)
		res, err := articlesCol.UpdateByID(c.Request.Context(), articleID,
			bson.M{"$inc": bson.M{"viewCount": 1}},
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
			return
		}

		metrics.ArticleViews.Inc()
		bus.PublishArticleViewed(articleID.Hex())

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// GET /trending-articles
func GetTrendingArticles(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		articlesCol := store.Collection(database.ArticlesCollection)

		findOpts := options.Find().
			SetSort(bson.D{{Key: "viewCount", Value: -1}}).
			SetLimit(trendingLimit)

		cursor, err := articlesCol.Find(ctx, bson.M{"status": models.ArticleStatusApproved}, findOpts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer cursor.Close(ctx)

		articles := make([]models.Article, 0)
		if err := cursor.All(ctx, &articles); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, articles)
	}
}

// GET /premium-articles (premium)
func GetPremiumArticles(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		articlesCol := store.Collection(database.ArticlesCollection)

		findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := articlesCol.Find(ctx, bson.M{
			"status":    models.ArticleStatusApproved,
			"isPremium": true,
		}, findOpts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer cursor.Close(ctx)

		articles := make([]models.Article, 0)
		if err := cursor.All(ctx, &articles); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, articles)
	}
}
