package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/newsdeskhq/newsdesk-backend/controllers"
	"github.com/newsdeskhq/newsdesk-backend/database"
	"github.com/newsdeskhq/newsdesk-backend/events"
	"github.com/newsdeskhq/newsdesk-backend/middleware"
	"github.com/newsdeskhq/newsdesk-backend/payments"
	"github.com/newsdeskhq/newsdesk-backend/subscription"
	"github.com/newsdeskhq/newsdesk-backend/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	store, err := database.Connect(connectCtx)
	cancel()
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Disconnect(disconnectCtx); err != nil {
			log.Printf("mongo disconnect: %v", err)
		}
	}()

	if err := utils.SeedAdminUser(ctx, store.Collection(database.UsersCollection)); err != nil {
		log.Fatal(err)
	}

	stripeClient, err := payments.NewStripeClient()
	if err != nil {
		log.Fatal(err)
	}

	var bus *events.Bus
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		bus, err = events.Connect(natsURL)
		if err != nil {
			log.Printf("nats connect: %v, view events disabled", err)
		}
	}
	defer bus.Close()

	users := database.NewUserStore(store)
	manager := subscription.NewManager(users, stripeClient, log.Default())

	// Hourly demotion of lapsed premium subscriptions.
	go manager.Run(ctx, utils.SweepInterval())

	r := gin.New()

	origins := os.Getenv("ALLOWED_ORIGINS")
	allowedOrigins := map[string]bool{}
	for _, origin := range strings.Split(origins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}
	log.Printf("Allowed origins: %v", allowedOrigins)
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.PrometheusMiddleware())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/jwt", controllers.IssueToken())
	r.POST("/users/:email", controllers.SaveUser(manager))
	r.GET("/users/role/:email", controllers.GetUserRole(users, manager))

	r.GET("/publishers", controllers.GetPublishers(store))
	r.GET("/articles-req", controllers.GetArticles(store))
	r.GET("/articles-req/:id", controllers.GetArticle(store))
	r.GET("/trending-articles", controllers.GetTrendingArticles(store))
	r.PUT("/articles-req/view/:id", controllers.ViewArticle(store, bus))

	auth := r.Group("/")
	auth.Use(middleware.RequireAuth())
	{
		auth.POST("/articles-req", controllers.CreateArticle(store))
		auth.PUT("/articles-req/update/:id", controllers.UpdateArticle(store))
		auth.DELETE("/delete-article/:id", controllers.DeleteArticle(store))

		auth.POST("/create-payment-intent", controllers.CreatePaymentIntent(stripeClient))
		auth.POST("/subscriptions", controllers.CreateSubscription(manager))

		premium := auth.Group("/")
		premium.Use(middleware.RequirePremium(users, manager))
		{
			premium.GET("/premium-articles", controllers.GetPremiumArticles(store))
		}

		admin := auth.Group("/")
		admin.Use(middleware.RequireAdmin(users))
		{
			admin.GET("/users", controllers.GetUsers(store))
			admin.PATCH("/users/role/:email", controllers.UpdateUserRole(store))
			admin.PATCH("/users/admin/:id", controllers.PromoteToAdmin(store))

			admin.POST("/publishers", controllers.CreatePublisher(store))

			admin.PATCH("/articles-req/approve/:id", controllers.ApproveArticle(store))
			admin.PATCH("/articles-req/reject/:id", controllers.RejectArticle(store))
			admin.PATCH("/articles-req/premium/:id", controllers.MakeArticlePremium(store))
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Printf("listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}
