package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"nolife/handlers"
	"nolife/middleware"
)

func SetupRouter(jwtSecret string) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:8080", "http://127.0.0.1:8080", "http://localhost:5500", "http://127.0.0.1:5500"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	admin := middleware.AdminAuth(jwtSecret)

	// Posts
	posts := router.Group("/posts")
	posts.GET("", handlers.GetAllPosts)
	posts.GET("/latest", handlers.GetLatestPosts)
	posts.GET("/search", handlers.SearchPosts)
	posts.GET("/popular-tags", handlers.GetPopularTags)
	posts.GET("/category/:category", handlers.GetPostsByCategory)
	posts.GET("/tag/:tag", handlers.GetPostsByTag)
	posts.GET("/:id", handlers.GetPostByID)
	posts.POST("", admin, handlers.CreatePost)
	posts.PATCH("/:id", admin, handlers.UpdatePost)
	posts.DELETE("/:id", admin, handlers.DeletePost)

	// Quotes
	quotes := router.Group("/quotes")
	quotes.GET("/daily", handlers.GetDailyQuote)
	quotes.GET("/status", handlers.QuoteStatus)
	quotes.POST("/refresh", admin, handlers.RefreshQuote)

	// Newsletter
	nl := router.Group("/api/newsletter")
	nl.POST("/subscribe", middleware.RateLimit(10, time.Minute), handlers.Subscribe)
	nl.POST("/campaign", admin, handlers.SendCampaign)
	nl.GET("/stats", admin, handlers.NewsletterStats)

	// Admin + push
	router.POST("/api/admin/login", handlers.AdminLogin)
	router.GET("/api/vapid-public-key", handlers.GetVapidPublicKey)
	router.POST("/api/push/subscribe", handlers.SubscribePush)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") ||
			strings.HasPrefix(c.Request.URL.Path, "/posts") ||
			strings.HasPrefix(c.Request.URL.Path, "/quotes") {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Endpoint not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.Next()
	})

	return router
}
