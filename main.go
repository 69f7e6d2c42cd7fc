package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"nolife/config"
	"nolife/database"
	"nolife/handlers"
	"nolife/media"
	"nolife/newsletter"
	"nolife/quotes"
	"nolife/routes"
)

func main() {
	log.Println("🚀 Starting No Life Anime backend...")

	cfg := config.Load()
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			log.Println("❌ Config:", e)
		}
		log.Fatal("❌ Configuration is invalid")
	}

	// ===== CONNECT TO MONGODB WITH RETRY =====
	log.Println("🔌 Connecting to MongoDB...")

	var dbErr error
	for i := 1; i <= 3; i++ {
		if err := database.ConnectMongo(cfg.MongoURI); err != nil {
			dbErr = err
			log.Printf("❌ MongoDB connection attempt %d failed: %v", i, err)
			time.Sleep(2 * time.Second)
			continue
		}
		dbErr = nil
		break
	}
	if dbErr != nil {
		log.Fatal("❌ Failed to connect to MongoDB:", dbErr)
	}

	// ===== COLLABORATORS =====
	var mediaSvc *media.Service
	if cfg.CloudinaryURL != "" {
		var err error
		mediaSvc, err = media.New(cfg.CloudinaryURL)
		if err != nil {
			log.Fatal("❌ Cloudinary configuration error:", err)
		}
	} else {
		log.Println("⚠️ CLOUDINARY_URL not set; media uploads disabled")
	}

	var mailer *newsletter.Client
	if cfg.NewsletterEnabled() {
		mailer = newsletter.NewClient(cfg.BrevoAPIKey, cfg.BrevoListID, cfg.BrevoSenderEmail, cfg.BaseURL)
	} else {
		log.Println("⚠️ Brevo not configured; newsletter disabled")
	}

	quoteSvc := quotes.NewService(cfg.QuoteFilePath, cfg.QuoteAPIURL)

	handlers.Init(cfg, mediaSvc, mailer, quoteSvc)

	// ===== GIN MODE =====
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := routes.SetupRouter(cfg.JWTSecret)

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "No Life Anime backend running",
			"service": "healthy",
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Server error:", err)
		}
	}()

	// ===== GRACEFUL SHUTDOWN =====
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("❌ Forced shutdown:", err)
	}
	if err := database.DisconnectMongo(); err != nil {
		log.Println("❌ MongoDB disconnect:", err)
	}

	log.Println("👋 Server stopped gracefully")
}
