package handlers

import (
	"context"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"nolife/newsletter"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type SubscribeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Subscribe adds a reader to the mailing list.
func Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if name == "" || email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Name and email address are required"})
		return
	}
	if !emailPattern.MatchString(email) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Enter a valid email address"})
		return
	}
	if len([]rune(name)) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Name must be at least 2 characters"})
		return
	}

	if mailer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Newsletter service not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := mailer.Subscribe(ctx, email, name); err != nil {
		log.Printf("Newsletter subscription error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Subscription failed, please try again later"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Successfully subscribed"})
}

type CampaignRequest struct {
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Excerpt     string    `json:"excerpt"`
	Thumbnail   string    `json:"thumbnail"`
	PublishDate time.Time `json:"publishDate"`
}

// SendCampaign creates and sends an announcement campaign for a post.
func SendCampaign(c *gin.Context) {
	var req CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	if req.Title == "" || req.Slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Post title and slug are required"})
		return
	}

	if mailer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Newsletter service not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	campaignID, err := mailer.SendPostCampaign(ctx, newsletter.PostData{
		Title:       req.Title,
		Slug:        req.Slug,
		Excerpt:     req.Excerpt,
		Thumbnail:   req.Thumbnail,
		PublishDate: req.PublishDate,
	})
	if err != nil {
		log.Printf("Newsletter campaign error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Campaign creation failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "campaignId": campaignID, "message": "Campaign sent successfully"})
}

// NewsletterStats returns the list's subscription statistics.
func NewsletterStats(c *gin.Context) {
	if mailer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Newsletter service not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	stats, err := mailer.ListStats(ctx)
	if err != nil {
		log.Printf("Newsletter stats error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch newsletter statistics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"totalSubscribers":  stats.TotalSubscribers,
		"totalBlacklisted":  stats.TotalBlacklisted,
		"uniqueSubscribers": stats.UniqueSubscribers,
	})
}
