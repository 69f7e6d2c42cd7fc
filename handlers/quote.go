package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDailyQuote returns the quote of the day, refreshing the cache when it
// is older than 24 hours.
func GetDailyQuote(c *gin.Context) {
	quote, err := quoteSvc.Daily(c.Request.Context())
	if err != nil {
		log.Printf("Daily quote error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to get daily quote"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": quote})
}

// RefreshQuote forces a fetch of a new quote regardless of cache age.
func RefreshQuote(c *gin.Context) {
	quote, err := quoteSvc.ForceRefresh(c.Request.Context())
	if err != nil {
		log.Printf("Quote refresh error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to refresh quote"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": quote, "message": "Quote refreshed successfully"})
}

// QuoteStatus reports cache freshness.
func QuoteStatus(c *gin.Context) {
	needsUpdate, lastUpdated, hoursUntilNext := quoteSvc.Status()

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"needsUpdate":          needsUpdate,
			"lastUpdated":          lastUpdated,
			"hoursUntilNextUpdate": hoursUntilNext,
		},
	})
}
