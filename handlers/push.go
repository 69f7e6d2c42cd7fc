package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nolife/database"
	"nolife/models"
)

// GetVapidPublicKey hands the browser the key it needs to subscribe.
func GetVapidPublicKey(c *gin.Context) {
	if cfg == nil || !cfg.PushEnabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": cfg.VAPIDPublicKey})
}

// SubscribePush stores a browser's push subscription for new-post
// announcements. Re-subscribing the same endpoint is an upsert.
func SubscribePush(c *gin.Context) {
	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
		Keys     struct {
			P256dh string `json:"p256dh" binding:"required"`
			Auth   string `json:"auth" binding:"required"`
		} `json:"keys" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sub := webpush.Subscription{
		Endpoint: req.Endpoint,
		Keys:     webpush.Keys{P256dh: req.Keys.P256dh, Auth: req.Keys.Auth},
	}

	// $setOnInsert keeps _id stable when the same endpoint re-subscribes.
	_, err := database.PushSubs.UpdateOne(ctx,
		bson.M{"sub.endpoint": req.Endpoint},
		bson.M{
			"$set":         bson.M{"sub": sub, "createdAt": time.Now().Unix()},
			"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		log.Printf("Failed to save push subscription: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Push subscription saved successfully"})
}

// notifyPushSubscribers fans a new-post notification out to every stored
// subscription. Expired endpoints (404/410) are removed as they are found.
func notifyPushSubscribers(ctx context.Context, post models.Post, excerpt string) {
	if cfg == nil || !cfg.PushEnabled() || database.PushSubs == nil {
		return
	}

	cursor, err := database.PushSubs.Find(ctx, bson.M{})
	if err != nil {
		log.Printf("Push subscriber lookup failed: %v", err)
		return
	}
	defer cursor.Close(ctx)

	var subs []models.PushSubscription
	if err := cursor.All(ctx, &subs); err != nil {
		log.Printf("Push subscriber decode failed: %v", err)
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"title": "Yeni Blog Yazısı: " + post.Title,
		"body":  excerpt,
		"data": map[string]interface{}{
			"url":       "/post.html?slug=" + post.Slug,
			"timestamp": time.Now().Unix(),
		},
	})
	if err != nil {
		log.Printf("Push payload marshal failed: %v", err)
		return
	}

	sent := 0
	for _, sub := range subs {
		resp, err := webpush.SendNotification(payload, &sub.Sub, &webpush.Options{
			Subscriber:      "mailto:admin@nolifeanime.com",
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			TTL:             3600,
		})
		if err != nil {
			log.Printf("Push notification failed for %s: %v", sub.ID.Hex(), err)
			continue
		}
		if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
			if _, delErr := database.PushSubs.DeleteOne(ctx, bson.M{"_id": sub.ID}); delErr != nil {
				log.Printf("Failed to delete expired push subscription: %v", delErr)
			}
		} else {
			sent++
		}
		resp.Body.Close()
	}
	log.Printf("Push notifications sent for post %s: %d of %d", post.ID.Hex(), sent, len(subs))
}
