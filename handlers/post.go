package handlers

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nolife/content"
	"nolife/database"
	"nolife/media"
	"nolife/models"
	"nolife/newsletter"
)

const searchResultCap = 50

// GetAllPosts returns every published post, newest first.
func GetAllPosts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.Posts.Find(ctx, bson.M{"status": true},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		log.Printf("GetAllPosts find error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		log.Printf("GetAllPosts decode error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode posts"})
		return
	}

	applyMedia(posts, true)
	c.JSON(http.StatusOK, posts)
}

// GetPostByID returns a single published post with content image URLs
// templated for rendering.
func GetPostByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID format"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var post models.Post
	err = database.Posts.FindOne(ctx, bson.M{"_id": id, "status": true}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found or not published"})
		return
	}
	if err != nil {
		log.Printf("GetPostByID error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		return
	}

	if mediaSvc != nil {
		mediaSvc.ApplyPostMedia(&post, true)
	}
	c.JSON(http.StatusOK, post)
}

// GetPostsByCategory lists published posts whose format or content category
// matches, paginated.
func GetPostsByCategory(c *gin.Context) {
	category := c.Param("category")
	page, limit, skip := pageParams(c, 6)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"$or":    []bson.M{{"formatCategory": category}, {"contentCategory": category}},
		"status": true,
	}

	totalPosts, err := database.Posts.CountDocuments(ctx, filter)
	if err != nil {
		log.Printf("GetPostsByCategory count error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count posts"})
		return
	}

	posts, err := findPosts(ctx, filter, skip, limit)
	if err != nil {
		log.Printf("GetPostsByCategory find error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	applyMedia(posts, false)
	c.JSON(http.StatusOK, gin.H{
		"posts":        posts,
		"totalPosts":   totalPosts,
		"totalPages":   totalPages(totalPosts, limit),
		"currentPage":  page,
		"postsPerPage": limit,
	})
}

// GetPostsByTag lists published posts carrying the tag, paginated.
func GetPostsByTag(c *gin.Context) {
	tag := c.Param("tag")
	page, limit, skip := pageParams(c, 6)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{"tags": tag, "status": true}

	totalPosts, err := database.Posts.CountDocuments(ctx, filter)
	if err != nil {
		log.Printf("GetPostsByTag count error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count posts"})
		return
	}

	posts, err := findPosts(ctx, filter, skip, limit)
	if err != nil {
		log.Printf("GetPostsByTag find error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	applyMedia(posts, false)
	c.JSON(http.StatusOK, gin.H{
		"posts":       posts,
		"totalPosts":  totalPosts,
		"totalPages":  totalPages(totalPosts, limit),
		"currentPage": page,
	})
}

// GetLatestPosts returns the newest published posts, default 3.
func GetLatestPosts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit < 1 {
		limit = 3
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	posts, err := findPosts(ctx, bson.M{"status": true}, 0, limit)
	if err != nil {
		log.Printf("GetLatestPosts error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	applyMedia(posts, false)
	c.JSON(http.StatusOK, posts)
}

// SearchPosts does a case-insensitive title substring search over published
// posts, capped to keep result payloads bounded.
func SearchPosts(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		c.JSON(http.StatusOK, []models.Post{})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"title":  bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"},
		"status": true,
	}

	posts, err := findPosts(ctx, filter, 0, searchResultCap)
	if err != nil {
		log.Printf("SearchPosts error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search posts"})
		return
	}

	applyMedia(posts, false)
	c.JSON(http.StatusOK, posts)
}

// GetPopularTags aggregates the ten most used tags across published posts.
func GetPopularTags(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: true}}}},
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$tags"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		{{Key: "$limit", Value: 10}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "name", Value: "$_id"},
			{Key: "count", Value: 1},
		}}},
	}

	cursor, err := database.Posts.Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("GetPopularTags aggregate error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch popular tags"})
		return
	}
	defer cursor.Close(ctx)

	tags := []bson.M{}
	if err := cursor.All(ctx, &tags); err != nil {
		log.Printf("GetPopularTags decode error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode popular tags"})
		return
	}

	c.JSON(http.StatusOK, tags)
}

// CreatePost accepts a multipart form with title, categories, tags (JSON),
// content (JSON block array), an optional status/author, a required
// thumbnail file, and any number of content image files.
func CreatePost(c *gin.Context) {
	if mediaSvc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Media storage not configured"})
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}
	slug := content.Slugify(title)

	thumbFile, contentFiles, err := collectUploads(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded files", "details": errorDetail(err)})
		return
	}
	if thumbFile == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Thumbnail is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	mediaSvc.EnsureFolders(ctx, media.FolderThumbnails, media.FolderContentImages)

	thumbName := slug + "-thumbnail-" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	thumbnailID, err := mediaSvc.Upload(ctx, bytes.NewReader(thumbFile.Data), media.FolderThumbnails, thumbName)
	if err != nil {
		log.Printf("Thumbnail upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload thumbnail"})
		return
	}

	blocks := content.ParseBlocks(c.PostForm("content"), nil)
	blocks, recResult := media.ReconcileImages(ctx, blocks, contentFiles, uploadBuffer, nil, slug)
	if len(recResult.Failed) > 0 {
		log.Printf("CreatePost: %d content image(s) failed to upload: %v", len(recResult.Failed), recResult.Failed)
	}

	post := models.Post{
		ID:              primitive.NewObjectID(),
		Title:           title,
		Slug:            slug,
		FormatCategory:  formValue(c, "formatCategory", "Uncategorized"),
		ContentCategory: formValue(c, "contentCategory", "Uncategorized"),
		Tags:            content.ParseTags(c.PostForm("tags")),
		Thumbnail:       thumbnailID,
		CreatedAt:       time.Now(),
		EditDates:       []time.Time{},
		Author:          formValue(c, "author", "Anonymous"),
		Status:          parseStatus(c.PostForm("status"), true),
		Content:         blocks,
	}

	if _, err := database.Posts.InsertOne(ctx, post); err != nil {
		log.Printf("CreatePost insert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	log.Printf("Post created: %s (%s), %d content blocks", post.Title, post.ID.Hex(), len(post.Content))

	if post.Status {
		go announcePublished(post)
	}

	c.JSON(http.StatusCreated, post)
}

// UpdatePost merges the provided multipart fields over the stored post.
// Omitted fields keep their prior value; content is replaced wholesale when
// provided; a new thumbnail or content image archives the one it supersedes.
func UpdatePost(c *gin.Context) {
	if mediaSvc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Media storage not configured"})
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID format"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var post models.Post
	err = database.Posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		log.Printf("UpdatePost lookup error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		return
	}

	thumbFile, contentFiles, err := collectUploads(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded files", "details": errorDetail(err)})
		return
	}

	title := formValue(c, "title", post.Title)
	slug := content.Slugify(title)

	mediaSvc.EnsureFolders(ctx,
		media.FolderThumbnails, media.FolderContentImages,
		"archive", "archive/"+media.FolderThumbnails, "archive/"+media.FolderContentImages)

	thumbnailID := post.Thumbnail
	if thumbFile != nil {
		oldID := post.Thumbnail
		if strings.HasPrefix(oldID, "http") {
			oldID = media.ExtractPublicID(oldID)
		}
		if strings.HasPrefix(oldID, media.FolderThumbnails) {
			if err := mediaSvc.Archive(ctx, oldID, media.FolderThumbnails); err != nil {
				log.Printf("Thumbnail archiving failed or not found: %v", err)
			}
		}

		thumbName := slug + "-thumbnail-" + strconv.FormatInt(time.Now().UnixMilli(), 10)
		thumbnailID, err = mediaSvc.Upload(ctx, bytes.NewReader(thumbFile.Data), media.FolderThumbnails, thumbName)
		if err != nil {
			log.Printf("Thumbnail upload failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload thumbnail"})
			return
		}
	}

	blocks := content.ParseBlocks(c.PostForm("content"), post.Content)
	blocks, recResult := media.ReconcileImages(ctx, blocks, contentFiles, uploadBuffer, mediaSvc.Archive, slug)
	if len(recResult.Failed) > 0 {
		log.Printf("UpdatePost: %d content image(s) failed to upload: %v", len(recResult.Failed), recResult.Failed)
	}

	tags := post.Tags
	if raw := c.PostForm("tags"); raw != "" {
		tags = content.ParseTags(raw)
	}

	post.Title = title
	post.Slug = slug
	post.FormatCategory = formValue(c, "formatCategory", post.FormatCategory)
	post.ContentCategory = formValue(c, "contentCategory", post.ContentCategory)
	post.Tags = tags
	post.Status = parseStatus(c.PostForm("status"), post.Status)
	post.Content = blocks
	post.Thumbnail = thumbnailID
	post.Author = formValue(c, "author", post.Author)
	post.EditDates = append(post.EditDates, time.Now())

	if _, err := database.Posts.ReplaceOne(ctx, bson.M{"_id": id}, post); err != nil {
		log.Printf("UpdatePost replace error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post updated successfully", "post": post})
}

// DeletePost removes the document and best-effort deletes its thumbnail and
// content image assets, reporting how many deletions succeeded and failed.
func DeletePost(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID format"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var post models.Post
	err = database.Posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		log.Printf("DeletePost lookup error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		return
	}

	deleted, failed := 0, 0

	if post.Thumbnail != "" {
		if deleteAsset(ctx, post.Thumbnail) {
			deleted++
		} else {
			failed++
		}
	}

	for _, block := range post.Content {
		if block.Type != "image" {
			continue
		}
		ref := block.URL
		if ref == "" {
			ref = block.Filename
		}
		if ref == "" {
			log.Printf("Image block in post %s has no deletable reference", post.ID.Hex())
			continue
		}
		if deleteAsset(ctx, ref) {
			deleted++
		} else {
			failed++
		}
	}

	if _, err := database.Posts.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		log.Printf("DeletePost delete error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	log.Printf("Post deleted: %s. Media deleted: %d, failed: %d", post.ID.Hex(), deleted, failed)
	c.JSON(http.StatusOK, gin.H{
		"message":           "Post deleted successfully",
		"deletedMediaCount": deleted,
		"failedMediaCount":  failed,
	})
}

// findPosts runs a filtered, paginated query sorted newest first.
func findPosts(ctx context.Context, filter bson.M, skip, limit int) ([]models.Post, error) {
	cursor, err := database.Posts.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func applyMedia(posts []models.Post, processContent bool) {
	if mediaSvc == nil {
		return
	}
	for i := range posts {
		mediaSvc.ApplyPostMedia(&posts[i], processContent)
	}
}

// collectUploads reads every uploaded file into memory, splitting off the
// thumbnail field. Content files are ordered by field name so positional
// matching during reconciliation is deterministic.
func collectUploads(c *gin.Context) (*media.UploadedFile, []media.UploadedFile, error) {
	if err := c.Request.ParseMultipartForm(100 << 20); err != nil && err != http.ErrNotMultipart {
		return nil, nil, err
	}
	form := c.Request.MultipartForm
	if form == nil {
		return nil, nil, nil
	}

	fields := make([]string, 0, len(form.File))
	for field := range form.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var thumb *media.UploadedFile
	var files []media.UploadedFile
	for _, field := range fields {
		for _, header := range form.File[field] {
			f, err := header.Open()
			if err != nil {
				return nil, nil, err
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return nil, nil, err
			}

			upload := media.UploadedFile{FieldName: field, OriginalName: header.Filename, Data: data}
			if field == "thumbnail" && thumb == nil {
				thumb = &upload
			} else {
				files = append(files, upload)
			}
		}
	}
	return thumb, files, nil
}

func uploadBuffer(ctx context.Context, data []byte, folder, name string) (string, error) {
	return mediaSvc.Upload(ctx, bytes.NewReader(data), folder, name)
}

func deleteAsset(ctx context.Context, ref string) bool {
	if mediaSvc == nil {
		return false
	}
	publicID := ref
	if strings.HasPrefix(publicID, "http") {
		publicID = media.ExtractPublicID(publicID)
	}
	if publicID == "" {
		log.Printf("No public id recoverable from asset reference %q", ref)
		return false
	}
	if err := mediaSvc.Delete(ctx, publicID); err != nil {
		log.Printf("Asset deletion failed for %s: %v", publicID, err)
		return false
	}
	return true
}

func formValue(c *gin.Context, key, fallback string) string {
	if v := strings.TrimSpace(c.PostForm(key)); v != "" {
		return v
	}
	return fallback
}

func parseStatus(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	return raw == "true"
}

// announcePublished fires the newsletter campaign and push notifications for
// a freshly published post. Runs in its own goroutine; failures are logged
// and never affect the saved post.
func announcePublished(post models.Post) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic announcing post %s: %v", post.ID.Hex(), r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	excerpt := content.Excerpt(post.Content, 200)

	if mailer != nil {
		thumbnailURL := post.Thumbnail
		if mediaSvc != nil {
			if url, err := mediaSvc.DeliveryURL(post.Thumbnail, ""); err == nil {
				thumbnailURL = url
			}
		}
		if _, err := mailer.SendPostCampaign(ctx, newsletter.PostData{
			Title:       post.Title,
			Slug:        post.Slug,
			Excerpt:     excerpt,
			Thumbnail:   thumbnailURL,
			PublishDate: post.CreatedAt,
		}); err != nil {
			log.Printf("Newsletter campaign failed for post %s: %v", post.ID.Hex(), err)
		}
	}

	notifyPushSubscribers(ctx, post, excerpt)
}
