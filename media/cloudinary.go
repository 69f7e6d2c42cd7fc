// Package media owns every interaction with the Cloudinary host: uploads,
// archiving, deletion, and the read-time URL templating that turns stored
// public ids into delivery URLs.
package media

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"nolife/models"
)

const (
	FolderThumbnails    = "thumbnails"
	FolderContentImages = "content-images"

	thumbnailTransform = "c_fill,w_600,h_400,q_auto:best,f_auto,dpr_auto,fl_progressive"
	contentTransform   = "c_fill,w_800,h_600,q_auto:best,f_auto,dpr_auto,fl_progressive"
	uploadTransform    = "q_auto:best,f_auto,fl_progressive"
)

type Service struct {
	cld *cloudinary.Cloudinary
}

func New(cloudinaryURL string) (*Service, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary configuration: %w", err)
	}
	return &Service{cld: cld}, nil
}

// Upload stores an image under folder/name and returns its public id.
func (s *Service) Upload(ctx context.Context, file io.Reader, folder, name string) (string, error) {
	result, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         folder,
		PublicID:       name,
		ResourceType:   "auto",
		Transformation: uploadTransform,
	})
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", result.Error.Message)
	}
	return result.PublicID, nil
}

// Archive moves an asset out of its source folder into archive/<folder>,
// keeping superseded images recoverable instead of destroying them.
func (s *Service) Archive(ctx context.Context, publicID, sourceFolder string) error {
	if publicID == "" {
		return fmt.Errorf("public id is required for archiving")
	}
	archivePath := strings.Replace(publicID, sourceFolder, "archive/"+sourceFolder, 1)
	_, err := s.cld.Upload.Rename(ctx, uploader.RenameParams{
		FromPublicID: publicID,
		ToPublicID:   archivePath,
		Overwrite:    api.Bool(true),
	})
	if err != nil {
		return err
	}
	log.Printf("Archived image %s -> %s", publicID, archivePath)
	return nil
}

// Delete permanently removes an asset.
func (s *Service) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return fmt.Errorf("public id is required for deletion")
	}
	result, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return err
	}
	if result.Result != "ok" {
		return fmt.Errorf("cloudinary destroy returned %q for %s", result.Result, publicID)
	}
	return nil
}

// EnsureFolders creates the given folders, ignoring already-exists errors.
func (s *Service) EnsureFolders(ctx context.Context, folders ...string) {
	for _, folder := range folders {
		if _, err := s.cld.Admin.CreateFolder(ctx, admin.CreateFolderParams{Folder: folder}); err != nil {
			log.Printf("Folder creation failed for %s: %v", folder, err)
		}
	}
}

// DeliveryURL renders a transformation URL for a stored public id.
func (s *Service) DeliveryURL(publicID, transformation string) (string, error) {
	img, err := s.cld.Image(publicID)
	if err != nil {
		return "", err
	}
	img.Transformation = transformation
	return img.String()
}

// ApplyPostMedia rewrites a post's stored asset references to delivery URLs.
// Listing endpoints only need the thumbnail; the single-post view also
// templates content image blocks. Failures keep the stored reference.
func (s *Service) ApplyPostMedia(post *models.Post, processContent bool) {
	if post == nil {
		return
	}

	if post.Thumbnail != "" {
		if url, err := s.DeliveryURL(post.Thumbnail, thumbnailTransform); err == nil {
			post.Thumbnail = url
		} else {
			log.Printf("Thumbnail URL templating failed for post %s: %v", post.ID.Hex(), err)
		}
	}

	if !processContent {
		return
	}
	for i := range post.Content {
		block := &post.Content[i]
		if block.Type != "image" || block.URL == "" {
			continue
		}
		if url, err := s.DeliveryURL(block.URL, contentTransform); err == nil {
			block.URL = url
		} else {
			log.Printf("Content image URL templating failed: %v", err)
		}
	}
}

// ExtractPublicID recovers the public id from a Cloudinary delivery URL.
// Returns "" when the URL is not a Cloudinary upload URL.
func ExtractPublicID(url string) string {
	idx := strings.Index(url, "/upload/")
	if idx < 0 {
		return ""
	}
	rest := url[idx+len("/upload/"):]

	// Drop transformation segments and the version prefix, e.g.
	// c_fill,w_800/v1699999999/content-images/slug.jpg
	for {
		slash := strings.Index(rest, "/")
		if slash < 0 {
			break
		}
		segment := rest[:slash]
		if strings.Contains(segment, ",") || isVersionSegment(segment) {
			rest = rest[slash+1:]
			continue
		}
		break
	}

	if dot := strings.LastIndex(rest, "."); dot >= 0 {
		rest = rest[:dot]
	}
	return rest
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || segment[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(segment[1:])
	return err == nil
}
