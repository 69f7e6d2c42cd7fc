package media

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"nolife/models"
)

// UploadedFile is one binary file received alongside a create/update request,
// tagged with the multipart field it arrived under and its original name.
type UploadedFile struct {
	FieldName    string
	OriginalName string
	Data         []byte
}

// UploadFunc stores a buffer under folder/name and returns the new public id.
type UploadFunc func(ctx context.Context, data []byte, folder, name string) (string, error)

// ArchiveFunc moves a superseded asset into the archive folder tree.
type ArchiveFunc func(ctx context.Context, publicID, sourceFolder string) error

// Result reports which image blocks were rewritten and which failed. The
// caller decides whether partial failure aborts the save; the post handlers
// log failures and save anyway.
type Result struct {
	Succeeded []string
	Failed    []string
}

// ReconcileImages matches freshly uploaded files to image blocks, uploads
// them, and rewrites each matched block's URL to the new public id. Blocks
// that already point at a hosted asset and match no file are left alone.
// Processing is best-effort: one block's failure never aborts the rest.
func ReconcileImages(ctx context.Context, blocks []models.ContentBlock, files []UploadedFile, upload UploadFunc, archive ArchiveFunc, slug string) ([]models.ContentBlock, Result) {
	updated := make([]models.ContentBlock, len(blocks))
	copy(updated, blocks)

	var result Result
	seq := 1

	for i := range updated {
		block := &updated[i]
		if block.Type != "image" {
			continue
		}

		file := findImageFile(files, block, i)
		// Stored documents never carry the transient filename field.
		block.Filename = ""
		if file == nil {
			if block.URL == "" {
				log.Printf("Image block %d has no file match and no URL", i)
				result.Failed = append(result.Failed, fmt.Sprintf("block %d: no identifier", i))
			}
			// Hosted URL with no new file: existing image retained on edit.
			continue
		}

		if archive != nil {
			archiveOldImage(ctx, archive, block.URL)
		}

		name := fmt.Sprintf("%s-content-%d-%d", slug, time.Now().UnixMilli(), seq)
		publicID, err := upload(ctx, file.Data, FolderContentImages, name)
		if err != nil {
			log.Printf("Content image upload failed for %s: %v", file.OriginalName, err)
			result.Failed = append(result.Failed, file.OriginalName)
			continue
		}

		block.URL = publicID
		result.Succeeded = append(result.Succeeded, publicID)
		seq++
	}

	return updated, result
}

// findImageFile resolves the uploaded file for an image block: exact match on
// original filename or field name, then substring containment either
// direction, then the file at the block's own index as a positional fallback.
// A block with no identifier (a hosted http URL and no filename) never
// matches; those blocks are already settled and must not steal a file meant
// for another block.
func findImageFile(files []UploadedFile, block *models.ContentBlock, index int) *UploadedFile {
	if len(files) == 0 {
		return nil
	}

	identifier := block.Filename
	if identifier == "" && block.URL != "" && !strings.HasPrefix(block.URL, "http") {
		identifier = block.URL
	}
	if identifier == "" {
		return nil
	}

	for i := range files {
		f := &files[i]
		if f.OriginalName == identifier || f.FieldName == identifier ||
			strings.Contains(f.FieldName, identifier) ||
			(f.OriginalName != "" && strings.Contains(identifier, f.OriginalName)) {
			return f
		}
	}

	if index < len(files) {
		return &files[index]
	}
	return nil
}

// archiveOldImage moves the block's previous asset aside before the new
// upload takes its place. References that never resolved to a hosted
// content-images public id are skipped.
func archiveOldImage(ctx context.Context, archive ArchiveFunc, url string) {
	oldID := url
	if strings.HasPrefix(oldID, "http") {
		oldID = ExtractPublicID(oldID)
	}
	if oldID == "" || !strings.HasPrefix(oldID, FolderContentImages) {
		return
	}
	if err := archive(ctx, oldID, FolderContentImages); err != nil {
		log.Printf("Archiving old content image %s failed: %v", oldID, err)
	}
}
