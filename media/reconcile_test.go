package media

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nolife/models"
)

func staticUpload(ids ...string) UploadFunc {
	i := 0
	return func(_ context.Context, _ []byte, folder, name string) (string, error) {
		id := folder + "/" + name
		if i < len(ids) {
			id = ids[i]
		}
		i++
		return id, nil
	}
}

func TestReconcileMatchesByFilename(t *testing.T) {
	blocks := []models.ContentBlock{
		{Type: "paragraph", Text: "hi"},
		{Type: "image", Filename: "a.png"},
	}
	files := []UploadedFile{{FieldName: "images", OriginalName: "a.png", Data: []byte("png")}}

	updated, result := ReconcileImages(context.Background(), blocks, files, staticUpload("content-images/new-id"), nil, "my-post")

	require.Len(t, updated, 2)
	assert.Equal(t, "content-images/new-id", updated[1].URL)
	assert.Empty(t, updated[1].Filename)
	assert.Equal(t, []string{"content-images/new-id"}, result.Succeeded)
	assert.Empty(t, result.Failed)

	// Input slice is not mutated.
	assert.Equal(t, "a.png", blocks[1].Filename)
}

func TestReconcileLeavesHostedImagesAlone(t *testing.T) {
	blocks := []models.ContentBlock{
		{Type: "image", URL: "https://res.cloudinary.com/demo/image/upload/v1/content-images/kept.jpg"},
	}

	updated, result := ReconcileImages(context.Background(), blocks, nil, staticUpload(), nil, "slug")

	assert.Equal(t, blocks[0].URL, updated[0].URL)
	assert.Empty(t, result.Succeeded)
	assert.Empty(t, result.Failed)
}

func TestReconcileHostedBlockNeverStealsAnotherBlocksFile(t *testing.T) {
	// The usual edit round-trip: existing blocks come back with templated
	// http URLs and no filename, and one new image is added. The new file
	// belongs to the new block only.
	blocks := []models.ContentBlock{
		{Type: "image", URL: "https://res.cloudinary.com/demo/image/upload/v1/content-images/kept.jpg"},
		{Type: "image", Filename: "new.png"},
	}
	files := []UploadedFile{{FieldName: "images", OriginalName: "new.png", Data: []byte("x")}}

	archive := func(_ context.Context, _, _ string) error {
		t.Fatal("no existing asset should be archived")
		return nil
	}

	updated, result := ReconcileImages(context.Background(), blocks, files, staticUpload("content-images/new-id"), archive, "slug")

	assert.Equal(t, blocks[0].URL, updated[0].URL)
	assert.Equal(t, "content-images/new-id", updated[1].URL)
	assert.Equal(t, []string{"content-images/new-id"}, result.Succeeded)
	assert.Empty(t, result.Failed)
}

func TestReconcilePositionalFallback(t *testing.T) {
	blocks := []models.ContentBlock{
		{Type: "image", Filename: "missing.png"},
	}
	files := []UploadedFile{{FieldName: "file-0", OriginalName: "other.png", Data: []byte("x")}}

	updated, result := ReconcileImages(context.Background(), blocks, files, staticUpload("content-images/pos"), nil, "slug")

	assert.Equal(t, "content-images/pos", updated[0].URL)
	assert.Equal(t, []string{"content-images/pos"}, result.Succeeded)
}

func TestReconcileContinuesPastUploadFailure(t *testing.T) {
	blocks := []models.ContentBlock{
		{Type: "image", Filename: "bad.png"},
		{Type: "image", Filename: "good.png"},
	}
	files := []UploadedFile{
		{FieldName: "f1", OriginalName: "bad.png", Data: []byte("x")},
		{FieldName: "f2", OriginalName: "good.png", Data: []byte("y")},
	}
	calls := 0
	upload := func(_ context.Context, _ []byte, _, _ string) (string, error) {
		calls++
		if calls == 1 {
			return "", fmt.Errorf("upstream down")
		}
		return "content-images/ok", nil
	}

	updated, result := ReconcileImages(context.Background(), blocks, files, upload, nil, "slug")

	assert.Empty(t, updated[0].URL)
	assert.Empty(t, updated[0].Filename)
	assert.Equal(t, "content-images/ok", updated[1].URL)
	assert.Equal(t, []string{"content-images/ok"}, result.Succeeded)
	assert.Equal(t, []string{"bad.png"}, result.Failed)
}

func TestReconcileArchivesReplacedImage(t *testing.T) {
	blocks := []models.ContentBlock{
		{Type: "image", URL: "content-images/old-id", Filename: "new.png"},
	}
	files := []UploadedFile{{FieldName: "f", OriginalName: "new.png", Data: []byte("x")}}

	var archived []string
	archive := func(_ context.Context, publicID, folder string) error {
		archived = append(archived, folder+"|"+publicID)
		return nil
	}

	updated, _ := ReconcileImages(context.Background(), blocks, files, staticUpload("content-images/new-id"), archive, "slug")

	assert.Equal(t, []string{"content-images|content-images/old-id"}, archived)
	assert.Equal(t, "content-images/new-id", updated[0].URL)
}

func TestReconcileSkipsArchiveForForeignURLs(t *testing.T) {
	blocks := []models.ContentBlock{
		{Type: "image", URL: "http://example.com/not-cloudinary.png", Filename: "new.png"},
	}
	files := []UploadedFile{{FieldName: "f", OriginalName: "new.png", Data: []byte("x")}}

	archive := func(_ context.Context, _, _ string) error {
		t.Fatal("archive should not be called for a non-hosted reference")
		return nil
	}

	updated, _ := ReconcileImages(context.Background(), blocks, files, staticUpload("content-images/new-id"), archive, "slug")
	assert.Equal(t, "content-images/new-id", updated[0].URL)
}

func TestExtractPublicID(t *testing.T) {
	assert.Equal(t, "content-images/slug-content-1-1",
		ExtractPublicID("https://res.cloudinary.com/demo/image/upload/v1699999999/content-images/slug-content-1-1.jpg"))
	assert.Equal(t, "thumbnails/x",
		ExtractPublicID("https://res.cloudinary.com/demo/image/upload/c_fill,w_600/v17/thumbnails/x.png"))
	assert.Equal(t, "", ExtractPublicID("http://example.com/a.png"))
}
