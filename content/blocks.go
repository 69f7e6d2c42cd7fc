// Package content normalizes client-submitted post bodies into the canonical
// block model. The editor has shipped several block shapes over time (bare
// strings, nested data objects, src/alt instead of url/caption); everything
// funnels through ParseBlocks at the request boundary so the rest of the
// system only ever sees models.ContentBlock.
package content

import (
	"encoding/json"
	"regexp"
	"strings"

	"nolife/models"
)

var (
	nonWordChars = regexp.MustCompile(`[^\w\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Slugify derives a URL-safe slug from a post title: lowercase, non-word
// characters stripped, runs of whitespace collapsed to single hyphens.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = nonWordChars.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	return whitespace.ReplaceAllString(s, "-")
}

// ParseTags accepts a JSON array, a JSON string, or a plain comma-separated
// list and returns the trimmed tag slice. Anything unparseable yields an
// empty slice rather than an error.
func ParseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err == nil {
		return tags
	}

	parts := strings.Split(raw, ",")
	tags = make([]string, 0, len(parts))
	for _, p := range parts {
		tags = append(tags, strings.TrimSpace(p))
	}
	return tags
}

// ParseBlocks decodes the content field of a create/update request into
// canonical blocks. The payload may be a JSON array of block objects, a
// single block object, or free text; free text becomes one paragraph. An
// empty payload returns the fallback (the existing content on update).
func ParseBlocks(raw string, fallback []models.ContentBlock) []models.ContentBlock {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		var single map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &single); err == nil {
			return []models.ContentBlock{normalizeBlock(single)}
		}
		return []models.ContentBlock{{Type: "paragraph", Text: raw}}
	}

	blocks := make([]models.ContentBlock, 0, len(items))
	for _, item := range items {
		var obj map[string]interface{}
		if err := json.Unmarshal(item, &obj); err != nil {
			// A bare string element is treated as paragraph text.
			var text string
			if err := json.Unmarshal(item, &text); err == nil {
				blocks = append(blocks, models.ContentBlock{Type: "paragraph", Text: text})
			} else {
				blocks = append(blocks, models.ContentBlock{Type: "paragraph"})
			}
			continue
		}
		blocks = append(blocks, normalizeBlock(obj))
	}
	return blocks
}

// NormalizeBlocks maps already-decoded block objects into canonical form.
// Formatting a canonical array is a no-op, so stored content can be run
// through it safely.
func NormalizeBlocks(objs []map[string]interface{}) []models.ContentBlock {
	blocks := make([]models.ContentBlock, 0, len(objs))
	for _, obj := range objs {
		blocks = append(blocks, normalizeBlock(obj))
	}
	return blocks
}

// normalizeBlock is the legacy-input adapter. Malformed input degrades to
// empty-string fields; it never fails.
func normalizeBlock(obj map[string]interface{}) models.ContentBlock {
	if obj == nil {
		return models.ContentBlock{Type: "paragraph"}
	}

	block := models.ContentBlock{Type: str(obj, "type")}
	if block.Type == "" {
		block.Type = "paragraph"
	}

	switch block.Type {
	case "paragraph", "heading":
		block.Text = firstStr(obj, "content", "text")

	case "bulletList", "orderedList":
		block.Text = firstStr(obj, "content", "text", "html")

	case "blockquote":
		block.Text = firstStr(obj, "content", "text")
		block.Author = str(obj, "author")

	case "image":
		block.URL = firstStr(obj, "url", "src")
		block.Caption = firstStr(obj, "caption", "alt")
		block.Filename = str(obj, "filename")

	case "youtube":
		block.URL = firstStr(obj, "videoId", "url")

	default:
		// Unknown types pass through with their string-valued fields.
		block.Text = firstStr(obj, "text", "content")
		block.URL = str(obj, "url")
		block.Caption = str(obj, "caption")
		block.Author = str(obj, "author")
		block.Subtext = str(obj, "subtext")
		block.Filename = str(obj, "filename")
	}

	if block.Subtext == "" {
		block.Subtext = str(obj, "subtext")
	}

	// Old editor revisions nested the payload under data; flatten it last so
	// it wins over the top-level fields.
	if data, ok := obj["data"].(map[string]interface{}); ok {
		if v := str(data, "text"); v != "" {
			block.Text = v
		}
		if v := str(data, "url"); v != "" {
			block.URL = v
		}
		if v := str(data, "caption"); v != "" {
			block.Caption = v
		}
		if v := str(data, "filename"); v != "" {
			block.Filename = v
		}
	}

	return block
}

func str(obj map[string]interface{}, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}

func firstStr(obj map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v := str(obj, key); v != "" {
			return v
		}
	}
	return ""
}
