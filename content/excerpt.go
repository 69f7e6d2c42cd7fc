package content

import "nolife/models"

// Excerpt returns the first text-style block's content, truncated to max
// runes with an ellipsis. Used for newsletter and push announcement bodies.
func Excerpt(blocks []models.ContentBlock, max int) string {
	for _, block := range blocks {
		if (block.Type == "paragraph" || block.Type == "text") && block.Text != "" {
			runes := []rune(block.Text)
			if len(runes) <= max {
				return block.Text
			}
			return string(runes[:max]) + "..."
		}
	}
	return ""
}
