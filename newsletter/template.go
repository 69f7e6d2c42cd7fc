package newsletter

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// renderPostEmail builds the announcement HTML for a published post. The
// layout mirrors the site's blue header card with a read-more button and an
// unsubscribe footer.
func (c *Client) renderPostEmail(post PostData) string {
	postURL := fmt.Sprintf("%s/post.html?slug=%s", strings.TrimRight(c.siteBaseURL, "/"), post.Slug)
	title := html.EscapeString(post.Title)

	excerpt := html.EscapeString(post.Excerpt)
	if excerpt == "" {
		excerpt = "Yeni blog yazımızı okumak için tıklayın!"
	}

	thumbnailTag := ""
	if post.Thumbnail != "" {
		thumbnailTag = fmt.Sprintf(`<img src="%s" alt="%s" class="post-image">`, post.Thumbnail, title)
	}

	publishDate := post.PublishDate
	if publishDate.IsZero() {
		publishDate = time.Now()
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Yeni Blog Yazısı: %s</title>
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background: #097bed; color: white; padding: 20px; text-align: center; border-radius: 10px 10px 0 0; }
		.content { background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px; }
		.post-image { width: 100%%; max-width: 500px; height: auto; border-radius: 10px; margin: 20px 0; }
		.btn { background: #097bed; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px; display: inline-block; margin: 20px 0; }
		.footer { text-align: center; padding: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="header">
		<h1>No Life Anime</h1>
		<p>Yeni blog yazımız yayında!</p>
	</div>
	<div class="content">
		<h2>%s</h2>
		%s
		<p>%s</p>
		<a href="%s" class="btn">Yazıyı Oku</a>
		<p style="margin-top: 30px;"><small>Yayın Tarihi: %s</small></p>
	</div>
	<div class="footer">
		<p>Bu e-postayı No Life Anime haber bültenine abone olduğunuz için aldınız.</p>
		<p>Abonelikten çıkmak için <a href="{{unsubscribe}}">buraya tıklayın</a>.</p>
		<p>© %d No Life Anime. Tüm hakları saklıdır.</p>
	</div>
</body>
</html>`, title, title, thumbnailTag, excerpt, postURL, publishDate.Format("02.01.2006"), time.Now().Year())
}
