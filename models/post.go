package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContentBlock is one tagged unit of post body content. Type selects which of
// the remaining fields are meaningful:
//
//	paragraph, heading        Text (HTML)
//	bulletList, orderedList   Text (HTML containing <ul>/<ol>)
//	blockquote                Text, Author
//	image                     URL (Cloudinary public id or http URL), Caption
//	youtube                   URL (video URL or id)
//
// Filename is transient editor state: it names a freshly uploaded file until
// reconciliation rewrites the block to its hosted public id. Old documents may
// still carry it.
type ContentBlock struct {
	Type     string `bson:"type" json:"type"`
	Text     string `bson:"text,omitempty" json:"text,omitempty"`
	URL      string `bson:"url,omitempty" json:"url,omitempty"`
	Caption  string `bson:"caption,omitempty" json:"caption,omitempty"`
	Author   string `bson:"author,omitempty" json:"author,omitempty"`
	Subtext  string `bson:"subtext,omitempty" json:"subtext,omitempty"`
	Filename string `bson:"filename,omitempty" json:"filename,omitempty"`
}

type Post struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Slug            string             `bson:"slug" json:"slug"`
	FormatCategory  string             `bson:"formatCategory" json:"formatCategory"`
	ContentCategory string             `bson:"contentCategory" json:"contentCategory"`
	Tags            []string           `bson:"tags" json:"tags"`
	Thumbnail       string             `bson:"thumbnail" json:"thumbnail"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	EditDates       []time.Time        `bson:"editDates" json:"editDates"`
	Author          string             `bson:"author" json:"author"`
	Status          bool               `bson:"status" json:"status"`
	Content         []ContentBlock     `bson:"content" json:"content"`
}
