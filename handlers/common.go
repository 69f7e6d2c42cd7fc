package handlers

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"nolife/config"
	"nolife/media"
	"nolife/newsletter"
	"nolife/quotes"
)

// Collaborators shared across all handler files. Init wires them at startup;
// a nil media/mailer collaborator means its env block is unset and the
// endpoints depending on it answer 503.
var (
	cfg      *config.Config
	mediaSvc *media.Service
	mailer   *newsletter.Client
	quoteSvc *quotes.Service
)

func Init(c *config.Config, m *media.Service, n *newsletter.Client, q *quotes.Service) {
	cfg = c
	mediaSvc = m
	mailer = n
	quoteSvc = q
}

// pageParams reads ?page and ?limit with sane floors.
func pageParams(c *gin.Context, defaultLimit int) (page, limit, skip int) {
	page, _ = strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.Query("limit"))
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit, (page - 1) * limit
}

func totalPages(totalPosts int64, limit int) int {
	return int(math.Ceil(float64(totalPosts) / float64(limit)))
}

func errorDetail(err error) string {
	if gin.Mode() == gin.ReleaseMode {
		return ""
	}
	return err.Error()
}
