package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 5, totalPages(25, 6))
	assert.Equal(t, 1, totalPages(6, 6))
	assert.Equal(t, 2, totalPages(7, 6))
	assert.Equal(t, 0, totalPages(0, 6))
}

func TestPageParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/posts/category/anime?page=3&limit=10", nil)
	page, limit, skip := pageParams(c, 6)
	assert.Equal(t, 3, page)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, skip)

	// Missing or junk values fall back to page 1 and the default limit.
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/posts/category/anime?page=-1&limit=abc", nil)
	page, limit, skip = pageParams(c, 6)
	assert.Equal(t, 1, page)
	assert.Equal(t, 6, limit)
	assert.Equal(t, 0, skip)
}
