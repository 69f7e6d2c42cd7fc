package newsletter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeSendsContactRequest(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 1}`))
	}))
	defer srv.Close()

	c := NewClient("xkeysib-test", 7, "noreply@example.com", "http://localhost:8080")
	c.SetAPIBase(srv.URL)

	err := c.Subscribe(context.Background(), "fan@example.com", "Fan")
	require.NoError(t, err)

	assert.Equal(t, "/contacts", gotPath)
	assert.Equal(t, "xkeysib-test", gotKey)
	assert.Equal(t, "fan@example.com", gotBody["email"])
	assert.Equal(t, true, gotBody["updateEnabled"])
}

func TestSubscribeTreatsDuplicateAsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"duplicate_parameter","message":"Contact already exist"}`))
	}))
	defer srv.Close()

	c := NewClient("xkeysib-test", 7, "noreply@example.com", "http://localhost:8080")
	c.SetAPIBase(srv.URL)

	assert.NoError(t, c.Subscribe(context.Background(), "fan@example.com", "Fan"))
}

func TestSendPostCampaignCreatesAndSends(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 42}`))
	}))
	defer srv.Close()

	c := NewClient("xkeysib-test", 7, "noreply@example.com", "https://nolifeanime.com")
	c.SetAPIBase(srv.URL)

	id, err := c.SendPostCampaign(context.Background(), PostData{
		Title:       "Hello World",
		Slug:        "hello-world",
		PublishDate: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, []string{"/emailCampaigns", "/emailCampaigns/42/sendNow"}, paths)
}

func TestRenderPostEmail(t *testing.T) {
	c := NewClient("xkeysib-test", 7, "noreply@example.com", "https://nolifeanime.com/")

	html := c.renderPostEmail(PostData{
		Title:     "Spring Season <Review>",
		Slug:      "spring-season-review",
		Excerpt:   "The good ones",
		Thumbnail: "https://res.cloudinary.com/demo/image/upload/thumbnails/x.jpg",
	})

	assert.Contains(t, html, "Spring Season &lt;Review&gt;")
	assert.Contains(t, html, "https://nolifeanime.com/post.html?slug=spring-season-review")
	assert.Contains(t, html, "thumbnails/x.jpg")
	assert.Contains(t, html, "{{unsubscribe}}")
}
