package wordpress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
)

func newTestClient(serverURL string) *Client {
	cfg := common.NewDefaultConfig()
	cfg.WordPress.SiteURL = serverURL
	cfg.WordPress.Username = "admin"
	cfg.WordPress.AppPassword = "secret"
	return NewClient(cfg, arbor.NewLogger())
}

func TestResolvePostBySlug(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wp-json/wp/v2/posts", r.URL.Path)
		assert.Equal(t, "winter-tyres", r.URL.Query().Get("slug"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)

		json.NewEncoder(w).Encode([]map[string]interface{}{{"id": 42, "slug": "winter-tyres"}})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	id, err := client.ResolvePost(context.Background(), "https://example.com/posts/winter-tyres")

	require.NoError(t, err)
	assert.Equal(t, 42, id)
}

func TestResolvePostNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]interface{}{})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ResolvePost(context.Background(), "https://example.com/missing-post")

	assert.ErrorIs(t, err, interfaces.ErrPostNotFound)
}

func TestGetPostWithAssets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wp-json/wp/v2/posts/42", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":             42,
			"slug":           "winter-tyres",
			"link":           "https://example.com/winter-tyres",
			"title":          map[string]string{"rendered": "Winter Tyres"},
			"content":        map[string]string{"rendered": "<p>body</p>"},
			"categories":     []int{3, 7},
			"tags":           []int{11},
			"featured_media": 99,
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	assets, err := client.GetPostWithAssets(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, "Winter Tyres", assets.Title)
	assert.Equal(t, "<p>body</p>", assets.ContentHTML)
	assert.Equal(t, "winter-tyres", assets.Slug)
	assert.Equal(t, []int{3, 7}, assets.Categories)
	assert.Equal(t, 99, assets.FeaturedMediaID)
}

func TestUpdatePostReappliesPreservedMetadata(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wp-json/wp/v2/posts/42", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 42, "slug": "original-slug"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	preserved := &models.PreservationRecord{
		OriginalSlug: "original-slug",
		Categories:   []int{3},
		Tags:         []int{},
		FeaturedMediaID: 99,
	}
	flags := models.PreservationFlags{Categories: true, Tags: true, Media: true}

	_, err := client.UpdatePost(context.Background(), 42, &interfaces.PostPayload{
		Title:       "New Title",
		Slug:        "new-slug",
		ContentHTML: "<p>new</p>",
		Status:      "publish",
	}, preserved, flags)

	require.NoError(t, err)
	assert.Equal(t, "original-slug", received["slug"])
	assert.Equal(t, []interface{}{float64(3)}, received["categories"])
	_, tagsSent := received["tags"]
	assert.False(t, tagsSent, "empty preserved tags must not be reapplied")
	assert.Equal(t, float64(99), received["featured_media"])
}

func TestUpdatePostPreservationFlagsOff(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 42})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	preserved := &models.PreservationRecord{OriginalSlug: "original-slug", Categories: []int{3}}

	_, err := client.UpdatePost(context.Background(), 42, &interfaces.PostPayload{Title: "T"}, preserved, models.PreservationFlags{})

	require.NoError(t, err)
	_, categoriesSent := received["categories"]
	assert.False(t, categoriesSent)
	assert.Equal(t, "original-slug", received["slug"], "slug is always preserved when present")
}

func TestCreatePost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/wp-json/wp/v2/posts", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 101, "link": "https://example.com/fresh"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	outcome, err := client.CreatePost(context.Background(), &interfaces.PostPayload{
		Title: "Fresh", Slug: "fresh", ContentHTML: "<p>x</p>", Status: "publish",
	})

	require.NoError(t, err)
	assert.Equal(t, 101, outcome.ID)
	assert.Equal(t, "https://example.com/fresh", outcome.CanonicalLink)
}

func TestServerErrorSurfacesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database gone", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.CreatePost(context.Background(), &interfaces.PostPayload{Title: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSlugFromURL(t *testing.T) {
	assert.Equal(t, "winter-tyres", slugFromURL("https://example.com/posts/winter-tyres"))
	assert.Equal(t, "intro", slugFromURL("https://example.com/intro.html"))
	assert.Equal(t, "", slugFromURL("https://example.com/"))
}
