package search

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
)

func newTestService(serverURL string) *Service {
	cfg := common.NewDefaultConfig()
	cfg.Search.APIKey = "test-key"
	cfg.Search.Endpoint = serverURL
	return NewService(cfg, arbor.NewLogger())
}

func TestAnalyzeEntityGaps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "winter tyres", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"organic_results": []map[string]string{
				{"title": "Guide covering Nordic Compound", "snippet": "also about Stud Free designs"},
				{"title": "Nordic Compound explained", "snippet": "choose Stud Free options"},
				{"title": "Unrelated result", "snippet": "lowercase only snippet"},
			},
		})
	}))
	defer server.Close()

	gaps, err := newTestService(server.URL).AnalyzeEntityGaps(context.Background(), "winter tyres")

	require.NoError(t, err)
	assert.Contains(t, gaps, "Nordic Compound")
	assert.Contains(t, gaps, "Stud Free")
}

func TestAnalyzeEntityGapsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestService(server.URL).AnalyzeEntityGaps(context.Background(), "winter tyres")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestDiscoverVideos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "videos", r.URL.Query().Get("tbm"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"video_results": []map[string]string{
				{"title": "Fitting Guide", "link": "https://youtube.com/watch?v=abc"},
				{"title": "", "link": "https://youtube.com/watch?v=skip"},
				{"title": "Second", "link": "https://youtube.com/watch?v=def"},
			},
		})
	}))
	defer server.Close()

	videos, err := newTestService(server.URL).DiscoverVideos(context.Background(), "winter tyres")

	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "Fitting Guide", videos[0].Title)
	assert.Equal(t, "https://youtube.com/watch?v=abc", videos[0].URL)
}

func TestExtractEntities(t *testing.T) {
	entities := extractEntities("The Nordic Compound beats regular rubber. Try Stud Free Tyres today.")
	assert.Contains(t, entities, "Nordic Compound")
	assert.Contains(t, entities, "Try Stud Free Tyres")
	assert.NotContains(t, entities, "The")
}
