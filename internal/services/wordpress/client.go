package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
	"golang.org/x/oauth2"
)

// Client talks to the WordPress REST API (wp/v2). Authentication is either
// an application password (basic auth) or an OAuth bearer token.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     arbor.ILogger
}

// NewClient creates a WordPress REST client from the configuration
func NewClient(cfg *common.Config, logger arbor.ILogger) *Client {
	timeout := common.ParseDurationOr(cfg.WordPress.Timeout, 30*time.Second)

	httpClient := &http.Client{Timeout: timeout}
	if cfg.WordPress.OAuthToken != "" {
		source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.WordPress.OAuthToken})
		httpClient = oauth2.NewClient(context.Background(), source)
		httpClient.Timeout = timeout
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.WordPress.SiteURL, "/"),
		username:   cfg.WordPress.Username,
		password:   cfg.WordPress.AppPassword,
		httpClient: httpClient,
		logger:     logger,
	}
}

// wpPost is the wire shape of a wp/v2 post
type wpPost struct {
	ID      int    `json:"id"`
	Link    string `json:"link"`
	Slug    string `json:"slug"`
	Status  string `json:"status"`
	Title   struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
	Content struct {
		Rendered string `json:"rendered"`
	} `json:"content"`
	Categories    []int `json:"categories"`
	Tags          []int `json:"tags"`
	FeaturedMedia int   `json:"featured_media"`
}

// ResolvePost finds the post matching the target URL by its slug.
// Returns ErrPostNotFound when no published post matches.
func (c *Client) ResolvePost(ctx context.Context, targetURL string) (int, error) {
	slug := slugFromURL(targetURL)
	if slug == "" {
		return 0, interfaces.ErrPostNotFound
	}

	var posts []wpPost
	path := fmt.Sprintf("/wp-json/wp/v2/posts?slug=%s&status=publish,draft", url.QueryEscape(slug))
	if err := c.getJSON(ctx, path, &posts); err != nil {
		return 0, err
	}
	if len(posts) == 0 {
		// Pages share the slug namespace with posts on many sites
		if err := c.getJSON(ctx, fmt.Sprintf("/wp-json/wp/v2/pages?slug=%s", url.QueryEscape(slug)), &posts); err != nil {
			return 0, err
		}
	}
	if len(posts) == 0 {
		return 0, interfaces.ErrPostNotFound
	}

	c.logger.Debug().
		Str("target_url", targetURL).
		Int("post_id", posts[0].ID).
		Msg("Resolved post by slug")
	return posts[0].ID, nil
}

// GetPostWithAssets fetches the post body and its preservable metadata
func (c *Client) GetPostWithAssets(ctx context.Context, postID int) (*interfaces.PostAssets, error) {
	var post wpPost
	if err := c.getJSON(ctx, fmt.Sprintf("/wp-json/wp/v2/posts/%d?context=edit", postID), &post); err != nil {
		return nil, err
	}

	return &interfaces.PostAssets{
		ID:              post.ID,
		Title:           post.Title.Rendered,
		ContentHTML:     post.Content.Rendered,
		Slug:            post.Slug,
		CanonicalLink:   post.Link,
		Categories:      post.Categories,
		Tags:            post.Tags,
		FeaturedMediaID: post.FeaturedMedia,
	}, nil
}

// CreatePost publishes a new post
func (c *Client) CreatePost(ctx context.Context, payload *interfaces.PostPayload) (*interfaces.PublishOutcome, error) {
	body := map[string]interface{}{
		"title":   payload.Title,
		"slug":    payload.Slug,
		"content": payload.ContentHTML,
		"excerpt": payload.Excerpt,
		"status":  payload.Status,
	}

	var post wpPost
	if err := c.sendJSON(ctx, http.MethodPost, "/wp-json/wp/v2/posts", body, &post); err != nil {
		return nil, err
	}

	c.logger.Info().Int("post_id", post.ID).Str("slug", post.Slug).Msg("Post created")
	return &interfaces.PublishOutcome{ID: post.ID, CanonicalLink: post.Link}, nil
}

// UpdatePost rewrites an existing post, selectively reapplying preserved
// metadata. Empty preserved values are never reapplied regardless of flags:
// restoring an empty slug or category set would destroy data, not preserve it.
func (c *Client) UpdatePost(ctx context.Context, postID int, payload *interfaces.PostPayload, preserved *models.PreservationRecord, flags models.PreservationFlags) (*interfaces.PublishOutcome, error) {
	body := map[string]interface{}{
		"title":   payload.Title,
		"content": payload.ContentHTML,
		"excerpt": payload.Excerpt,
		"status":  payload.Status,
	}

	if preserved != nil && preserved.OriginalSlug != "" {
		body["slug"] = preserved.OriginalSlug
	} else if payload.Slug != "" {
		body["slug"] = payload.Slug
	}
	if preserved != nil {
		if flags.Categories && len(preserved.Categories) > 0 {
			body["categories"] = preserved.Categories
		}
		if flags.Tags && len(preserved.Tags) > 0 {
			body["tags"] = preserved.Tags
		}
		if flags.Media && preserved.FeaturedMediaID != 0 {
			body["featured_media"] = preserved.FeaturedMediaID
		}
	}

	var post wpPost
	if err := c.sendJSON(ctx, http.MethodPost, fmt.Sprintf("/wp-json/wp/v2/posts/%d", postID), body, &post); err != nil {
		return nil, err
	}

	c.logger.Info().Int("post_id", post.ID).Str("slug", post.Slug).Msg("Post updated")
	return &interfaces.PublishOutcome{ID: post.ID, CanonicalLink: post.Link}, nil
}

// UpdateSEOMetadata pushes SEO plugin meta fields. Plugins expose these as
// post meta under varying keys; both common conventions are written.
func (c *Client) UpdateSEOMetadata(ctx context.Context, postID int, meta *interfaces.SEOMetadata) error {
	body := map[string]interface{}{
		"meta": map[string]interface{}{
			"_yoast_wpseo_title":      meta.Title,
			"_yoast_wpseo_metadesc":   meta.Description,
			"_yoast_wpseo_focuskw":    meta.FocusKeyword,
			"rank_math_title":         meta.Title,
			"rank_math_description":   meta.Description,
			"rank_math_focus_keyword": meta.FocusKeyword,
		},
	}

	var post wpPost
	return c.sendJSON(ctx, http.MethodPost, fmt.Sprintf("/wp-json/wp/v2/posts/%d", postID), body, &post)
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, method, path, encoded, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return interfaces.ErrPostNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("wordpress returned %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// slugFromURL extracts the last non-empty path segment of the target URL
func slugFromURL(targetURL string) string {
	u, err := url.Parse(targetURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	slug := segments[len(segments)-1]
	return strings.TrimSuffix(slug, ".html")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
