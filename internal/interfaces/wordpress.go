package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/scribo/internal/models"
)

// ErrPostNotFound is returned by ResolvePost when no post matches the target
// URL. Resolution misses are non-fatal; the job proceeds on the create path.
var ErrPostNotFound = errors.New("post not found")

// PostAssets is the resolved remote post with the metadata the optimizer
// snapshots before regeneration.
type PostAssets struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	ContentHTML     string `json:"content_html"`
	Slug            string `json:"slug"`
	CanonicalLink   string `json:"canonical_link"`
	Categories      []int  `json:"categories"`
	Tags            []int  `json:"tags"`
	FeaturedMediaID int    `json:"featured_media_id"`
}

// PostPayload is the publish payload for create and update paths
type PostPayload struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	ContentHTML string `json:"content_html"`
	Excerpt     string `json:"excerpt"`
	Status      string `json:"status"` // "publish" or "draft"
}

// PublishOutcome is the result of a successful create or update call
type PublishOutcome struct {
	ID            int    `json:"id"`
	CanonicalLink string `json:"canonical_link"`
}

// SEOMetadata is the best-effort post-publish metadata update
type SEOMetadata struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	FocusKeyword string `json:"focus_keyword"`
}

// WordPressClient is the remote content-store collaborator
type WordPressClient interface {
	// ResolvePost finds an existing post for the target URL.
	// Returns ErrPostNotFound when no post matches (non-fatal upstream).
	ResolvePost(ctx context.Context, targetURL string) (int, error)

	// GetPostWithAssets fetches the post body and the preservable metadata
	GetPostWithAssets(ctx context.Context, postID int) (*PostAssets, error)

	// CreatePost publishes a new post with a generated slug
	CreatePost(ctx context.Context, payload *PostPayload) (*PublishOutcome, error)

	// UpdatePost rewrites an existing post, selectively reapplying preserved
	// fields according to the flags. Preserved values that are empty are
	// never reapplied regardless of flags.
	UpdatePost(ctx context.Context, postID int, payload *PostPayload, preserved *models.PreservationRecord, flags models.PreservationFlags) (*PublishOutcome, error)

	// UpdateSEOMetadata pushes SEO plugin metadata; best-effort upstream
	UpdateSEOMetadata(ctx context.Context, postID int, meta *SEOMetadata) error
}
