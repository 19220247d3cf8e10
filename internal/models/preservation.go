package models

// PreservationRecord is a snapshot of remote post metadata captured before
// regeneration. It is created once per job, only when a prior post is
// resolved, and is immutable afterward. Publish consumes it to selectively
// reapply fields according to the configured preservation flags.
type PreservationRecord struct {
	OriginalSlug    string `json:"original_slug"`
	CanonicalLink   string `json:"canonical_link"`
	Categories      []int  `json:"categories"`
	Tags            []int  `json:"tags"`
	FeaturedMediaID int    `json:"featured_media_id,omitempty"`
}

// PreservationFlags selects which preserved fields are reapplied at publish time
type PreservationFlags struct {
	Categories bool `json:"categories"`
	Tags       bool `json:"tags"`
	Media      bool `json:"media"`
}
