package types

import "time"

// Post represents a blog post owned by a single author.
type Post struct {
	// ID is the unique identifier of the post.
	ID int `json:"id" db:"id"`

	// Title is the post headline. Unique across all posts.
	Title string `json:"title" db:"title"`

	// Description contains the full post body.
	Description string `json:"description" db:"description"`

	// Excerpt is an optional short summary shown in listings.
	Excerpt string `json:"excerpt" db:"excerpt"`

	// CategoryID references the category the post belongs to.
	// Zero means uncategorized. A deleted category may leave this
	// dangling; readers must tolerate unresolvable references.
	CategoryID int `json:"category_id" db:"category_id"`

	// TagIDs references the tags attached to the post, in the order
	// they were submitted.
	TagIDs []int `json:"tag_ids" db:"tag_ids"`

	// UserID is the id of the owning author. Only the owner may
	// update or delete the post.
	UserID int `json:"user_id" db:"user_id"`

	// IsActive marks whether the post is live or archived.
	IsActive bool `json:"is_active" db:"is_active"`

	// IsPublic marks whether the post is visible to unauthenticated
	// readers.
	IsPublic bool `json:"is_public" db:"is_public"`

	// FeaturedImage is the object storage key of the post's featured
	// image, empty when none was uploaded.
	FeaturedImage string `json:"featured_image" db:"featured_image"`

	// CreatedAt is the timestamp at which the post was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the post.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
