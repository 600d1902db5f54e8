package posts

import (
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	Lost  Type = "lost"
	Found Type = "found"
)

// ValidType reports whether s is one of the two post types, ignoring case.
func ValidType(s string) bool {
	t := Type(strings.ToLower(s))
	return t == Lost || t == Found
}

// Owner is the public projection of the user that created a post.
type Owner struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Post struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Title       string    `json:"title"`
	Type        Type      `json:"type"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	Image       string    `json:"image"`
	ImageKey    string    `json:"-"`
	Owner       *Owner    `json:"owner,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateInput carries the text fields of a create request. All are required.
type CreateInput struct {
	Title       string
	Type        string
	Description string
	Category    string
	Location    string
}

// UpdateInput carries the fields of an update request. Empty fields keep the
// stored value.
type UpdateInput struct {
	Title       string
	Type        string
	Description string
	Category    string
	Location    string
	Image       string
}

// ImageUpload is a staged file waiting to be pushed to the image store.
type ImageUpload struct {
	Body        io.Reader
	Filename    string
	ContentType string
}
