package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypePostCreated = "post.created"
	TypePostDeleted = "post.deleted"
)

type PostCreatedPayload struct {
	PostID   uuid.UUID `json:"post_id"`
	Type     string    `json:"type"`
	Category string    `json:"category"`
	Location string    `json:"location"`
	Title    string    `json:"title"`
}

type PostCreated struct {
	Type      string             `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	Payload   PostCreatedPayload `json:"payload"`
}

func NewPostCreated(postID uuid.UUID, postType, category, location, title string) PostCreated {
	return PostCreated{
		Type:      TypePostCreated,
		Timestamp: time.Now().UTC(),
		Payload: PostCreatedPayload{
			PostID:   postID,
			Type:     postType,
			Category: category,
			Location: location,
			Title:    title,
		},
	}
}

type PostDeletedPayload struct {
	PostID uuid.UUID `json:"post_id"`
}

type PostDeleted struct {
	Type      string             `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	Payload   PostDeletedPayload `json:"payload"`
}

func NewPostDeleted(postID uuid.UUID) PostDeleted {
	return PostDeleted{
		Type:      TypePostDeleted,
		Timestamp: time.Now().UTC(),
		Payload:   PostDeletedPayload{PostID: postID},
	}
}
