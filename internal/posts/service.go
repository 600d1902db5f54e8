package posts

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/reuniteapp/lostfound/internal/events"
	"github.com/reuniteapp/lostfound/internal/storage"
)

type Service struct {
	repo      Repository
	store     storage.Storage
	publisher events.Publisher
	logger    *slog.Logger

	bucket        string
	region        string
	publicBaseURL string
}

func NewService(repo Repository, store storage.Storage, publisher events.Publisher, logger *slog.Logger, bucket, region, publicBaseURL string) *Service {
	return &Service{
		repo:          repo,
		store:         store,
		publisher:     publisher,
		logger:        logger,
		bucket:        bucket,
		region:        region,
		publicBaseURL: publicBaseURL,
	}
}

// CreatePost validates the input, uploads the staged image, and persists the
// post. The image is stored before the post row is written; a failed upload
// leaves no post behind.
func (s *Service) CreatePost(ctx context.Context, ownerID uuid.UUID, in CreateInput, img *ImageUpload) (*Post, error) {
	if in.Title == "" || in.Type == "" || in.Description == "" || in.Category == "" || in.Location == "" {
		return nil, ErrMissingFields
	}
	if !ValidType(in.Type) {
		return nil, ErrInvalidType
	}
	if img == nil || img.Body == nil {
		return nil, ErrMissingImage
	}

	key := "posts/" + uuid.New().String() + strings.ToLower(filepath.Ext(img.Filename))
	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.store.Upload(ctx, key, img.Body, contentType); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageUpload, err)
	}
	url := s.imageURL(key)
	if url == "" {
		return nil, ErrImageUpload
	}

	post := &Post{
		OwnerID:     ownerID,
		Title:       in.Title,
		Type:        Type(strings.ToLower(in.Type)),
		Description: in.Description,
		Category:    in.Category,
		Location:    in.Location,
		Image:       url,
		ImageKey:    key,
	}
	stored, err := s.repo.Create(ctx, post)
	if err != nil {
		return nil, err
	}

	if err := s.publisher.PublishPostCreated(ctx, events.NewPostCreated(stored.ID, string(stored.Type), stored.Category, stored.Location, stored.Title)); err != nil {
		s.logger.Warn("publish post.created failed", "post_id", stored.ID, "error", err)
	}
	return stored, nil
}

// ListPosts returns posts matching the filter, newest first, each with its
// owner's public profile attached. No caller identity is required.
func (s *Service) ListPosts(ctx context.Context, filter Filter) ([]*Post, error) {
	return s.repo.List(ctx, filter)
}

// UpdatePost applies a partial update to a post owned by the caller. Empty
// input fields keep their stored values.
func (s *Service) UpdatePost(ctx context.Context, callerID, postID uuid.UUID, in UpdateInput) (*Post, error) {
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != callerID {
		return nil, ErrForbidden
	}
	if in.Type != "" && !ValidType(in.Type) {
		return nil, ErrInvalidType
	}

	if in.Title != "" {
		post.Title = in.Title
	}
	if in.Type != "" {
		post.Type = Type(strings.ToLower(in.Type))
	}
	if in.Description != "" {
		post.Description = in.Description
	}
	if in.Category != "" {
		post.Category = in.Category
	}
	if in.Location != "" {
		post.Location = in.Location
	}
	if in.Image != "" {
		// URL set directly, so the old object key no longer describes it.
		post.Image = in.Image
		post.ImageKey = ""
	}

	return s.repo.Update(ctx, post)
}

// DeletePost permanently removes a post owned by the caller. The stored image
// object is cleaned up best-effort after the row is gone.
func (s *Service) DeletePost(ctx context.Context, callerID, postID uuid.UUID) error {
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.OwnerID != callerID {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, postID); err != nil {
		return err
	}

	if post.ImageKey != "" {
		if err := s.store.Delete(ctx, post.ImageKey); err != nil {
			s.logger.Warn("delete image object failed", "key", post.ImageKey, "error", err)
		}
	}
	if err := s.publisher.PublishPostDeleted(ctx, events.NewPostDeleted(post.ID)); err != nil {
		s.logger.Warn("publish post.deleted failed", "post_id", post.ID, "error", err)
	}
	return nil
}

func (s *Service) imageURL(key string) string {
	if s.publicBaseURL != "" {
		return strings.TrimSuffix(s.publicBaseURL, "/") + "/" + key
	}
	if s.bucket == "" || s.region == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
