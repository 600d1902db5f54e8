package posts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/reuniteapp/lostfound/internal/events"
)

type mockRepo struct {
	create  func(ctx context.Context, post *Post) (*Post, error)
	getByID func(ctx context.Context, id uuid.UUID) (*Post, error)
	list    func(ctx context.Context, filter Filter) ([]*Post, error)
	update  func(ctx context.Context, post *Post) (*Post, error)
	delete  func(ctx context.Context, id uuid.UUID) error
}

func (m *mockRepo) Create(ctx context.Context, post *Post) (*Post, error) {
	if m.create != nil {
		return m.create(ctx, post)
	}
	return post, nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	if m.getByID != nil {
		return m.getByID(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *mockRepo) List(ctx context.Context, filter Filter) ([]*Post, error) {
	if m.list != nil {
		return m.list(ctx, filter)
	}
	return nil, nil
}

func (m *mockRepo) Update(ctx context.Context, post *Post) (*Post, error) {
	if m.update != nil {
		return m.update(ctx, post)
	}
	return post, nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.delete != nil {
		return m.delete(ctx, id)
	}
	return nil
}

type mockStorage struct {
	upload func(ctx context.Context, key string, body io.Reader, contentType string) error
	delete func(ctx context.Context, key string) error
	exists func(ctx context.Context, key string) (bool, error)
}

func (m *mockStorage) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	if m.upload != nil {
		return m.upload(ctx, key, body, contentType)
	}
	return nil
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	if m.delete != nil {
		return m.delete(ctx, key)
	}
	return nil
}

func (m *mockStorage) Exists(ctx context.Context, key string) (bool, error) {
	if m.exists != nil {
		return m.exists(ctx, key)
	}
	return false, nil
}

type mockPublisher struct {
	created func(ctx context.Context, e events.PostCreated) error
	deleted func(ctx context.Context, e events.PostDeleted) error
}

func (m *mockPublisher) PublishPostCreated(ctx context.Context, e events.PostCreated) error {
	if m.created != nil {
		return m.created(ctx, e)
	}
	return nil
}

func (m *mockPublisher) PublishPostDeleted(ctx context.Context, e events.PostDeleted) error {
	if m.deleted != nil {
		return m.deleted(ctx, e)
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo Repository, st *mockStorage, pub *mockPublisher) *Service {
	if st == nil {
		st = &mockStorage{}
	}
	if pub == nil {
		pub = &mockPublisher{}
	}
	return NewService(repo, st, pub, testLogger(), "b", "us-east-1", "")
}

func validInput() CreateInput {
	return CreateInput{
		Title:       "Lost Wallet",
		Type:        "LOST",
		Description: "black leather",
		Category:    "wallet",
		Location:    "Central Park",
	}
}

func testUpload(content string) *ImageUpload {
	return &ImageUpload{
		Body:        strings.NewReader(content),
		Filename:    "wallet.JPG",
		ContentType: "image/jpeg",
	}
}

func TestService_CreatePost(t *testing.T) {
	ownerID := uuid.New()

	t.Run("success normalizes type and stores image first", func(t *testing.T) {
		ctx := context.Background()
		var uploadedKey string
		var uploadedBody []byte
		st := &mockStorage{
			upload: func(ctx context.Context, key string, body io.Reader, contentType string) error {
				uploadedKey = key
				var err error
				uploadedBody, err = io.ReadAll(body)
				if err != nil {
					return err
				}
				if contentType != "image/jpeg" {
					t.Errorf("Upload contentType = %q", contentType)
				}
				return nil
			},
		}
		repo := &mockRepo{
			create: func(ctx context.Context, post *Post) (*Post, error) {
				if uploadedKey == "" {
					t.Error("post persisted before image upload")
				}
				post.ID = uuid.New()
				post.CreatedAt = time.Now().UTC()
				return post, nil
			},
		}
		var published *events.PostCreated
		pub := &mockPublisher{created: func(ctx context.Context, e events.PostCreated) error {
			published = &e
			return nil
		}}

		svc := newTestService(repo, st, pub)
		got, err := svc.CreatePost(ctx, ownerID, validInput(), testUpload("img-bytes"))
		if err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
		if got.Type != Lost {
			t.Errorf("type = %q, want lost", got.Type)
		}
		if got.OwnerID != ownerID {
			t.Errorf("ownerId = %v", got.OwnerID)
		}
		if got.Title != "Lost Wallet" || got.Location != "Central Park" {
			t.Errorf("got %+v", got)
		}
		if !strings.HasPrefix(uploadedKey, "posts/") || !strings.HasSuffix(uploadedKey, ".jpg") {
			t.Errorf("upload key = %q", uploadedKey)
		}
		if !bytes.Equal(uploadedBody, []byte("img-bytes")) {
			t.Errorf("upload body = %q", uploadedBody)
		}
		wantURL := "https://b.s3.us-east-1.amazonaws.com/" + uploadedKey
		if got.Image != wantURL {
			t.Errorf("image = %q, want %q", got.Image, wantURL)
		}
		if published == nil {
			t.Fatal("expected post.created event")
		}
		if published.Payload.PostID != got.ID || published.Payload.Type != "lost" {
			t.Errorf("event payload %+v", published.Payload)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		cases := map[string]func(*CreateInput){
			"title":       func(in *CreateInput) { in.Title = "" },
			"type":        func(in *CreateInput) { in.Type = "" },
			"description": func(in *CreateInput) { in.Description = "" },
			"category":    func(in *CreateInput) { in.Category = "" },
			"location":    func(in *CreateInput) { in.Location = "" },
		}
		for name, clear := range cases {
			t.Run(name, func(t *testing.T) {
				created := false
				repo := &mockRepo{create: func(ctx context.Context, post *Post) (*Post, error) {
					created = true
					return post, nil
				}}
				svc := newTestService(repo, nil, nil)
				in := validInput()
				clear(&in)
				_, err := svc.CreatePost(context.Background(), ownerID, in, testUpload("x"))
				if !errors.Is(err, ErrMissingFields) {
					t.Errorf("got err %v", err)
				}
				if created {
					t.Error("post was persisted")
				}
			})
		}
	})

	t.Run("invalid type", func(t *testing.T) {
		created := false
		repo := &mockRepo{create: func(ctx context.Context, post *Post) (*Post, error) {
			created = true
			return post, nil
		}}
		svc := newTestService(repo, nil, nil)
		in := validInput()
		in.Type = "stolen"
		_, err := svc.CreatePost(context.Background(), ownerID, in, testUpload("x"))
		if !errors.Is(err, ErrInvalidType) {
			t.Errorf("got err %v", err)
		}
		if created {
			t.Error("post was persisted")
		}
	})

	t.Run("missing image", func(t *testing.T) {
		created := false
		repo := &mockRepo{create: func(ctx context.Context, post *Post) (*Post, error) {
			created = true
			return post, nil
		}}
		svc := newTestService(repo, nil, nil)
		_, err := svc.CreatePost(context.Background(), ownerID, validInput(), nil)
		if !errors.Is(err, ErrMissingImage) {
			t.Errorf("got err %v", err)
		}
		if created {
			t.Error("post was persisted")
		}
	})

	t.Run("missing fields wins over missing image", func(t *testing.T) {
		svc := newTestService(&mockRepo{}, nil, nil)
		in := validInput()
		in.Title = ""
		_, err := svc.CreatePost(context.Background(), ownerID, in, nil)
		if !errors.Is(err, ErrMissingFields) {
			t.Errorf("got err %v", err)
		}
	})

	t.Run("upload fails, nothing persisted", func(t *testing.T) {
		created := false
		repo := &mockRepo{create: func(ctx context.Context, post *Post) (*Post, error) {
			created = true
			return post, nil
		}}
		st := &mockStorage{upload: func(context.Context, string, io.Reader, string) error {
			return errors.New("s3 down")
		}}
		svc := newTestService(repo, st, nil)
		_, err := svc.CreatePost(context.Background(), ownerID, validInput(), testUpload("x"))
		if !errors.Is(err, ErrImageUpload) {
			t.Errorf("got err %v", err)
		}
		if created {
			t.Error("post was persisted")
		}
	})

	t.Run("no derivable url fails upload", func(t *testing.T) {
		created := false
		repo := &mockRepo{create: func(ctx context.Context, post *Post) (*Post, error) {
			created = true
			return post, nil
		}}
		svc := NewService(repo, &mockStorage{}, &mockPublisher{}, testLogger(), "", "", "")
		_, err := svc.CreatePost(context.Background(), ownerID, validInput(), testUpload("x"))
		if !errors.Is(err, ErrImageUpload) {
			t.Errorf("got err %v", err)
		}
		if created {
			t.Error("post was persisted")
		}
	})

	t.Run("repo error propagates", func(t *testing.T) {
		repo := &mockRepo{create: func(context.Context, *Post) (*Post, error) {
			return nil, errors.New("db down")
		}}
		svc := newTestService(repo, nil, nil)
		_, err := svc.CreatePost(context.Background(), ownerID, validInput(), testUpload("x"))
		if err == nil || !strings.Contains(err.Error(), "db down") {
			t.Errorf("got err %v", err)
		}
	})

	t.Run("publish failure does not fail create", func(t *testing.T) {
		repo := &mockRepo{create: func(ctx context.Context, post *Post) (*Post, error) {
			post.ID = uuid.New()
			return post, nil
		}}
		pub := &mockPublisher{created: func(context.Context, events.PostCreated) error {
			return errors.New("broker down")
		}}
		svc := newTestService(repo, nil, pub)
		got, err := svc.CreatePost(context.Background(), ownerID, validInput(), testUpload("x"))
		if err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
		if got == nil {
			t.Fatal("expected post")
		}
	})
}

func TestService_ListPosts(t *testing.T) {
	t.Run("filter passed through", func(t *testing.T) {
		want := []*Post{{ID: uuid.New(), Location: "Central Park", Owner: &Owner{Username: "ana", Email: "ana@example.com"}}}
		var gotFilter Filter
		repo := &mockRepo{list: func(ctx context.Context, filter Filter) ([]*Post, error) {
			gotFilter = filter
			return want, nil
		}}
		svc := newTestService(repo, nil, nil)
		got, err := svc.ListPosts(context.Background(), Filter{Type: "lost", Location: "park"})
		if err != nil {
			t.Fatalf("ListPosts: %v", err)
		}
		if len(got) != 1 || got[0].Owner == nil || got[0].Owner.Username != "ana" {
			t.Errorf("got %+v", got)
		}
		if gotFilter.Type != "lost" || gotFilter.Location != "park" || gotFilter.Category != "" {
			t.Errorf("filter = %+v", gotFilter)
		}
	})

	t.Run("repo error propagates", func(t *testing.T) {
		repo := &mockRepo{list: func(context.Context, Filter) ([]*Post, error) {
			return nil, errors.New("db down")
		}}
		svc := newTestService(repo, nil, nil)
		if _, err := svc.ListPosts(context.Background(), Filter{}); err == nil {
			t.Error("expected error")
		}
	})
}

func existingPost(owner uuid.UUID) *Post {
	return &Post{
		ID:          uuid.New(),
		OwnerID:     owner,
		Title:       "Lost Wallet",
		Type:        Lost,
		Description: "black leather",
		Category:    "wallet",
		Location:    "Central Park",
		Image:       "https://b.s3.us-east-1.amazonaws.com/posts/a.jpg",
		ImageKey:    "posts/a.jpg",
	}
}

func TestService_UpdatePost(t *testing.T) {
	owner := uuid.New()

	t.Run("not found", func(t *testing.T) {
		svc := newTestService(&mockRepo{}, nil, nil)
		_, err := svc.UpdatePost(context.Background(), owner, uuid.New(), UpdateInput{Title: "X"})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("got err %v", err)
		}
	})

	t.Run("forbidden for non-owner, nothing mutated", func(t *testing.T) {
		stored := existingPost(owner)
		updated := false
		repo := &mockRepo{
			getByID: func(context.Context, uuid.UUID) (*Post, error) { return stored, nil },
			update: func(ctx context.Context, post *Post) (*Post, error) {
				updated = true
				return post, nil
			},
		}
		svc := newTestService(repo, nil, nil)
		_, err := svc.UpdatePost(context.Background(), uuid.New(), stored.ID, UpdateInput{Location: "Times Square"})
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("got err %v", err)
		}
		if updated {
			t.Error("update was persisted")
		}
		if stored.Location != "Central Park" {
			t.Errorf("location mutated to %q", stored.Location)
		}
	})

	t.Run("invalid type rejected before mutation", func(t *testing.T) {
		stored := existingPost(owner)
		updated := false
		repo := &mockRepo{
			getByID: func(context.Context, uuid.UUID) (*Post, error) { return stored, nil },
			update: func(ctx context.Context, post *Post) (*Post, error) {
				updated = true
				return post, nil
			},
		}
		svc := newTestService(repo, nil, nil)
		_, err := svc.UpdatePost(context.Background(), owner, stored.ID, UpdateInput{Type: "misplaced"})
		if !errors.Is(err, ErrInvalidType) {
			t.Errorf("got err %v", err)
		}
		if updated {
			t.Error("update was persisted")
		}
	})

	t.Run("partial update preserves untouched fields", func(t *testing.T) {
		stored := existingPost(owner)
		repo := &mockRepo{
			getByID: func(context.Context, uuid.UUID) (*Post, error) { return stored, nil },
			update: func(ctx context.Context, post *Post) (*Post, error) {
				if post.Title != "Lost Wallet" || post.Type != Lost || post.Description != "black leather" ||
					post.Category != "wallet" || post.Image != stored.Image {
					t.Errorf("untouched fields changed: %+v", post)
				}
				if post.Location != "Times Square" {
					t.Errorf("location = %q", post.Location)
				}
				return post, nil
			},
		}
		svc := newTestService(repo, nil, nil)
		got, err := svc.UpdatePost(context.Background(), owner, stored.ID, UpdateInput{Location: "Times Square"})
		if err != nil {
			t.Fatalf("UpdatePost: %v", err)
		}
		if got.Location != "Times Square" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("type normalized to lowercase", func(t *testing.T) {
		stored := existingPost(owner)
		repo := &mockRepo{
			getByID: func(context.Context, uuid.UUID) (*Post, error) { return stored, nil },
		}
		svc := newTestService(repo, nil, nil)
		got, err := svc.UpdatePost(context.Background(), owner, stored.ID, UpdateInput{Type: "FOUND"})
		if err != nil {
			t.Fatalf("UpdatePost: %v", err)
		}
		if got.Type != Found {
			t.Errorf("type = %q", got.Type)
		}
	})

	t.Run("direct image url clears object key", func(t *testing.T) {
		stored := existingPost(owner)
		repo := &mockRepo{
			getByID: func(context.Context, uuid.UUID) (*Post, error) { return stored, nil },
		}
		svc := newTestService(repo, nil, nil)
		got, err := svc.UpdatePost(context.Background(), owner, stored.ID, UpdateInput{Image: "https://cdn.example.com/other.jpg"})
		if err != nil {
			t.Fatalf("UpdatePost: %v", err)
		}
		if got.Image != "https://cdn.example.com/other.jpg" {
			t.Errorf("image = %q", got.Image)
		}
		if got.ImageKey != "" {
			t.Errorf("image key = %q, want cleared", got.ImageKey)
		}
	})
}

func TestService_DeletePost(t *testing.T) {
	owner := uuid.New()

	t.Run("not found", func(t *testing.T) {
		svc := newTestService(&mockRepo{}, nil, nil)
		err := svc.DeletePost(context.Background(), owner, uuid.New())
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("got err %v", err)
		}
	})

	t.Run("forbidden for non-owner, nothing deleted", func(t *testing.T) {
		stored := existingPost(owner)
		deleted := false
		repo := &mockRepo{
			getByID: func(context.Context, uuid.UUID) (*Post, error) { return stored, nil },
			delete: func(context.Context, uuid.UUID) error {
				deleted = true
				return nil
			},
		}
		svc := newTestService(repo, nil, nil)
		err := svc.DeletePost(context.Background(), uuid.New(), stored.ID)
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("got err %v", err)
		}
		if deleted {
			t.Error("post was deleted")
		}
	})

	t.Run("success removes row, image object and publishes", func(t *testing.T) {
		stored := existingPost(owner)
		var deletedID uuid.UUID
		var deletedKey string
		var published *events.PostDeleted
		repo := &mockRepo{
			getByID: func(context.Context, uuid.UUID) (*Post, error) { return stored, nil },
			delete: func(ctx context.Context, id uuid.UUID) error {
				deletedID = id
				return nil
			},
		}
		st := &mockStorage{delete: func(ctx context.Context, key string) error {
			deletedKey = key
			return nil
		}}
		pub := &mockPublisher{deleted: func(ctx context.Context, e events.PostDeleted) error {
			published = &e
			return nil
		}}
		svc := newTestService(repo, st, pub)
		if err := svc.DeletePost(context.Background(), owner, stored.ID); err != nil {
			t.Fatalf("DeletePost: %v", err)
		}
		if deletedID != stored.ID {
			t.Errorf("deleted id = %v", deletedID)
		}
		if deletedKey != "posts/a.jpg" {
			t.Errorf("deleted key = %q", deletedKey)
		}
		if published == nil || published.Payload.PostID != stored.ID {
			t.Errorf("event = %+v", published)
		}
	})

	t.Run("image cleanup failure is not fatal", func(t *testing.T) {
		stored := existingPost(owner)
		repo := &mockRepo{
			getByID: func(context.Context, uuid.UUID) (*Post, error) { return stored, nil },
		}
		st := &mockStorage{delete: func(context.Context, string) error {
			return errors.New("s3 down")
		}}
		svc := newTestService(repo, st, nil)
		if err := svc.DeletePost(context.Background(), owner, stored.ID); err != nil {
			t.Fatalf("DeletePost: %v", err)
		}
	})
}

func TestService_imageURL(t *testing.T) {
	svc := NewService(&mockRepo{}, &mockStorage{}, &mockPublisher{}, testLogger(), "mybucket", "us-east-1", "")
	u := svc.imageURL("posts/a.jpg")
	if u != "https://mybucket.s3.us-east-1.amazonaws.com/posts/a.jpg" {
		t.Errorf("got %q", u)
	}
	svc2 := NewService(&mockRepo{}, &mockStorage{}, &mockPublisher{}, testLogger(), "b", "r", "https://cdn.example.com/")
	u2 := svc2.imageURL("posts/a.jpg")
	if u2 != "https://cdn.example.com/posts/a.jpg" {
		t.Errorf("got %q", u2)
	}
}
