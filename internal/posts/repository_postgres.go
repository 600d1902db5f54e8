package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var _ Repository = (*postgresRepository)(nil)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

// EnsureSchema creates the posts and users tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL,
			email TEXT NOT NULL,
			api_token TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL,
			location TEXT NOT NULL,
			image TEXT NOT NULL,
			image_key TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts (created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (r *postgresRepository) Create(ctx context.Context, post *Post) (*Post, error) {
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO posts (id, owner_id, title, type, description, category, location, image, image_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		post.ID, post.OwnerID, post.Title, post.Type, post.Description,
		post.Category, post.Location, post.Image, post.ImageKey,
	)
	if err := row.Scan(&post.CreatedAt, &post.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return post, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	var p Post
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, type, description, category, location, image, image_key, created_at, updated_at
		FROM posts WHERE id = $1`, id)
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Type, &p.Description,
		&p.Category, &p.Location, &p.Image, &p.ImageKey, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select post: %w", err)
	}
	return &p, nil
}

func (r *postgresRepository) List(ctx context.Context, filter Filter) ([]*Post, error) {
	where, args := filter.Normalize().SQL()
	query := fmt.Sprintf(`
		SELECT p.id, p.owner_id, p.title, p.type, p.description, p.category, p.location,
		       p.image, p.image_key, p.created_at, p.updated_at, u.username, u.email
		FROM posts p
		JOIN users u ON u.id = p.owner_id
		%s
		ORDER BY p.created_at DESC`, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	result := []*Post{}
	for rows.Next() {
		var p Post
		var owner Owner
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Type, &p.Description,
			&p.Category, &p.Location, &p.Image, &p.ImageKey,
			&p.CreatedAt, &p.UpdatedAt, &owner.Username, &owner.Email); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.Owner = &owner
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return result, nil
}

func (r *postgresRepository) Update(ctx context.Context, post *Post) (*Post, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE posts
		SET title = $2, type = $3, description = $4, category = $5,
		    location = $6, image = $7, image_key = $8, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		post.ID, post.Title, post.Type, post.Description, post.Category,
		post.Location, post.Image, post.ImageKey,
	)
	err := row.Scan(&post.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return post, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
