package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var _ Resolver = (*postgresResolver)(nil)

type postgresResolver struct {
	db *sql.DB
}

func NewPostgresResolver(db *sql.DB) Resolver {
	return &postgresResolver{db: db}
}

func (r *postgresResolver) ResolveToken(ctx context.Context, token string) (*User, error) {
	var u User
	row := r.db.QueryRowContext(ctx,
		`SELECT id, username, email FROM users WHERE api_token = $1`, token)
	err := row.Scan(&u.ID, &u.Username, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownToken
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	return &u, nil
}
