// Package identity resolves bearer tokens to user records. Token issuance and
// signup live outside this service; the resolver only reads.
package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrUnknownToken = errors.New("unknown token")

type User struct {
	ID       uuid.UUID
	Username string
	Email    string
}

type Resolver interface {
	ResolveToken(ctx context.Context, token string) (*User, error)
}
