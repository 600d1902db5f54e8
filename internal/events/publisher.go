package events

import "context"

type Publisher interface {
	PublishPostCreated(ctx context.Context, e PostCreated) error
	PublishPostDeleted(ctx context.Context, e PostDeleted) error
}
