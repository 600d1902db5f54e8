package events

import "context"

type NoopPublisher struct{}

func (NoopPublisher) PublishPostCreated(context.Context, PostCreated) error {
	return nil
}

func (NoopPublisher) PublishPostDeleted(context.Context, PostDeleted) error {
	return nil
}

var _ Publisher = (*NoopPublisher)(nil)
