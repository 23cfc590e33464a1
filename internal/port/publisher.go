package port

import (
	"context"

	"github.com/callumgare/media-finder-cli/internal/domain"
)

type QueryPublisher interface {
	PublishQueryCompleted(ctx context.Context, event domain.QueryCompleted) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishQueryCompleted(context.Context, domain.QueryCompleted) error { return nil }
