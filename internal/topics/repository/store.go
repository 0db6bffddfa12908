package repository

import (
	"context"

	"github.com/cognigraph/cognigraph-backend/internal/topics/domain"
)

// Store persists topics keyed by their unique name.
//
// Implementations enforce topicName uniqueness themselves and return
// domain.ErrTopicExists on conflict and domain.ErrTopicNotFound when a
// name does not match. Related ids are stored as given; none of the
// implementations check that they resolve, and deleting a topic never
// rewrites other topics' relatedTopics.
type Store interface {
	ListAll(ctx context.Context) ([]domain.Topic, error)
	Create(ctx context.Context, in domain.CreateTopic) (*domain.Topic, error)
	UpdateByName(ctx context.Context, topicName string, in domain.UpdateTopic) (*domain.Topic, error)
	DeleteByName(ctx context.Context, topicName string) error
	ListAllExpanded(ctx context.Context) ([]domain.ExpandedTopic, error)
	GetRelated(ctx context.Context, topicName string) ([]domain.Topic, error)
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
