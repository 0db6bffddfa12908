package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cognigraph/cognigraph-backend/internal/topics/domain"
	"github.com/cognigraph/cognigraph-backend/internal/topics/repository"
)

// TopicService validates client input before handing it to the store.
type TopicService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewTopicService creates a new TopicService
func NewTopicService(store repository.Store, logger *zap.Logger) *TopicService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopicService{store: store, logger: logger}
}

// List returns every topic in creation order
func (s *TopicService) List(ctx context.Context) ([]domain.Topic, error) {
	return s.store.ListAll(ctx)
}

// Create stores a new topic with default progress and completion state.
// The name is kept verbatim so later path lookups match it exactly.
func (s *TopicService) Create(ctx context.Context, topicName string, relatedTopics []string) (*domain.Topic, error) {
	name := topicName
	if name == "" {
		return nil, domain.NewValidationError("topicName", "is required")
	}

	related, err := normalizeRelated(relatedTopics)
	if err != nil {
		return nil, err
	}

	t, err := s.store.Create(ctx, domain.CreateTopic{TopicName: name, RelatedTopics: related})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("topic created", zap.String("topic", t.TopicName), zap.Int("related", len(related)))
	return t, nil
}

// Update replaces progress, completion and related topics of the named
// topic. Fields the caller left out arrive here as zero values.
func (s *TopicService) Update(ctx context.Context, topicName string, progress float64, isCompleted bool, relatedTopics []string) (*domain.Topic, error) {
	related, err := normalizeRelated(relatedTopics)
	if err != nil {
		return nil, err
	}

	t, err := s.store.UpdateByName(ctx, topicName, domain.UpdateTopic{
		Progress:      progress,
		IsCompleted:   isCompleted,
		RelatedTopics: related,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("topic updated", zap.String("topic", topicName), zap.Float64("progress", progress))
	return t, nil
}

// Delete removes the named topic. References to it elsewhere stay.
func (s *TopicService) Delete(ctx context.Context, topicName string) error {
	if err := s.store.DeleteByName(ctx, topicName); err != nil {
		return err
	}
	s.logger.Debug("topic deleted", zap.String("topic", topicName))
	return nil
}

// Graph returns every topic with related topics resolved one level deep
func (s *TopicService) Graph(ctx context.Context) ([]domain.ExpandedTopic, error) {
	return s.store.ListAllExpanded(ctx)
}

// Related returns the resolved related topics of the named topic
func (s *TopicService) Related(ctx context.Context, topicName string) ([]domain.Topic, error) {
	return s.store.GetRelated(ctx, topicName)
}

// normalizeRelated checks that every id is a UUID and collapses repeats,
// keeping first-seen order.
func normalizeRelated(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, domain.NewValidationError("relatedTopics", "invalid topic id "+strconv.Quote(raw))
		}
		key := id.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out, nil
}
