package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cognigraph/cognigraph-backend/internal/topics/domain"
)

// MemoryStore keeps topics in process memory. Listing order is creation order.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Topic
	byName map[string]string
	order  []string
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*domain.Topic),
		byName: make(map[string]string),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(), nil
}

func (s *MemoryStore) Create(ctx context.Context, in domain.CreateTopic) (*domain.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[in.TopicName]; ok {
		return nil, domain.ErrTopicExists
	}

	t := &domain.Topic{
		ID:            uuid.New().String(),
		TopicName:     in.TopicName,
		RelatedTopics: cloneIDs(in.RelatedTopics),
		CreatedAt:     s.now(),
	}
	s.byID[t.ID] = t
	s.byName[t.TopicName] = t.ID
	s.order = append(s.order, t.ID)

	out := copyTopic(t)
	return &out, nil
}

func (s *MemoryStore) UpdateByName(ctx context.Context, topicName string, in domain.UpdateTopic) (*domain.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byName[topicName]
	if !ok {
		return nil, domain.ErrTopicNotFound
	}
	t := s.byID[id]
	t.Progress = in.Progress
	t.IsCompleted = in.IsCompleted
	t.RelatedTopics = cloneIDs(in.RelatedTopics)

	out := copyTopic(t)
	return &out, nil
}

func (s *MemoryStore) DeleteByName(ctx context.Context, topicName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byName[topicName]
	if !ok {
		return domain.ErrTopicNotFound
	}
	delete(s.byName, topicName)
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) ListAllExpanded(ctx context.Context) ([]domain.ExpandedTopic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.ExpandAll(s.listLocked()), nil
}

func (s *MemoryStore) GetRelated(ctx context.Context, topicName string) ([]domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[topicName]
	if !ok {
		return nil, domain.ErrTopicNotFound
	}
	related := s.byID[id].RelatedTopics
	out := make([]domain.Topic, 0, len(related))
	for _, rid := range related {
		if r, ok := s.byID[rid]; ok {
			out = append(out, copyTopic(r))
		}
	}
	return out, nil
}

func (s *MemoryStore) listLocked() []domain.Topic {
	out := make([]domain.Topic, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copyTopic(s.byID[id]))
	}
	return out
}

func copyTopic(t *domain.Topic) domain.Topic {
	out := *t
	out.RelatedTopics = cloneIDs(t.RelatedTopics)
	return out
}

func cloneIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
