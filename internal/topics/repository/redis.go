package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cognigraph/cognigraph-backend/internal/topics/domain"
)

const (
	topicKeyPrefix     = "cognigraph:topic:"     // Topic JSON: cognigraph:topic:{id}
	topicNameKeyPrefix = "cognigraph:topicname:" // Unique name index: cognigraph:topicname:{name} -> id
	topicOrderKey      = "cognigraph:topics"     // Sorted set of ids scored by creation time
)

// RedisStore keeps each topic as a JSON string. Name uniqueness is claimed
// with SETNX on the name index before the record is written.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *RedisStore) ListAll(ctx context.Context) ([]domain.Topic, error) {
	ids, err := s.client.ZRange(ctx, topicOrderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list topic ids: %w", err)
	}
	return s.getMany(ctx, ids)
}

func (s *RedisStore) Create(ctx context.Context, in domain.CreateTopic) (*domain.Topic, error) {
	t := domain.Topic{
		ID:            uuid.New().String(),
		TopicName:     in.TopicName,
		RelatedTopics: cloneIDs(in.RelatedTopics),
		CreatedAt:     s.now(),
	}

	nameKey := s.nameKey(t.TopicName)
	claimed, err := s.client.SetNX(ctx, nameKey, t.ID, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim topic name: %w", err)
	}
	if !claimed {
		return nil, domain.ErrTopicExists
	}

	data, err := json.Marshal(t)
	if err != nil {
		s.client.Del(ctx, nameKey)
		return nil, fmt.Errorf("failed to marshal topic: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.topicKey(t.ID), data, 0)
		pipe.ZAdd(ctx, topicOrderKey, redis.Z{Score: float64(t.CreatedAt.UnixNano()), Member: t.ID})
		return nil
	})
	if err != nil {
		s.client.Del(ctx, nameKey)
		return nil, fmt.Errorf("failed to create topic: %w", err)
	}

	return &t, nil
}

func (s *RedisStore) UpdateByName(ctx context.Context, topicName string, in domain.UpdateTopic) (*domain.Topic, error) {
	t, err := s.getByName(ctx, topicName)
	if err != nil {
		return nil, err
	}

	t.Progress = in.Progress
	t.IsCompleted = in.IsCompleted
	t.RelatedTopics = cloneIDs(in.RelatedTopics)

	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal topic: %w", err)
	}
	// XX: a delete that lands between the read and this write must not
	// bring the record back.
	err = s.client.SetArgs(ctx, s.topicKey(t.ID), data, redis.SetArgs{Mode: "XX"}).Err()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrTopicNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update topic: %w", err)
	}
	return t, nil
}

func (s *RedisStore) DeleteByName(ctx context.Context, topicName string) error {
	id, err := s.idByName(ctx, topicName)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.topicKey(id), s.nameKey(topicName))
		pipe.ZRem(ctx, topicOrderKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete topic: %w", err)
	}
	return nil
}

func (s *RedisStore) ListAllExpanded(ctx context.Context) ([]domain.ExpandedTopic, error) {
	topics, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ExpandAll(topics), nil
}

func (s *RedisStore) GetRelated(ctx context.Context, topicName string) ([]domain.Topic, error) {
	t, err := s.getByName(ctx, topicName)
	if err != nil {
		return nil, err
	}
	return s.getMany(ctx, t.RelatedTopics)
}

func (s *RedisStore) idByName(ctx context.Context, topicName string) (string, error) {
	id, err := s.client.Get(ctx, s.nameKey(topicName)).Result()
	if err == redis.Nil {
		return "", domain.ErrTopicNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve topic name: %w", err)
	}
	return id, nil
}

func (s *RedisStore) getByName(ctx context.Context, topicName string) (*domain.Topic, error) {
	id, err := s.idByName(ctx, topicName)
	if err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, s.topicKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrTopicNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}

	var t domain.Topic
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal topic: %w", err)
	}
	t.RelatedTopics = nonNil(t.RelatedTopics)
	return &t, nil
}

// getMany loads topics by id in the given order, skipping ids with no record.
func (s *RedisStore) getMany(ctx context.Context, ids []string) ([]domain.Topic, error) {
	out := make([]domain.Topic, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.topicKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get topics: %w", err)
	}

	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var t domain.Topic
		if err := json.Unmarshal([]byte(str), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal topic: %w", err)
		}
		t.RelatedTopics = nonNil(t.RelatedTopics)
		out = append(out, t)
	}
	return out, nil
}

func (s *RedisStore) topicKey(id string) string {
	return topicKeyPrefix + id
}

func (s *RedisStore) nameKey(topicName string) string {
	return topicNameKeyPrefix + topicName
}
