package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/cognigraph/cognigraph-backend/internal/topics/domain"
	"github.com/cognigraph/cognigraph-backend/pkg/logger"
)

const constraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"

// Neo4jStore keeps topics as (:Topic) nodes. Links live in the
// relatedTopics list property rather than as relationships, so deleting a
// node leaves the ids in place on whoever pointed at it.
type Neo4jStore struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

func NewNeo4jStore(driver neo4j.DriverWithContext) *Neo4jStore {
	return &Neo4jStore{
		driver: driver,
		logger: logger.Get(),
	}
}

// EnsureSchema creates the topicName uniqueness constraint.
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		CREATE CONSTRAINT topic_name_unique IF NOT EXISTS
		FOR (t:Topic) REQUIRE t.topicName IS UNIQUE
	`
	if _, err := session.Run(ctx, query, nil); err != nil {
		return fmt.Errorf("failed to create topic constraint: %w", err)
	}
	s.logger.Info("Neo4j topic schema ensured")
	return nil
}

func (s *Neo4jStore) ListAll(ctx context.Context) ([]domain.Topic, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `MATCH (t:Topic) RETURN t ORDER BY t.createdAt, t.id`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}

	out := make([]domain.Topic, 0, 16)
	for result.Next(ctx) {
		if node, ok := result.Record().Values[0].(neo4j.Node); ok {
			out = append(out, topicFromProps(node.Props))
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	return out, nil
}

func (s *Neo4jStore) Create(ctx context.Context, in domain.CreateTopic) (*domain.Topic, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		CREATE (t:Topic {
			id: $id,
			topicName: $topicName,
			progress: 0.0,
			isCompleted: false,
			relatedTopics: $relatedTopics,
			createdAt: $createdAt
		})
		RETURN t
	`
	result, err := session.Run(ctx, query, createParams(in, uuid.New().String(), time.Now().UTC()))
	if err != nil {
		return nil, mapNeo4jWriteError(err)
	}

	t, err := singleTopic(ctx, result)
	if err != nil {
		return nil, mapNeo4jWriteError(err)
	}
	if t == nil {
		return nil, fmt.Errorf("failed to create topic")
	}

	s.logger.Debug("Topic created", zap.String("topic", t.TopicName), zap.String("id", t.ID))
	return t, nil
}

func (s *Neo4jStore) UpdateByName(ctx context.Context, topicName string, in domain.UpdateTopic) (*domain.Topic, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (t:Topic {topicName: $topicName})
		SET t.progress = $progress, t.isCompleted = $isCompleted, t.relatedTopics = $relatedTopics
		RETURN t
	`
	result, err := session.Run(ctx, query, map[string]interface{}{
		"topicName":     topicName,
		"progress":      in.Progress,
		"isCompleted":   in.IsCompleted,
		"relatedTopics": nonNil(in.RelatedTopics),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update topic: %w", err)
	}

	t, err := singleTopic(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("failed to update topic: %w", err)
	}
	if t == nil {
		return nil, domain.ErrTopicNotFound
	}
	return t, nil
}

func (s *Neo4jStore) DeleteByName(ctx context.Context, topicName string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `MATCH (t:Topic {topicName: $topicName}) DELETE t`, map[string]interface{}{
		"topicName": topicName,
	})
	if err != nil {
		return fmt.Errorf("failed to delete topic: %w", err)
	}

	summary, err := result.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete topic: %w", err)
	}
	if summary.Counters().NodesDeleted() == 0 {
		return domain.ErrTopicNotFound
	}
	return nil
}

func (s *Neo4jStore) ListAllExpanded(ctx context.Context) ([]domain.ExpandedTopic, error) {
	topics, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ExpandAll(topics), nil
}

func (s *Neo4jStore) GetRelated(ctx context.Context, topicName string) ([]domain.Topic, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (t:Topic {topicName: $topicName})
		OPTIONAL MATCH (r:Topic) WHERE r.id IN t.relatedTopics
		RETURN t.id AS id, collect(r) AS related
	`
	result, err := session.Run(ctx, query, map[string]interface{}{"topicName": topicName})
	if err != nil {
		return nil, fmt.Errorf("failed to get related topics: %w", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("failed to get related topics: %w", err)
		}
		return nil, domain.ErrTopicNotFound
	}

	raw, _ := result.Record().Get("related")
	items, _ := raw.([]interface{})
	out := make([]domain.Topic, 0, len(items))
	for _, item := range items {
		if node, ok := item.(neo4j.Node); ok {
			out = append(out, topicFromProps(node.Props))
		}
	}
	return out, nil
}

// createParams builds the CREATE parameters. createdAt goes over the wire as
// a time.Time so Neo4j stores a DATETIME and ORDER BY compares instants.
func createParams(in domain.CreateTopic, id string, now time.Time) map[string]any {
	return map[string]any{
		"id":            id,
		"topicName":     in.TopicName,
		"relatedTopics": nonNil(in.RelatedTopics),
		"createdAt":     now,
	}
}

func singleTopic(ctx context.Context, result neo4j.ResultWithContext) (*domain.Topic, error) {
	if result.Next(ctx) {
		if node, ok := result.Record().Values[0].(neo4j.Node); ok {
			t := topicFromProps(node.Props)
			return &t, nil
		}
	}
	return nil, result.Err()
}

func mapNeo4jWriteError(err error) error {
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) && neoErr.Code == constraintViolation {
		return domain.ErrTopicExists
	}
	return fmt.Errorf("failed to create topic: %w", err)
}

func topicFromProps(props map[string]any) domain.Topic {
	t := domain.Topic{
		ID:            stringProp(props, "id"),
		TopicName:     stringProp(props, "topicName"),
		RelatedTopics: []string{},
	}

	switch v := props["progress"].(type) {
	case float64:
		t.Progress = v
	case int64:
		t.Progress = float64(v)
	}
	t.IsCompleted, _ = props["isCompleted"].(bool)

	switch v := props["relatedTopics"].(type) {
	case []interface{}:
		for _, id := range v {
			if s, ok := id.(string); ok {
				t.RelatedTopics = append(t.RelatedTopics, s)
			}
		}
	case []string:
		t.RelatedTopics = append(t.RelatedTopics, v...)
	}

	switch v := props["createdAt"].(type) {
	case time.Time:
		t.CreatedAt = v.UTC()
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			t.CreatedAt = ts
		}
	}
	return t
}

func stringProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}
