package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/cognigraph/cognigraph-backend/internal/topics/domain"
)

const uniqueViolation = "23505"

// PostgresStore keeps topics in the topics table and their outgoing links in
// topic_relations. topic_relations.related_id has no foreign key, so links to
// deleted topics survive until the owner is rewritten.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const listTopicsQuery = `
SELECT t.id, t.topic_name, t.progress, t.is_completed, t.created_at, r.related_id
FROM topics t
LEFT JOIN topic_relations r ON r.topic_id = t.id
ORDER BY t.seq, r.position;
`

func (s *PostgresStore) ListAll(ctx context.Context) ([]domain.Topic, error) {
	rows, err := s.db.QueryContext(ctx, listTopicsQuery)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	out, err := scanTopicRows(rows)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Create(ctx context.Context, in domain.CreateTopic) (*domain.Topic, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create topic: %w", err)
	}
	defer tx.Rollback()

	const q = `
INSERT INTO topics (id, topic_name)
VALUES ($1, $2)
RETURNING id, topic_name, progress, is_completed, created_at;
`
	var t domain.Topic
	err = tx.QueryRowContext(ctx, q, uuid.New().String(), in.TopicName).
		Scan(&t.ID, &t.TopicName, &t.Progress, &t.IsCompleted, &t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrTopicExists
		}
		return nil, fmt.Errorf("insert topic: %w", err)
	}

	if err := insertRelations(ctx, tx, t.ID, in.RelatedTopics); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create topic: %w", err)
	}

	t.RelatedTopics = nonNil(in.RelatedTopics)
	return &t, nil
}

func (s *PostgresStore) UpdateByName(ctx context.Context, topicName string, in domain.UpdateTopic) (*domain.Topic, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update topic: %w", err)
	}
	defer tx.Rollback()

	const q = `
UPDATE topics
SET progress = $2, is_completed = $3
WHERE topic_name = $1
RETURNING id, topic_name, progress, is_completed, created_at;
`
	var t domain.Topic
	err = tx.QueryRowContext(ctx, q, topicName, in.Progress, in.IsCompleted).
		Scan(&t.ID, &t.TopicName, &t.Progress, &t.IsCompleted, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTopicNotFound
		}
		return nil, fmt.Errorf("update topic: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM topic_relations WHERE topic_id = $1;`, t.ID); err != nil {
		return nil, fmt.Errorf("clear topic relations: %w", err)
	}
	if err := insertRelations(ctx, tx, t.ID, in.RelatedTopics); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update topic: %w", err)
	}

	t.RelatedTopics = nonNil(in.RelatedTopics)
	return &t, nil
}

// DeleteByName removes the topic and, through ON DELETE CASCADE, its own
// outgoing links. Links from other topics are left alone.
func (s *PostgresStore) DeleteByName(ctx context.Context, topicName string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM topics WHERE topic_name = $1;`, topicName)
	if err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	if n == 0 {
		return domain.ErrTopicNotFound
	}
	return nil
}

func (s *PostgresStore) ListAllExpanded(ctx context.Context) ([]domain.ExpandedTopic, error) {
	topics, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ExpandAll(topics), nil
}

const relatedTopicsQuery = `
SELECT t.id, t.topic_name, t.progress, t.is_completed, t.created_at, rr.related_id
FROM topic_relations r
JOIN topics t ON t.id = r.related_id
LEFT JOIN topic_relations rr ON rr.topic_id = t.id
WHERE r.topic_id = $1
ORDER BY r.position, rr.position;
`

func (s *PostgresStore) GetRelated(ctx context.Context, topicName string) ([]domain.Topic, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM topics WHERE topic_name = $1;`, topicName).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTopicNotFound
		}
		return nil, fmt.Errorf("find topic: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, relatedTopicsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("related topics: %w", err)
	}
	defer rows.Close()

	out, err := scanTopicRows(rows)
	if err != nil {
		return nil, fmt.Errorf("related topics: %w", err)
	}
	return out, nil
}

func insertRelations(ctx context.Context, tx *sql.Tx, topicID string, related []string) error {
	const q = `
INSERT INTO topic_relations (topic_id, related_id, position)
VALUES ($1, $2, $3);
`
	for i, rid := range related {
		if _, err := tx.ExecContext(ctx, q, topicID, rid, i); err != nil {
			return fmt.Errorf("insert topic relation: %w", err)
		}
	}
	return nil
}

// scanTopicRows folds rows of (topic columns..., related_id) into topics.
// Rows of one topic must be adjacent.
func scanTopicRows(rows *sql.Rows) ([]domain.Topic, error) {
	out := make([]domain.Topic, 0, 16)
	for rows.Next() {
		var (
			t         domain.Topic
			relatedID sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.TopicName, &t.Progress, &t.IsCompleted, &t.CreatedAt, &relatedID); err != nil {
			return nil, err
		}

		if n := len(out); n == 0 || out[n-1].ID != t.ID {
			t.RelatedTopics = []string{}
			out = append(out, t)
		}
		if relatedID.Valid {
			last := &out[len(out)-1]
			last.RelatedTopics = append(last.RelatedTopics, relatedID.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// isUniqueViolation recognises unique-key errors from both supported drivers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}
