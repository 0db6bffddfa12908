package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognigraph/cognigraph-backend/internal/topics/domain"
)

var topicColumns = []string{"id", "topic_name", "progress", "is_completed", "created_at", "related_id"}

func setupPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPostgresStore(db), mock
}

func TestPostgresStore_ListAll(t *testing.T) {
	store, mock := setupPostgresStore(t)
	now := time.Now().UTC()

	t.Run("folds relation rows into topics", func(t *testing.T) {
		rows := sqlmock.NewRows(topicColumns).
			AddRow("id-a", "Graphs", 0.5, false, now, "id-b").
			AddRow("id-a", "Graphs", 0.5, false, now, "id-gone").
			AddRow("id-b", "Trees", 0.0, true, now, nil)
		mock.ExpectQuery(regexp.QuoteMeta("FROM topics t")).WillReturnRows(rows)

		topics, err := store.ListAll(context.Background())
		require.NoError(t, err)
		require.Len(t, topics, 2)

		assert.Equal(t, "Graphs", topics[0].TopicName)
		assert.Equal(t, []string{"id-b", "id-gone"}, topics[0].RelatedTopics)
		assert.Equal(t, "Trees", topics[1].TopicName)
		assert.True(t, topics[1].IsCompleted)
		assert.Equal(t, []string{}, topics[1].RelatedTopics)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("orders by insertion sequence, not timestamp", func(t *testing.T) {
		rows := sqlmock.NewRows(topicColumns).
			AddRow("ffff0000-0000-0000-0000-000000000000", "First", 0.0, false, now, nil).
			AddRow("00000000-0000-0000-0000-000000000001", "Second", 0.0, false, now, nil)
		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY t.seq, r.position")).WillReturnRows(rows)

		topics, err := store.ListAll(context.Background())
		require.NoError(t, err)
		require.Len(t, topics, 2)
		assert.Equal(t, "First", topics[0].TopicName)
		assert.Equal(t, "Second", topics[1].TopicName)
		assert.NotContains(t, listTopicsQuery, "ORDER BY t.created_at")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps query errors", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM topics t")).WillReturnError(errors.New("connection reset"))

		_, err := store.ListAll(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "list topics")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_ListAllExpanded(t *testing.T) {
	store, mock := setupPostgresStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(topicColumns).
		AddRow("id-a", "Graphs", 0.0, false, now, "id-b").
		AddRow("id-a", "Graphs", 0.0, false, now, "id-gone").
		AddRow("id-b", "Trees", 0.0, false, now, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM topics t")).WillReturnRows(rows)

	expanded, err := store.ListAllExpanded(context.Background())
	require.NoError(t, err)
	require.Len(t, expanded, 2)
	require.Len(t, expanded[0].RelatedTopics, 1)
	assert.Equal(t, "Trees", expanded[0].RelatedTopics[0].TopicName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Create(t *testing.T) {
	store, mock := setupPostgresStore(t)
	now := time.Now().UTC()

	t.Run("inserts topic and relations", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO topics (id, topic_name)")).
			WithArgs(sqlmock.AnyArg(), "Graphs").
			WillReturnRows(sqlmock.NewRows(topicColumns[:5]).AddRow("id-a", "Graphs", 0.0, false, now))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO topic_relations")).
			WithArgs("id-a", "id-b", 0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO topic_relations")).
			WithArgs("id-a", "id-c", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		topic, err := store.Create(context.Background(), domain.CreateTopic{
			TopicName:     "Graphs",
			RelatedTopics: []string{"id-b", "id-c"},
		})
		require.NoError(t, err)
		assert.Equal(t, "id-a", topic.ID)
		assert.Equal(t, 0.0, topic.Progress)
		assert.False(t, topic.IsCompleted)
		assert.Equal(t, []string{"id-b", "id-c"}, topic.RelatedTopics)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps pq unique violation", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO topics (id, topic_name)")).
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		_, err := store.Create(context.Background(), domain.CreateTopic{TopicName: "Graphs"})
		assert.ErrorIs(t, err, domain.ErrTopicExists)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps pgx unique violation", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO topics (id, topic_name)")).
			WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectRollback()

		_, err := store.Create(context.Background(), domain.CreateTopic{TopicName: "Graphs"})
		assert.ErrorIs(t, err, domain.ErrTopicExists)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when a relation insert fails", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO topics (id, topic_name)")).
			WillReturnRows(sqlmock.NewRows(topicColumns[:5]).AddRow("id-a", "Graphs", 0.0, false, now))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO topic_relations")).
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		_, err := store.Create(context.Background(), domain.CreateTopic{
			TopicName:     "Graphs",
			RelatedTopics: []string{"id-b"},
		})
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrTopicExists)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_UpdateByName(t *testing.T) {
	store, mock := setupPostgresStore(t)
	now := time.Now().UTC()

	t.Run("replaces fields and relations", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE topics")).
			WithArgs("Graphs", 0.75, true).
			WillReturnRows(sqlmock.NewRows(topicColumns[:5]).AddRow("id-a", "Graphs", 0.75, true, now))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM topic_relations WHERE topic_id = $1")).
			WithArgs("id-a").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO topic_relations")).
			WithArgs("id-a", "id-c", 0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		topic, err := store.UpdateByName(context.Background(), "Graphs", domain.UpdateTopic{
			Progress:      0.75,
			IsCompleted:   true,
			RelatedTopics: []string{"id-c"},
		})
		require.NoError(t, err)
		assert.Equal(t, 0.75, topic.Progress)
		assert.True(t, topic.IsCompleted)
		assert.Equal(t, []string{"id-c"}, topic.RelatedTopics)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing topic", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE topics")).
			WithArgs("Nope", 0.0, false).
			WillReturnRows(sqlmock.NewRows(topicColumns[:5]))
		mock.ExpectRollback()

		_, err := store.UpdateByName(context.Background(), "Nope", domain.UpdateTopic{})
		assert.ErrorIs(t, err, domain.ErrTopicNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_DeleteByName(t *testing.T) {
	store, mock := setupPostgresStore(t)

	t.Run("deletes existing topic", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM topics WHERE topic_name = $1")).
			WithArgs("Graphs").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.DeleteByName(context.Background(), "Graphs"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing topic", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM topics WHERE topic_name = $1")).
			WithArgs("Nope").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, store.DeleteByName(context.Background(), "Nope"), domain.ErrTopicNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_GetRelated(t *testing.T) {
	store, mock := setupPostgresStore(t)
	now := time.Now().UTC()

	t.Run("returns resolved related topics", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM topics WHERE topic_name = $1")).
			WithArgs("Data Structures").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("id-a"))
		mock.ExpectQuery(regexp.QuoteMeta("FROM topic_relations r")).
			WithArgs("id-a").
			WillReturnRows(sqlmock.NewRows(topicColumns).
				AddRow("id-b", "Trees", 0.0, false, now, "id-c").
				AddRow("id-c", "Heaps", 0.0, false, now, nil))

		related, err := store.GetRelated(context.Background(), "Data Structures")
		require.NoError(t, err)
		require.Len(t, related, 2)
		assert.Equal(t, "Trees", related[0].TopicName)
		assert.Equal(t, []string{"id-c"}, related[0].RelatedTopics)
		assert.Equal(t, "Heaps", related[1].TopicName)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing topic", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM topics WHERE topic_name = $1")).
			WithArgs("Nope").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := store.GetRelated(context.Background(), "Nope")
		assert.ErrorIs(t, err, domain.ErrTopicNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
