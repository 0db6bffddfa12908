package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognigraph/cognigraph-backend/internal/topics/domain"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client), mr
}

func TestRedisStore_CreateAndList(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	a, err := store.Create(ctx, domain.CreateTopic{TopicName: "Graphs"})
	require.NoError(t, err)
	b, err := store.Create(ctx, domain.CreateTopic{TopicName: "Trees", RelatedTopics: []string{a.ID}})
	require.NoError(t, err)

	assert.True(t, mr.Exists(topicNameKeyPrefix+"Graphs"))

	topics, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, a.ID, topics[0].ID)
	assert.Equal(t, 0.0, topics[0].Progress)
	assert.False(t, topics[0].IsCompleted)
	assert.Equal(t, []string{}, topics[0].RelatedTopics)
	assert.Equal(t, []string{a.ID}, topics[1].RelatedTopics)
	assert.Equal(t, b.ID, topics[1].ID)
}

func TestRedisStore_CreateDuplicate(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, domain.CreateTopic{TopicName: "Graphs"})
	require.NoError(t, err)

	_, err = store.Create(ctx, domain.CreateTopic{TopicName: "Graphs"})
	assert.ErrorIs(t, err, domain.ErrTopicExists)

	topics, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, topics, 1)
}

func TestRedisStore_UpdateByName(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	a, err := store.Create(ctx, domain.CreateTopic{TopicName: "Graphs"})
	require.NoError(t, err)

	updated, err := store.UpdateByName(ctx, "Graphs", domain.UpdateTopic{
		Progress:      42,
		IsCompleted:   true,
		RelatedTopics: []string{"some-id"},
	})
	require.NoError(t, err)
	assert.Equal(t, a.ID, updated.ID)
	assert.Equal(t, 42.0, updated.Progress)
	assert.True(t, updated.IsCompleted)

	_, err = store.UpdateByName(ctx, "Nope", domain.UpdateTopic{})
	assert.ErrorIs(t, err, domain.ErrTopicNotFound)
}

// beforeSetHook runs fn once, right before the first SET the client sends.
type beforeSetHook struct {
	once sync.Once
	fn   func(ctx context.Context)
}

func (h *beforeSetHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *beforeSetHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "set" {
			h.once.Do(func() { h.fn(ctx) })
		}
		return next(ctx, cmd)
	}
}

func (h *beforeSetHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

var _ redis.Hook = (*beforeSetHook)(nil)

func TestRedisStore_UpdateRacingDeleteDoesNotResurrect(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	b, err := store.Create(ctx, domain.CreateTopic{TopicName: "Trees"})
	require.NoError(t, err)
	_, err = store.Create(ctx, domain.CreateTopic{TopicName: "Graphs", RelatedTopics: []string{b.ID}})
	require.NoError(t, err)

	updaterClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { updaterClient.Close() })
	updaterClient.AddHook(&beforeSetHook{fn: func(ctx context.Context) {
		require.NoError(t, store.DeleteByName(ctx, "Trees"))
	}})
	updater := NewRedisStore(updaterClient)

	_, err = updater.UpdateByName(ctx, "Trees", domain.UpdateTopic{Progress: 5})
	assert.ErrorIs(t, err, domain.ErrTopicNotFound)
	assert.False(t, mr.Exists(topicKeyPrefix+b.ID))

	related, err := store.GetRelated(ctx, "Graphs")
	require.NoError(t, err)
	assert.Empty(t, related)
}

func TestRedisStore_DeleteLeavesDanglingReferences(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	b, err := store.Create(ctx, domain.CreateTopic{TopicName: "Trees"})
	require.NoError(t, err)
	_, err = store.Create(ctx, domain.CreateTopic{TopicName: "Graphs", RelatedTopics: []string{b.ID}})
	require.NoError(t, err)

	require.NoError(t, store.DeleteByName(ctx, "Trees"))
	assert.False(t, mr.Exists(topicKeyPrefix+b.ID))
	assert.False(t, mr.Exists(topicNameKeyPrefix+"Trees"))
	assert.ErrorIs(t, store.DeleteByName(ctx, "Trees"), domain.ErrTopicNotFound)

	topics, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, []string{b.ID}, topics[0].RelatedTopics)

	related, err := store.GetRelated(ctx, "Graphs")
	require.NoError(t, err)
	assert.Empty(t, related)

	expanded, err := store.ListAllExpanded(ctx)
	require.NoError(t, err)
	require.Len(t, expanded, 1)
	assert.Empty(t, expanded[0].RelatedTopics)

	// name can be reused once deleted
	_, err = store.Create(ctx, domain.CreateTopic{TopicName: "Trees"})
	assert.NoError(t, err)
}

func TestRedisStore_GetRelated(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	b, err := store.Create(ctx, domain.CreateTopic{TopicName: "Trees"})
	require.NoError(t, err)
	c, err := store.Create(ctx, domain.CreateTopic{TopicName: "Heaps"})
	require.NoError(t, err)
	_, err = store.Create(ctx, domain.CreateTopic{TopicName: "Data Structures", RelatedTopics: []string{b.ID, c.ID}})
	require.NoError(t, err)

	related, err := store.GetRelated(ctx, "Data Structures")
	require.NoError(t, err)

	names := []string{}
	for _, r := range related {
		names = append(names, r.TopicName)
	}
	assert.ElementsMatch(t, []string{"Trees", "Heaps"}, names)

	_, err = store.GetRelated(ctx, "Nope")
	assert.ErrorIs(t, err, domain.ErrTopicNotFound)
}
