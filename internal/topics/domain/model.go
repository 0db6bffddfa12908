package domain

import "time"

// Topic is a named learning unit with progress state and outgoing links to
// other topics. RelatedTopics holds persistence ids; nothing guarantees the
// referenced topics still exist.
type Topic struct {
	ID            string    `json:"_id"`
	TopicName     string    `json:"topicName"`
	Progress      float64   `json:"progress"`
	IsCompleted   bool      `json:"isCompleted"`
	RelatedTopics []string  `json:"relatedTopics"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ExpandedTopic is a Topic whose relatedTopics were resolved one level deep.
// References that no longer resolve are left out.
type ExpandedTopic struct {
	ID            string    `json:"_id"`
	TopicName     string    `json:"topicName"`
	Progress      float64   `json:"progress"`
	IsCompleted   bool      `json:"isCompleted"`
	RelatedTopics []Topic   `json:"relatedTopics"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CreateTopic carries the client-supplied fields of a new topic.
type CreateTopic struct {
	TopicName     string
	RelatedTopics []string
}

// UpdateTopic replaces all mutable fields of a topic.
type UpdateTopic struct {
	Progress      float64
	IsCompleted   bool
	RelatedTopics []string
}

// Expand resolves t's related ids against byID, keeping the id order of t.
func Expand(t Topic, byID map[string]Topic) ExpandedTopic {
	related := make([]Topic, 0, len(t.RelatedTopics))
	for _, id := range t.RelatedTopics {
		if r, ok := byID[id]; ok {
			related = append(related, r)
		}
	}
	return ExpandedTopic{
		ID:            t.ID,
		TopicName:     t.TopicName,
		Progress:      t.Progress,
		IsCompleted:   t.IsCompleted,
		RelatedTopics: related,
		CreatedAt:     t.CreatedAt,
	}
}

// ExpandAll expands every topic in topics against the same set.
func ExpandAll(topics []Topic) []ExpandedTopic {
	byID := make(map[string]Topic, len(topics))
	for _, t := range topics {
		byID[t.ID] = t
	}
	out := make([]ExpandedTopic, 0, len(topics))
	for _, t := range topics {
		out = append(out, Expand(t, byID))
	}
	return out
}
