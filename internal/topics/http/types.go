package http

type createTopicRequest struct {
	TopicName     string   `json:"topicName"`
	RelatedTopics []string `json:"relatedTopics"`
}

// updateTopicRequest is a full replacement; omitted fields decode to their
// zero values, which are also the topic defaults.
type updateTopicRequest struct {
	Progress      float64  `json:"progress"`
	IsCompleted   bool     `json:"isCompleted"`
	RelatedTopics []string `json:"relatedTopics"`
}

type messageResponse struct {
	Message string `json:"message"`
}

const (
	notFoundText   = "Topic not found"
	deletedMessage = "Topic deleted successfully"
)
