package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cognigraph/cognigraph-backend/internal/api/http/middleware"
	"github.com/cognigraph/cognigraph-backend/internal/topics/domain"
	"github.com/cognigraph/cognigraph-backend/internal/topics/service"
)

// Handler serves the topic endpoints
type Handler struct {
	topics *service.TopicService
	logger *zap.Logger
}

// NewHandler creates a new topic Handler
func NewHandler(topics *service.TopicService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{topics: topics, logger: logger}
}

// ListTopics returns every topic
func (h *Handler) ListTopics(c *gin.Context) {
	topics, err := h.topics.List(c.Request.Context())
	if err != nil {
		h.internalError(c, "list topics", err)
		return
	}
	c.JSON(http.StatusOK, topics)
}

// CreateTopic creates a topic from {topicName, relatedTopics}
func (h *Handler) CreateTopic(c *gin.Context) {
	var body createTopicRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	topic, err := h.topics.Create(c.Request.Context(), body.TopicName, body.RelatedTopics)
	if err != nil {
		var ve *domain.ValidationError
		switch {
		case errors.As(err, &ve):
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
		case errors.Is(err, domain.ErrTopicExists):
			c.JSON(http.StatusBadRequest, gin.H{"error": "topic " + body.TopicName + " already exists"})
		default:
			h.internalError(c, "create topic", err)
		}
		return
	}

	c.JSON(http.StatusCreated, topic)
}

// UpdateTopic replaces progress, isCompleted and relatedTopics of a topic
func (h *Handler) UpdateTopic(c *gin.Context) {
	name := topicName(c)

	var body updateTopicRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	topic, err := h.topics.Update(c.Request.Context(), name, body.Progress, body.IsCompleted, body.RelatedTopics)
	if err != nil {
		var ve *domain.ValidationError
		switch {
		case errors.Is(err, domain.ErrTopicNotFound):
			c.String(http.StatusNotFound, notFoundText)
		case errors.As(err, &ve):
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
		default:
			h.internalError(c, "update topic", err)
		}
		return
	}

	c.JSON(http.StatusOK, topic)
}

// DeleteTopic removes a topic by name
func (h *Handler) DeleteTopic(c *gin.Context) {
	name := topicName(c)

	if err := h.topics.Delete(c.Request.Context(), name); err != nil {
		if errors.Is(err, domain.ErrTopicNotFound) {
			c.String(http.StatusNotFound, notFoundText)
			return
		}
		h.internalError(c, "delete topic", err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: deletedMessage})
}

// GetGraph returns all topics with related topics expanded one level
func (h *Handler) GetGraph(c *gin.Context) {
	graph, err := h.topics.Graph(c.Request.Context())
	if err != nil {
		h.internalError(c, "topic graph", err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

// GetRelated returns the related topics of one topic
func (h *Handler) GetRelated(c *gin.Context) {
	name := topicName(c)

	related, err := h.topics.Related(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrTopicNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": notFoundText})
			return
		}
		h.internalError(c, "related topics", err)
		return
	}
	c.JSON(http.StatusOK, related)
}

// topicName returns the decoded :topicName segment. The engine routes on the
// raw path and unescapes values, so an encoded '/' stays inside the name.
func topicName(c *gin.Context) string {
	return c.Param("topicName")
}

func (h *Handler) internalError(c *gin.Context, op string, err error) {
	h.logger.Error(op+" failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", middleware.GetRequestID(c.Request.Context())),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
