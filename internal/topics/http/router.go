package http

import "github.com/gin-gonic/gin"

// Register registers the topic routes under rg (normally /api/topics).
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.ListTopics)
	rg.POST("", h.CreateTopic)
	rg.GET("/graph", h.GetGraph)
	rg.GET("/:topicName/related", h.GetRelated)
	rg.PUT("/:topicName", h.UpdateTopic)
	rg.DELETE("/:topicName", h.DeleteTopic)
}
