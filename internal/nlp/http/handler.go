package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cognigraph/cognigraph-backend/internal/api/http/middleware"
	"github.com/cognigraph/cognigraph-backend/internal/nlp"
)

type parseContentRequest struct {
	Text string `json:"text"`
}

type parseContentResponse struct {
	Topics []string `json:"topics"`
}

// Handler proxies free text to the entity analyzer
type Handler struct {
	extractor *nlp.Extractor
	logger    *zap.Logger
}

func NewHandler(extractor *nlp.Extractor, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{extractor: extractor, logger: logger}
}

// Register attaches POST /parse-content to rg (normally /api).
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/parse-content", h.ParseContent)
}

// ParseContent returns the salient entity names found in {text}
func (h *Handler) ParseContent(c *gin.Context) {
	var body parseContentRequest
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	topics, err := h.extractor.ExtractTopics(c.Request.Context(), body.Text)
	if err != nil {
		h.logger.Error("parse content failed",
			zap.Error(err),
			zap.Int("text_len", len(body.Text)),
			zap.String("request_id", middleware.GetRequestID(c.Request.Context())),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to analyze content"})
		return
	}

	c.JSON(http.StatusOK, parseContentResponse{Topics: topics})
}
