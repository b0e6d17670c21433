package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/studyjams-leaderboard/internal/handler/dto"
	"github.com/yourusername/studyjams-leaderboard/internal/service"
)

// insightsFailedMessage — текст ошибки, который ожидает фронтенд
const insightsFailedMessage = "Failed to generate insights. Please try again."

// InsightHandler обрабатывает запросы на генерацию AI-инсайтов
type InsightHandler struct {
	insights *service.InsightService
	logger   *zap.Logger
}

// NewInsightHandler создает новый обработчик инсайтов
func NewInsightHandler(insights *service.InsightService, logger *zap.Logger) *InsightHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightHandler{insights: insights, logger: logger}
}

// GenerateInsights генерирует рекомендации по переданным {name, score} или по текущему рейтингу
// POST /api/insights
func (h *InsightHandler) GenerateInsights(c *gin.Context) {
	var req dto.InsightsRequest
	// тело необязательно
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, dto.InsightsResponse{Success: false, Error: "Invalid request data"})
			return
		}
	}

	var (
		insights string
		err      error
	)
	if len(req.Participants) > 0 {
		insights, err = h.insights.GenerateForScores(c.Request.Context(), req.Participants)
	} else {
		insights, err = h.insights.Generate(c.Request.Context())
	}
	if err != nil {
		// ошибка уже залогирована сервисом, клиенту отдаем общий текст
		c.JSON(http.StatusOK, dto.InsightsResponse{Success: false, Error: insightsFailedMessage})
		return
	}

	c.JSON(http.StatusOK, dto.InsightsResponse{Success: true, Insights: insights})
}

// SendDigest генерирует инсайты и отправляет их организаторам
// POST /api/insights/digest
func (h *InsightHandler) SendDigest(c *gin.Context) {
	if err := h.insights.SendDigest(c.Request.Context()); err != nil {
		respondError(c, h.logger, err, "Nothing to send")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Digest sent"})
}
