package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/studyjams-leaderboard/internal/domain/entity"
	"github.com/yourusername/studyjams-leaderboard/internal/handler/dto"
	"github.com/yourusername/studyjams-leaderboard/internal/middleware"
	"github.com/yourusername/studyjams-leaderboard/internal/service"
)

// LeaderboardHandler обрабатывает запросы к рейтингу участников
type LeaderboardHandler struct {
	leaderboard *service.LeaderboardService
	logger      *zap.Logger
}

// NewLeaderboardHandler создает новый обработчик рейтинга
func NewLeaderboardHandler(leaderboard *service.LeaderboardService, logger *zap.Logger) *LeaderboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardHandler{leaderboard: leaderboard, logger: logger}
}

// parseFilter читает q, tier и eligible из query. Неизвестный tier — ошибка.
func parseFilter(c *gin.Context) (service.Filter, bool) {
	f := service.Filter{Query: c.Query("q")}

	if raw := c.Query("tier"); raw != "" {
		tier, ok := entity.ParseTier(raw)
		if !ok {
			return f, false
		}
		f.Tier = tier
	}
	if raw := c.Query("eligible"); raw != "" {
		eligible, err := strconv.ParseBool(raw)
		if err != nil {
			return f, false
		}
		f.EligibleOnly = eligible
	}
	return f, true
}

// ListParticipants возвращает рейтинг с фильтрацией
// GET /api/participants?q=&tier=gold|silver|bronze&eligible=true
func (h *LeaderboardHandler) ListParticipants(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter parameters"})
		return
	}

	res := h.leaderboard.Search(c.Request.Context(), filter)
	c.JSON(http.StatusOK, dto.ParticipantListResponse{
		Participants: res.Participants,
		Total:        res.Total,
		Matched:      len(res.Participants),
		Outcome:      res.Outcome,
	})
}

// GetParticipant возвращает одного участника
// GET /api/participants/:id
func (h *LeaderboardHandler) GetParticipant(c *gin.Context) {
	id := c.MustGet(middleware.ParticipantIDKey).(string)

	entry, err := h.leaderboard.FindParticipant(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Participant not found")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// GetStats возвращает сводку по рейтингу
// GET /api/stats
func (h *LeaderboardHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.leaderboard.Stats(c.Request.Context()))
}

// Refresh сбрасывает кеш и перечитывает источник
// POST /api/refresh
func (h *LeaderboardHandler) Refresh(c *gin.Context) {
	board := h.leaderboard.Refresh(c.Request.Context())
	status := http.StatusOK
	if board.Outcome.Degraded {
		status = http.StatusBadGateway
	}
	c.JSON(status, dto.NewRefreshResponse(board))
}

// Health — проверка живости процесса
// GET /healthz
func (h *LeaderboardHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
