package handler

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/studyjams-leaderboard/internal/domain/entity"
	"github.com/yourusername/studyjams-leaderboard/internal/middleware"
	"github.com/yourusername/studyjams-leaderboard/internal/service"
	apperrors "github.com/yourusername/studyjams-leaderboard/internal/pkg/errors"
)

//go:embed templates/*.html
var templatesFS embed.FS

// LoadTemplates разбирает встроенные шаблоны страниц
func LoadTemplates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"title": tierTitle,
	}).ParseFS(templatesFS, "templates/*.html")
}

func tierTitle(t entity.Tier) string {
	switch t {
	case entity.TierGold:
		return "Gold"
	case entity.TierSilver:
		return "Silver"
	case entity.TierBronze:
		return "Bronze"
	}
	return ""
}

// PageHandler отдает HTML-страницы списка и карточки участника
type PageHandler struct {
	leaderboard *service.LeaderboardService
	logger      *zap.Logger
}

// NewPageHandler создает обработчик страниц
func NewPageHandler(leaderboard *service.LeaderboardService, logger *zap.Logger) *PageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageHandler{leaderboard: leaderboard, logger: logger}
}

// Index — главная страница с поиском по имени
// GET /?q=
func (h *PageHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	query := c.Query("q")

	// таблица и счетчики строятся по одному снимку
	board := h.leaderboard.Leaderboard(ctx)

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Query":        query,
		"Participants": service.FilterEntries(board.Entries, service.Filter{Query: query}),
		"Stats":        service.StatsOf(board),
		"Degraded":     board.Outcome.Degraded,
	})
}

// Participant — страница одного участника
// GET /participant/:id
func (h *PageHandler) Participant(c *gin.Context) {
	id := c.MustGet(middleware.ParticipantIDKey).(string)

	entry, err := h.leaderboard.FindParticipant(c.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, apperrors.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.HTML(status, "not_found.html", gin.H{"ID": id})
		return
	}

	c.HTML(http.StatusOK, "participant.html", gin.H{"Entry": entry})
}
