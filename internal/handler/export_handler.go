package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/studyjams-leaderboard/internal/export"
)

// Export выгружает текущий рейтинг в CSV или Excel
// GET /api/export?format=csv|xlsx
func (h *LeaderboardHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", export.FormatCSV)
	if format != export.FormatCSV && format != export.FormatXLSX {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported export format"})
		return
	}

	board := h.leaderboard.Leaderboard(c.Request.Context())

	// пишем в буфер, чтобы при ошибке еще можно было ответить JSON
	var buf bytes.Buffer
	if err := export.Write(&buf, format, board.Entries); err != nil {
		h.logger.Error("export failed", zap.String("format", format), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build export file"})
		return
	}

	filename := fmt.Sprintf("leaderboard_%s.%s", time.Now().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, export.ContentType(format), buf.Bytes())
}
