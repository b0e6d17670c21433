package dto

import (
	"github.com/yourusername/studyjams-leaderboard/internal/domain/entity"
)

// InsightsRequest — тело запроса на генерацию инсайтов.
// Пустой список означает "по текущему рейтингу".
type InsightsRequest struct {
	Participants []entity.ScoreEntry `json:"participants"`
}

// InsightsResponse повторяет форму ответа фронтенда: {success, insights} или {success, error}
type InsightsResponse struct {
	Success  bool   `json:"success"`
	Insights string `json:"insights,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ParticipantListResponse представляет отфильтрованный список участников
type ParticipantListResponse struct {
	Participants []entity.RankedEntry `json:"participants"`
	Total        int                  `json:"total"`
	Matched      int                  `json:"matched"`
	Outcome      entity.Outcome       `json:"outcome"`
}

// RefreshResponse — результат принудительного перечитывания источника
type RefreshResponse struct {
	Total      int               `json:"total"`
	Thresholds entity.Thresholds `json:"thresholds"`
	Outcome    entity.Outcome    `json:"outcome"`
}

// NewRefreshResponse создает DTO по снимку рейтинга
func NewRefreshResponse(board *entity.Leaderboard) *RefreshResponse {
	return &RefreshResponse{
		Total:      len(board.Entries),
		Thresholds: board.Thresholds,
		Outcome:    board.Outcome,
	}
}
