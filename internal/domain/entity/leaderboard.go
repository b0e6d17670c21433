package entity

import "time"

// Tier — класс участника (золото/серебро/бронза), вычисляется по различным значениям очков
type Tier string

const (
	TierGold   Tier = "gold"
	TierSilver Tier = "silver"
	TierBronze Tier = "bronze"
	TierNone   Tier = ""
)

// ParseTier разбирает строку из query-параметра
func ParseTier(s string) (Tier, bool) {
	switch Tier(s) {
	case TierGold, TierSilver, TierBronze:
		return Tier(s), true
	}
	return TierNone, false
}

// RankedEntry — участник с рангом и классом, вычисленными в момент запроса
type RankedEntry struct {
	Participant
	Rank  int  `json:"rank"`
	Score int  `json:"score"`
	Tier  Tier `json:"tier,omitempty"`
	Medal bool `json:"medal"`
}

// Thresholds — первое, второе и третье по величине различные значения очков.
// Отсутствующий порог равен -1.
type Thresholds struct {
	Gold   int `json:"gold"`
	Silver int `json:"silver"`
	Bronze int `json:"bronze"`
}

// Outcome описывает результат одного прогона ingestion-пайплайна
type Outcome struct {
	Source      string    `json:"source"`
	FetchedAt   time.Time `json:"fetched_at"`
	RowsSeen    int       `json:"rows_seen"`
	RowsKept    int       `json:"rows_kept"`
	RowsSkipped int       `json:"rows_skipped"`
	Degraded    bool      `json:"degraded"`
	Error       string    `json:"error,omitempty"`
}

// Leaderboard — упорядоченный снимок рейтинга
type Leaderboard struct {
	Entries    []RankedEntry `json:"entries"`
	Thresholds Thresholds    `json:"thresholds"`
	Outcome    Outcome       `json:"outcome"`
}

// ScoreEntry — проекция {name, score} для генерации инсайтов
type ScoreEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}
