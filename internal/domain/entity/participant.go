package entity

import "strconv"

// ProfileURLStatus — состояние ссылки на профиль участника
type ProfileURLStatus string

const (
	ProfileURLComplete   ProfileURLStatus = "complete"
	ProfileURLIncomplete ProfileURLStatus = "incomplete"
)

// AccessCodeRedemption — статус активации кода доступа
type AccessCodeRedemption string

const (
	AccessCodeRedeemed AccessCodeRedemption = "redeemed"
	AccessCodePending  AccessCodeRedemption = "pending"
)

// Participant представляет одного участника программы в рамках одной выгрузки.
// Записи создаются заново при каждом чтении источника и не изменяются после этого.
type Participant struct {
	ID                   string               `json:"id"`
	Name                 string               `json:"name"`
	Email                string               `json:"email,omitempty"`
	ProfileURL           string               `json:"profile_url"`
	ProfileURLStatus     ProfileURLStatus     `json:"profile_url_status"`
	AccessCodeRedemption AccessCodeRedemption `json:"access_code_redemption"`
	RedemptionStatus     bool                 `json:"redemption_status"`
	AllCompleted         bool                 `json:"all_completed"`
	SkillBadges          int                  `json:"skill_badges"`
	SkillBadgeNames      []string             `json:"skill_badge_names"`
	// ArcadeGames == nil означает "неизвестно", это не то же самое, что 0
	ArcadeGames     *int     `json:"arcade_games"`
	ArcadeGameNames []string `json:"arcade_game_names"`
}

// ArcadeGamesOrZero возвращает количество аркадных игр, считая неизвестное значение нулём
func (p Participant) ArcadeGamesOrZero() int {
	if p.ArcadeGames == nil {
		return 0
	}
	return *p.ArcadeGames
}

// ArcadeGamesLabel возвращает строку для отображения: "-" для неизвестного значения
func (p Participant) ArcadeGamesLabel() string {
	if p.ArcadeGames == nil {
		return "-"
	}
	return strconv.Itoa(*p.ArcadeGames)
}

// IntPtr — helper для опциональных счётчиков
func IntPtr(v int) *int {
	return &v
}
