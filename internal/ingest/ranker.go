package ingest

import (
	"fmt"
	"slices"
	"sort"

	"github.com/yourusername/studyjams-leaderboard/internal/domain/entity"
)

// ScoreFormula определяет, как из записи участника получается число очков
type ScoreFormula string

const (
	// FormulaSkillBadges — только количество значков навыков
	FormulaSkillBadges ScoreFormula = "skill_badges"
	// FormulaSkillBadgesPlusArcade — значки плюс аркадные игры (неизвестное значение считается нулём)
	FormulaSkillBadgesPlusArcade ScoreFormula = "skill_badges_plus_arcade"
)

// ParseScoreFormula проверяет значение из конфигурации
func ParseScoreFormula(s string) (ScoreFormula, error) {
	switch f := ScoreFormula(s); f {
	case FormulaSkillBadges, FormulaSkillBadgesPlusArcade:
		return f, nil
	case "":
		return FormulaSkillBadges, nil
	default:
		return "", fmt.Errorf("unknown score formula %q", s)
	}
}

// Score вычисляет очки участника
func (f ScoreFormula) Score(p *entity.Participant) int {
	if f == FormulaSkillBadgesPlusArcade {
		return p.SkillBadges + p.ArcadeGamesOrZero()
	}
	return p.SkillBadges
}

// Ranker сортирует участников и назначает ранги и классы
type Ranker struct {
	formula        ScoreFormula
	medalThreshold int
}

// NewRanker создает Ranker. medalThreshold <= 0 отключает медали.
func NewRanker(formula ScoreFormula, medalThreshold int) *Ranker {
	if formula == "" {
		formula = FormulaSkillBadges
	}
	return &Ranker{formula: formula, medalThreshold: medalThreshold}
}

// Formula возвращает используемую формулу
func (r *Ranker) Formula() ScoreFormula {
	return r.formula
}

// Rank выполняет стабильную сортировку по убыванию очков: равные очки сохраняют порядок входа.
// Ранг — позиция в отсортированном списке + 1. Класс считается по трем наибольшим
// различным значениям очков, так что участники с одинаковыми очками получают одинаковый класс.
func (r *Ranker) Rank(participants []entity.Participant) ([]entity.RankedEntry, entity.Thresholds) {
	entries := make([]entity.RankedEntry, len(participants))
	for i := range participants {
		entries[i] = entity.RankedEntry{
			Participant: participants[i],
			Score:       r.formula.Score(&participants[i]),
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	thresholds := distinctThresholds(entries)
	for i := range entries {
		entries[i].Rank = i + 1
		entries[i].Tier = tierFor(entries[i].Score, thresholds)
		entries[i].Medal = r.medalThreshold > 0 && entries[i].SkillBadges >= r.medalThreshold
	}
	return entries, thresholds
}

func distinctThresholds(sorted []entity.RankedEntry) entity.Thresholds {
	distinct := make([]int, 0, 3)
	for _, e := range sorted {
		if len(distinct) == 3 {
			break
		}
		if !slices.Contains(distinct, e.Score) {
			distinct = append(distinct, e.Score)
		}
	}

	t := entity.Thresholds{Gold: -1, Silver: -1, Bronze: -1}
	if len(distinct) > 0 {
		t.Gold = distinct[0]
	}
	if len(distinct) > 1 {
		t.Silver = distinct[1]
	}
	if len(distinct) > 2 {
		t.Bronze = distinct[2]
	}
	return t
}

func tierFor(score int, t entity.Thresholds) entity.Tier {
	switch {
	case t.Gold != -1 && score >= t.Gold:
		return entity.TierGold
	case t.Silver != -1 && score >= t.Silver:
		return entity.TierSilver
	case t.Bronze != -1 && score >= t.Bronze:
		return entity.TierBronze
	}
	return entity.TierNone
}
