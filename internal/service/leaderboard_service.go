package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yourusername/studyjams-leaderboard/internal/domain/entity"
	"github.com/yourusername/studyjams-leaderboard/internal/domain/repository"
	apperrors "github.com/yourusername/studyjams-leaderboard/internal/pkg/errors"
)

// LeaderboardSource — один полный прогон ingestion-пайплайна (реализуется ingest.Pipeline)
type LeaderboardSource interface {
	Run(ctx context.Context) (*entity.Leaderboard, error)
	Source() string
}

// Filter — параметры поиска по лидерборду
type Filter struct {
	Query        string
	Tier         entity.Tier
	EligibleOnly bool
}

// SearchResult — отфильтрованная часть лидерборда. Ранги остаются глобальными.
type SearchResult struct {
	Participants []entity.RankedEntry `json:"participants"`
	Total        int                  `json:"total"`
	Outcome      entity.Outcome       `json:"outcome"`
}

// Stats — сводка для карточек на главной странице
type Stats struct {
	Total      int               `json:"total"`
	Eligible   int               `json:"eligible"`
	Gold       int               `json:"gold"`
	Silver     int               `json:"silver"`
	Bronze     int               `json:"bronze"`
	Thresholds entity.Thresholds `json:"thresholds"`
	Outcome    entity.Outcome    `json:"outcome"`
}

// LeaderboardService отдает рейтинг участников.
// Одновременные запросы к одному источнику схлопываются в один прогон (singleflight),
// успешный результат кешируется на cacheTTL, если настроен cacheRepo.
// Возвращаемый *entity.Leaderboard разделяется между вызывающими и не должен изменяться.
type LeaderboardService struct {
	source    LeaderboardSource
	cacheRepo repository.CacheRepository
	cacheTTL  time.Duration
	keyPrefix string
	group     singleflight.Group
	logger    *zap.Logger
	now       func() time.Time
}

// NewLeaderboardService создает сервис. cacheRepo может быть nil — тогда кеш отключен.
func NewLeaderboardService(
	source LeaderboardSource,
	cacheRepo repository.CacheRepository,
	cacheTTL time.Duration,
	keyPrefix string,
	logger *zap.Logger,
) *LeaderboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if keyPrefix == "" {
		keyPrefix = "leaderboard:snapshot"
	}
	return &LeaderboardService{
		source:    source,
		cacheRepo: cacheRepo,
		cacheTTL:  cacheTTL,
		keyPrefix: keyPrefix,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *LeaderboardService) cacheKey() string {
	return s.keyPrefix + ":" + s.source.Source()
}

func (s *LeaderboardService) cacheEnabled() bool {
	return s.cacheRepo != nil && s.cacheTTL > 0
}

// Leaderboard возвращает текущий рейтинг. Ошибки источника и разбора не пробрасываются:
// они логируются, а вызывающий получает пустой рейтинг с Outcome.Degraded = true.
func (s *LeaderboardService) Leaderboard(ctx context.Context) *entity.Leaderboard {
	key := s.cacheKey()

	if s.cacheEnabled() {
		var cached entity.Leaderboard
		err := s.cacheRepo.GetJSON(ctx, key, &cached)
		switch {
		case err == nil:
			return &cached
		case !errors.Is(err, apperrors.ErrNotFound):
			s.logger.Warn("leaderboard cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	v, _, _ := s.group.Do(key, func() (interface{}, error) {
		// отмена одного запроса не должна ронять остальных ожидающих
		runCtx := context.WithoutCancel(ctx)
		board, err := s.source.Run(runCtx)
		if err != nil {
			s.logger.Error("leaderboard ingestion failed, serving empty leaderboard",
				zap.String("source", s.source.Source()),
				zap.Error(err),
			)
			return s.degraded(err), nil
		}

		if s.cacheEnabled() {
			if cacheErr := s.cacheRepo.SetJSON(runCtx, key, board, s.cacheTTL); cacheErr != nil {
				s.logger.Warn("leaderboard cache write failed", zap.String("key", key), zap.Error(cacheErr))
			}
		}
		return board, nil
	})
	return v.(*entity.Leaderboard)
}

func (s *LeaderboardService) degraded(err error) *entity.Leaderboard {
	return &entity.Leaderboard{
		Entries:    []entity.RankedEntry{},
		Thresholds: entity.Thresholds{Gold: -1, Silver: -1, Bronze: -1},
		Outcome: entity.Outcome{
			Source:    s.source.Source(),
			FetchedAt: s.now().UTC(),
			Degraded:  true,
			Error:     err.Error(),
		},
	}
}

// Refresh сбрасывает кеш и заново читает источник
func (s *LeaderboardService) Refresh(ctx context.Context) *entity.Leaderboard {
	key := s.cacheKey()
	if s.cacheEnabled() {
		if err := s.cacheRepo.Delete(ctx, key); err != nil {
			s.logger.Warn("leaderboard cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
	}
	s.group.Forget(key)
	return s.Leaderboard(ctx)
}

// FindParticipant ищет участника по идентификатору линейным проходом по текущему рейтингу
func (s *LeaderboardService) FindParticipant(ctx context.Context, id string) (*entity.RankedEntry, error) {
	board := s.Leaderboard(ctx)
	for i := range board.Entries {
		if board.Entries[i].ID == id {
			entry := board.Entries[i]
			return &entry, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// Search фильтрует рейтинг по подстроке имени (без учета регистра), классу и признаку "все выполнено"
func (s *LeaderboardService) Search(ctx context.Context, f Filter) *SearchResult {
	board := s.Leaderboard(ctx)
	return &SearchResult{
		Participants: FilterEntries(board.Entries, f),
		Total:        len(board.Entries),
		Outcome:      board.Outcome,
	}
}

// FilterEntries отбирает записи по фильтру, сохраняя порядок рейтинга
func FilterEntries(entries []entity.RankedEntry, f Filter) []entity.RankedEntry {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	matched := make([]entity.RankedEntry, 0, len(entries))
	for _, e := range entries {
		if query != "" && !strings.Contains(strings.ToLower(e.Name), query) {
			continue
		}
		if f.Tier != entity.TierNone && e.Tier != f.Tier {
			continue
		}
		if f.EligibleOnly && !e.AllCompleted {
			continue
		}
		matched = append(matched, e)
	}
	return matched
}

// Stats считает участников, прошедших все задания, и распределение по классам
func (s *LeaderboardService) Stats(ctx context.Context) *Stats {
	return StatsOf(s.Leaderboard(ctx))
}

// StatsOf считает сводку по готовому снимку рейтинга
func StatsOf(board *entity.Leaderboard) *Stats {
	st := &Stats{
		Total:      len(board.Entries),
		Thresholds: board.Thresholds,
		Outcome:    board.Outcome,
	}
	for _, e := range board.Entries {
		if e.AllCompleted {
			st.Eligible++
		}
		switch e.Tier {
		case entity.TierGold:
			st.Gold++
		case entity.TierSilver:
			st.Silver++
		case entity.TierBronze:
			st.Bronze++
		}
	}
	return st
}

// ScoreProjection строит проекцию {name, score} для генерации инсайтов
func ScoreProjection(entries []entity.RankedEntry) []entity.ScoreEntry {
	out := make([]entity.ScoreEntry, len(entries))
	for i, e := range entries {
		out[i] = entity.ScoreEntry{Name: e.Name, Score: e.Score}
	}
	return out
}
