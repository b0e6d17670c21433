package ingest

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/yourusername/studyjams-leaderboard/internal/config"
	"github.com/yourusername/studyjams-leaderboard/internal/domain/entity"
)

// Стратегии синтеза идентификатора
const (
	IDStrategyPosition = "position"
	IDStrategyNatural  = "natural"
)

// ColumnMap — заголовки колонок для каждого поля участника
type ColumnMap struct {
	Name            string
	Email           string
	ProfileURL      string
	ProfileStatus   string
	AccessCode      string
	Redemption      string
	AllCompleted    string
	SkillBadges     string
	SkillBadgeNames string
	ArcadeGames     string
	ArcadeGameNames string
}

// Sentinels — значения ячеек, означающие "да". Сравнение чувствительно к регистру.
type Sentinels struct {
	ProfileComplete    string
	AccessCodeRedeemed string
	Redemption         string
	AllCompleted       string
}

// Normalizer превращает строки таблицы в записи участников
type Normalizer struct {
	columns    ColumnMap
	sentinels  Sentinels
	idStrategy string
	// allCompletedThreshold применяется, только если колонки all_completed нет в строке
	allCompletedThreshold int
}

// NewNormalizer создает нормализатор. Пустая стратегия означает "position".
func NewNormalizer(columns ColumnMap, sentinels Sentinels, idStrategy string, allCompletedThreshold int) *Normalizer {
	if idStrategy == "" {
		idStrategy = IDStrategyPosition
	}
	return &Normalizer{
		columns:               columns,
		sentinels:             sentinels,
		idStrategy:            idStrategy,
		allCompletedThreshold: allCompletedThreshold,
	}
}

// NewNormalizerFromConfig собирает нормализатор из секций конфигурации
func NewNormalizerFromConfig(cfg *config.Config) *Normalizer {
	c := cfg.Columns
	s := cfg.Sentinels
	return NewNormalizer(
		ColumnMap{
			Name:            c.Name,
			Email:           c.Email,
			ProfileURL:      c.ProfileURL,
			ProfileStatus:   c.ProfileStatus,
			AccessCode:      c.AccessCode,
			Redemption:      c.Redemption,
			AllCompleted:    c.AllCompleted,
			SkillBadges:     c.SkillBadges,
			SkillBadgeNames: c.SkillBadgeNames,
			ArcadeGames:     c.ArcadeGames,
			ArcadeGameNames: c.ArcadeGameNames,
		},
		Sentinels{
			ProfileComplete:    s.ProfileComplete,
			AccessCodeRedeemed: s.AccessCodeRedeemed,
			Redemption:         s.Redemption,
			AllCompleted:       s.AllCompleted,
		},
		cfg.Ingest.IDStrategy,
		cfg.Ingest.AllCompletedThreshold,
	)
}

// Normalize возвращает не более одной записи на строку и число пропущенных строк.
// Ошибки полей не пробрасываются: неполная строка либо получает значения по умолчанию, либо пропускается.
func (n *Normalizer) Normalize(rows []Row) ([]entity.Participant, int) {
	participants := make([]entity.Participant, 0, len(rows))
	skipped := 0
	ids := newIDAllocator()

	for _, row := range rows {
		p, ok := n.normalizeRow(row)
		if !ok {
			skipped++
			continue
		}

		switch n.idStrategy {
		case IDStrategyNatural:
			key := p.Email
			if key == "" {
				key = p.Name
			}
			p.ID = ids.allocate(naturalSlug(key))
		default:
			p.ID = positionID(p.Name, row.Index)
		}

		participants = append(participants, p)
	}
	return participants, skipped
}

func (n *Normalizer) normalizeRow(row Row) (entity.Participant, bool) {
	name := row.Text(n.columns.Name)
	// строка заголовка могла попасть в данные повторно
	if name == "" || name == n.columns.Name {
		return entity.Participant{}, false
	}

	p := entity.Participant{
		Name:                 name,
		Email:                row.Text(n.columns.Email),
		ProfileURL:           row.Text(n.columns.ProfileURL),
		ProfileURLStatus:     entity.ProfileURLIncomplete,
		AccessCodeRedemption: entity.AccessCodePending,
		RedemptionStatus:     matches(row, n.columns.Redemption, n.sentinels.Redemption),
		SkillBadges:          countOrZero(row, n.columns.SkillBadges),
		SkillBadgeNames:      splitNames(row.Text(n.columns.SkillBadgeNames)),
		ArcadeGames:          countOrUnknown(row, n.columns.ArcadeGames),
		ArcadeGameNames:      splitNames(row.Text(n.columns.ArcadeGameNames)),
	}

	if matches(row, n.columns.ProfileStatus, n.sentinels.ProfileComplete) {
		p.ProfileURLStatus = entity.ProfileURLComplete
	}
	if matches(row, n.columns.AccessCode, n.sentinels.AccessCodeRedeemed) {
		p.AccessCodeRedemption = entity.AccessCodeRedeemed
	}

	if _, ok := row.Get(n.columns.AllCompleted); ok {
		p.AllCompleted = matches(row, n.columns.AllCompleted, n.sentinels.AllCompleted)
	} else if n.allCompletedThreshold > 0 {
		p.AllCompleted = p.SkillBadges >= n.allCompletedThreshold
	}

	return p, true
}

func matches(row Row, label, sentinel string) bool {
	if sentinel == "" {
		return false
	}
	c, ok := row.Get(label)
	return ok && c.Text == sentinel
}

func countOrZero(row Row, label string) int {
	if v := countOrUnknown(row, label); v != nil {
		return *v
	}
	return 0
}

// countOrUnknown возвращает nil для пустой или нечисловой ячейки
func countOrUnknown(row Row, label string) *int {
	c, ok := row.Get(label)
	if !ok || c.Text == "" {
		return nil
	}
	if !c.IsNumber {
		// "12 badges" и подобное — берем ведущие цифры, если они есть
		v, err := strconv.Atoi(leadingDigits(c.Text))
		if err != nil {
			return nil
		}
		return entity.IntPtr(v)
	}
	v := int(math.Trunc(c.Number))
	if v < 0 {
		v = 0
	}
	return entity.IntPtr(v)
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// splitNames разбивает список через "|", обрезает пробелы и отбрасывает пустые элементы
func splitNames(text string) []string {
	names := []string{}
	if text == "" {
		return names
	}
	for _, part := range strings.Split(text, "|") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

// positionID: имя в нижнем регистре, пробельные последовательности заменены на "-", плюс позиция строки
func positionID(name string, index int) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-")) + "-" + strconv.Itoa(index)
}

func naturalSlug(key string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(key)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "participant"
	}
	return slug
}

type idAllocator struct {
	used map[string]struct{}
}

func newIDAllocator() *idAllocator {
	return &idAllocator{used: make(map[string]struct{})}
}

// allocate возвращает base, а при коллизии — base-2, base-3 и т.д. в порядке строк
func (a *idAllocator) allocate(base string) string {
	id := base
	for i := 2; ; i++ {
		if _, taken := a.used[id]; !taken {
			break
		}
		id = base + "-" + strconv.Itoa(i)
	}
	a.used[id] = struct{}{}
	return id
}
