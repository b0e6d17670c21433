package mock

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yourusername/studyjams-leaderboard/internal/config"
	"github.com/yourusername/studyjams-leaderboard/internal/domain/repository"
)

//go:embed participants.yaml
var defaultFixture []byte

// SourceName — имя источника для кеша и Outcome
const SourceName = "mock"

type fixtureParticipant struct {
	Name               string   `yaml:"name"`
	Email              string   `yaml:"email"`
	ProfileURL         string   `yaml:"profile_url"`
	ProfileComplete    bool     `yaml:"profile_complete"`
	AccessCodeRedeemed bool     `yaml:"access_code_redeemed"`
	AllCompleted       bool     `yaml:"all_completed"`
	SkillBadges        int      `yaml:"skill_badges"`
	SkillBadgeNames    []string `yaml:"skill_badge_names"`
	ArcadeGames        *int     `yaml:"arcade_games"`
	ArcadeGameNames    []string `yaml:"arcade_game_names"`
}

type fixture struct {
	Participants []fixtureParticipant `yaml:"participants"`
}

// Fetcher отдает фиксированный набор участников в виде CSV с настроенными заголовками,
// поэтому mock-режим проходит тот же разбор и нормализацию, что и удаленная таблица.
type Fetcher struct {
	body []byte
}

// NewFetcher создает Fetcher из встроенного набора данных
func NewFetcher(columns config.ColumnsConfig, sentinels config.SentinelsConfig) (*Fetcher, error) {
	return NewFetcherFromYAML(defaultFixture, columns, sentinels)
}

// NewFetcherFromYAML создает Fetcher из произвольного YAML-набора
func NewFetcherFromYAML(data []byte, columns config.ColumnsConfig, sentinels config.SentinelsConfig) (*Fetcher, error) {
	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("mock fixture: %w", err)
	}
	body, err := render(fx.Participants, columns, sentinels)
	if err != nil {
		return nil, fmt.Errorf("mock fixture: %w", err)
	}
	return &Fetcher{body: body}, nil
}

// Name возвращает имя источника
func (f *Fetcher) Name() string {
	return SourceName
}

// Fetch возвращает копию заранее подготовленного документа
func (f *Fetcher) Fetch(ctx context.Context) (*repository.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body := make([]byte, len(f.body))
	copy(body, f.body)
	return &repository.RawDocument{Body: body, Format: repository.FormatCSV, Source: SourceName}, nil
}

type column struct {
	label string
	value func(p fixtureParticipant) string
}

func render(participants []fixtureParticipant, c config.ColumnsConfig, s config.SentinelsConfig) ([]byte, error) {
	yesNo := func(ok bool, yes string) string {
		if ok {
			return yes
		}
		return "No"
	}

	all := []column{
		{c.Name, func(p fixtureParticipant) string { return p.Name }},
		{c.Email, func(p fixtureParticipant) string { return p.Email }},
		{c.ProfileURL, func(p fixtureParticipant) string { return p.ProfileURL }},
		{c.ProfileStatus, func(p fixtureParticipant) string {
			if p.ProfileComplete {
				return s.ProfileComplete
			}
			return "Incomplete"
		}},
		{c.AccessCode, func(p fixtureParticipant) string { return yesNo(p.AccessCodeRedeemed, s.AccessCodeRedeemed) }},
		{c.Redemption, func(p fixtureParticipant) string { return yesNo(p.AccessCodeRedeemed, s.Redemption) }},
		{c.AllCompleted, func(p fixtureParticipant) string { return yesNo(p.AllCompleted, s.AllCompleted) }},
		{c.SkillBadges, func(p fixtureParticipant) string { return strconv.Itoa(p.SkillBadges) }},
		{c.SkillBadgeNames, func(p fixtureParticipant) string { return strings.Join(p.SkillBadgeNames, " | ") }},
		{c.ArcadeGames, func(p fixtureParticipant) string {
			if p.ArcadeGames == nil {
				return ""
			}
			return strconv.Itoa(*p.ArcadeGames)
		}},
		{c.ArcadeGameNames, func(p fixtureParticipant) string { return strings.Join(p.ArcadeGameNames, " | ") }},
	}

	// одна колонка может обслуживать несколько полей — пишем ее один раз
	seen := make(map[string]bool, len(all))
	columns := make([]column, 0, len(all))
	for _, col := range all {
		if col.label == "" || seen[col.label] {
			continue
		}
		seen[col.label] = true
		columns = append(columns, col)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.label
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, p := range participants {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = col.value(p)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
