package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/studyjams-leaderboard/internal/domain/entity"
	"github.com/yourusername/studyjams-leaderboard/internal/domain/repository"
)

// Pipeline связывает источник, разбор, нормализацию и ранжирование.
// Каждый вызов Run независим: данные заново читаются и разбираются целиком.
type Pipeline struct {
	fetcher    repository.SourceFetcher
	normalizer *Normalizer
	ranker     *Ranker
	sheet      string
	logger     *zap.Logger
	now        func() time.Time
}

// NewPipeline создает пайплайн. sheet используется только для xlsx.
func NewPipeline(fetcher repository.SourceFetcher, normalizer *Normalizer, ranker *Ranker, sheet string, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		fetcher:    fetcher,
		normalizer: normalizer,
		ranker:     ranker,
		sheet:      sheet,
		logger:     logger,
		now:        time.Now,
	}
}

// Source возвращает имя источника
func (p *Pipeline) Source() string {
	return p.fetcher.Name()
}

// Run выполняет один полный прогон. Возвращает *FetchError или *ParseError при сбое.
func (p *Pipeline) Run(ctx context.Context) (*entity.Leaderboard, error) {
	doc, err := p.fetcher.Fetch(ctx)
	if err != nil {
		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			err = &FetchError{Source: p.fetcher.Name(), Err: err}
		}
		return nil, err
	}

	rows, err := p.parse(doc)
	if err != nil {
		return nil, err
	}

	participants, skipped := p.normalizer.Normalize(rows)
	entries, thresholds := p.ranker.Rank(participants)

	outcome := entity.Outcome{
		Source:      doc.Source,
		FetchedAt:   p.now().UTC(),
		RowsSeen:    len(rows),
		RowsKept:    len(participants),
		RowsSkipped: skipped,
	}

	p.logger.Debug("ingestion finished",
		zap.String("source", outcome.Source),
		zap.Int("rows_seen", outcome.RowsSeen),
		zap.Int("rows_kept", outcome.RowsKept),
		zap.Int("rows_skipped", outcome.RowsSkipped),
		zap.String("formula", string(p.ranker.Formula())),
	)

	return &entity.Leaderboard{
		Entries:    entries,
		Thresholds: thresholds,
		Outcome:    outcome,
	}, nil
}

func (p *Pipeline) parse(doc *repository.RawDocument) ([]Row, error) {
	switch doc.Format {
	case repository.FormatCSV, "":
		return ParseCSV(bytes.NewReader(doc.Body))
	case repository.FormatXLSX:
		return ParseXLSX(bytes.NewReader(doc.Body), p.sheet)
	default:
		return nil, &ParseError{Format: doc.Format, Err: fmt.Errorf("unsupported format")}
	}
}
