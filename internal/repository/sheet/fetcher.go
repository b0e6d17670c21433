package sheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/studyjams-leaderboard/internal/domain/repository"
	"github.com/yourusername/studyjams-leaderboard/internal/ingest"
)

// defaultMaxBodySize ограничивает размер выгрузки (таблица на десятки участников весит килобайты)
const defaultMaxBodySize = 10 << 20

// ErrBodyTooLarge возвращается, если выгрузка больше MaxBodySize. Не повторяется.
var ErrBodyTooLarge = errors.New("response body too large")

// Options содержит параметры HTTP-запроса к опубликованной таблице
type Options struct {
	URL            string
	Format         string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// MaxBodySize в байтах, 0 — значение по умолчанию
	MaxBodySize int64
}

// Fetcher читает выгрузку опубликованной таблицы по URL
type Fetcher struct {
	opts   Options
	client *http.Client
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewFetcher создает Fetcher. client == nil — используется http.Client с таймаутом из opts.
func NewFetcher(opts Options, client *http.Client, logger *zap.Logger) (*Fetcher, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("sheet fetcher: url is required")
	}
	if opts.Format == "" {
		opts.Format = repository.FormatCSV
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 300 * time.Millisecond
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = opts.InitialBackoff
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = defaultMaxBodySize
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		opts:   opts,
		client: client,
		logger: logger,
		sleep:  sleepCtx,
	}, nil
}

// Name возвращает URL источника
func (f *Fetcher) Name() string {
	return f.opts.URL
}

// Fetch загружает документ. Сетевые ошибки, 429 и 5xx повторяются с экспоненциальной задержкой.
func (f *Fetcher) Fetch(ctx context.Context) (*repository.RawDocument, error) {
	var lastErr *ingest.FetchError
	backoff := f.opts.InitialBackoff

	for attempt := 1; attempt <= f.opts.MaxAttempts; attempt++ {
		body, err := f.fetchOnce(ctx)
		if err == nil {
			return &repository.RawDocument{Body: body, Format: f.opts.Format, Source: f.opts.URL}, nil
		}
		lastErr = err

		if ctx.Err() != nil || !err.Retryable() || attempt == f.opts.MaxAttempts {
			break
		}

		f.logger.Warn("sheet fetch failed, retrying",
			zap.String("url", f.opts.URL),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		if sleepErr := f.sleep(ctx, backoff); sleepErr != nil {
			return nil, &ingest.FetchError{Source: f.opts.URL, Err: sleepErr}
		}
		backoff *= 2
		if backoff > f.opts.MaxBackoff {
			backoff = f.opts.MaxBackoff
		}
	}
	return nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context) ([]byte, *ingest.FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.opts.URL, nil)
	if err != nil {
		return nil, &ingest.FetchError{Source: f.opts.URL, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &ingest.FetchError{Source: f.opts.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// дочитываем тело, чтобы соединение вернулось в пул
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &ingest.FetchError{Source: f.opts.URL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodySize+1))
	if err != nil {
		return nil, &ingest.FetchError{Source: f.opts.URL, Err: err}
	}
	if int64(len(body)) > f.opts.MaxBodySize {
		// тот же URL вернет тот же размер, повтор бесполезен
		return nil, &ingest.FetchError{Source: f.opts.URL, Err: ErrBodyTooLarge, Permanent: true}
	}
	return body, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
