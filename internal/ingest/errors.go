package ingest

import (
	"fmt"
	"net/http"
)

// FetchError — сетевая ошибка или неуспешный ответ источника
type FetchError struct {
	Source     string
	StatusCode int
	Err        error
	// Permanent помечает сбой, который не исчезнет при повторе
	Permanent bool
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d %s", e.Source, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable сообщает, имеет ли смысл повторить запрос
func (e *FetchError) Retryable() bool {
	if e.Permanent {
		return false
	}
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ParseError — документ невозможно разобрать как таблицу
type ParseError struct {
	Format string
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
