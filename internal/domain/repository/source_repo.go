package repository

import "context"

// Форматы выгрузки таблицы
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// RawDocument — сырые данные источника до разбора
type RawDocument struct {
	Body   []byte
	Format string
	Source string
}

// SourceFetcher определяет источник табличных данных участников
type SourceFetcher interface {
	Fetch(ctx context.Context) (*RawDocument, error)
	// Name идентифицирует источник (URL или "mock") — используется как ключ кеша
	Name() string
}
