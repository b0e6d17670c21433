package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	errEmptyDocument = errors.New("document has no header row")
	errNoSheets      = errors.New("workbook has no sheets")
)

// Cell — значение ячейки. Если текст похож на число, оно сохраняется в Number.
type Cell struct {
	Text     string
	Number   float64
	IsNumber bool
}

// Row — одна строка данных: заголовок колонки -> значение
type Row struct {
	// Index — позиция строки среди строк данных (с нуля, без заголовка и пустых строк)
	Index int
	Cells map[string]Cell
}

// Get возвращает ячейку по заголовку колонки
func (r Row) Get(label string) (Cell, bool) {
	if label == "" {
		return Cell{}, false
	}
	c, ok := r.Cells[label]
	return c, ok
}

// Text возвращает обрезанный текст ячейки или пустую строку
func (r Row) Text(label string) string {
	c, _ := r.Get(label)
	return c.Text
}

// ParseCSV разбирает CSV-выгрузку таблицы. Первая непустая строка — заголовок.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // строки разной длины допустимы

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			perr := &ParseError{Format: "csv", Err: err}
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				perr.Line = csvErr.Line
			}
			return nil, perr
		}
		records = append(records, rec)
	}

	rows, err := buildRows(records)
	if err != nil {
		return nil, &ParseError{Format: "csv", Err: err}
	}
	return rows, nil
}

// ParseXLSX разбирает xlsx-выгрузку. Пустое имя листа — первый лист книги.
func ParseXLSX(r io.Reader, sheet string) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Format: "xlsx", Err: err}
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &ParseError{Format: "xlsx", Err: errNoSheets}
		}
		sheet = sheets[0]
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{Format: "xlsx", Err: err}
	}

	rows, err := buildRows(records)
	if err != nil {
		return nil, &ParseError{Format: "xlsx", Err: err}
	}
	return rows, nil
}

func buildRows(records [][]string) ([]Row, error) {
	headerAt := -1
	for i, rec := range records {
		if !isBlank(rec) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, errEmptyDocument
	}

	header := make([]string, len(records[headerAt]))
	for i, label := range records[headerAt] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(label, "\ufeff"))
	}

	rows := make([]Row, 0, len(records)-headerAt-1)
	for _, rec := range records[headerAt+1:] {
		if isBlank(rec) {
			continue
		}
		cells := make(map[string]Cell, len(header))
		for i, label := range header {
			if label == "" || i >= len(rec) {
				continue
			}
			// при дублирующихся заголовках побеждает первая колонка
			if _, dup := cells[label]; dup {
				continue
			}
			cells[label] = newCell(rec[i])
		}
		rows = append(rows, Row{Index: len(rows), Cells: cells})
	}
	return rows, nil
}

func newCell(raw string) Cell {
	text := strings.TrimSpace(raw)
	c := Cell{Text: text}
	if text == "" {
		return c
	}
	if n, err := strconv.ParseFloat(text, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		c.Number = n
		c.IsNumber = true
	}
	return c
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
