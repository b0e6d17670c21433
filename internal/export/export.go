package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/studyjams-leaderboard/internal/domain/entity"
)

// Поддерживаемые форматы выгрузки
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const sheetName = "Leaderboard"

var header = []string{
	"Rank", "Name", "Score", "Tier", "Skill Badges", "Arcade Games",
	"All Completed", "Profile Status", "Access Code", "Skill Badge Names", "Arcade Game Names",
}

// ContentType возвращает MIME-тип для формата
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write пишет рейтинг в w в указанном формате
func Write(w io.Writer, format string, entries []entity.RankedEntry) error {
	switch format {
	case FormatCSV, "":
		return WriteCSV(w, entries)
	case FormatXLSX:
		return WriteXLSX(w, entries)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteCSV пишет CSV с BOM, чтобы Excel правильно определил UTF-8
func WriteCSV(w io.Writer, entries []entity.RankedEntry) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writer.Write(textRow(e)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX пишет книгу с одним листом через StreamWriter
func WriteXLSX(w io.Writer, entries []entity.RankedEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		return err
	}

	// строки пишутся в xlsx значениями, а не формулами, поэтому экранирование не нужно
	for i, e := range entries {
		// неизвестное значение оставляем пустой ячейкой, а не нулём
		var arcade interface{}
		if e.ArcadeGames != nil {
			arcade = *e.ArcadeGames
		}
		row := []interface{}{
			e.Rank,
			e.Name,
			e.Score,
			string(e.Tier),
			e.SkillBadges,
			arcade,
			yesNo(e.AllCompleted),
			string(e.ProfileURLStatus),
			string(e.AccessCodeRedemption),
			strings.Join(e.SkillBadgeNames, " | "),
			strings.Join(e.ArcadeGameNames, " | "),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

func textRow(e entity.RankedEntry) []string {
	arcade := ""
	if e.ArcadeGames != nil {
		arcade = strconv.Itoa(*e.ArcadeGames)
	}
	return []string{
		strconv.Itoa(e.Rank),
		sanitizeForExcel(e.Name),
		strconv.Itoa(e.Score),
		string(e.Tier),
		strconv.Itoa(e.SkillBadges),
		arcade,
		yesNo(e.AllCompleted),
		string(e.ProfileURLStatus),
		string(e.AccessCodeRedemption),
		sanitizeForExcel(strings.Join(e.SkillBadgeNames, " | ")),
		sanitizeForExcel(strings.Join(e.ArcadeGameNames, " | ")),
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// sanitizeForExcel экранирует ячейки CSV, которые Excel открыл бы как формулу
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
