package digest

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

// RawRow — первая строка первой таблицы ответа бэкенда: до десяти ячеек
// в фиксированном порядке. Может быть короче десяти или вовсе пустой —
// это валидное состояние (частичные данные), а не ошибка.
type RawRow []gjson.Result

// Порядок колонок в строке ответа. Единственное место в коде, которое
// знает про позиционную раскладку: смена схемы бэкенда ломает ровно
// один юнит-тест, а не молча портит половину дайджеста.
const (
	colTotalRequests = iota
	colFailedRequests
	colRequestsDuration
	colTotalDependencies
	colFailedDependencies
	colDependenciesDuration
	colTotalViews
	colTotalExceptions
	colOverallAvailability
	colAvailabilityDuration
)

// Assemble превращает сырую строку в Digest. Никогда не падает:
// отсутствующая, null или неприводимая ячейка дает пустое поле,
// остальные поля заполняются независимо.
func Assemble(row RawRow) Digest {
	return Digest{
		TotalRequests:        intCell(row, colTotalRequests),
		FailedRequests:       intCell(row, colFailedRequests),
		RequestsDuration:     textCell(row, colRequestsDuration),
		TotalDependencies:    intCell(row, colTotalDependencies),
		FailedDependencies:   intCell(row, colFailedDependencies),
		DependenciesDuration: textCell(row, colDependenciesDuration),
		TotalViews:           intCell(row, colTotalViews),
		TotalExceptions:      intCell(row, colTotalExceptions),
		OverallAvailability:  textCell(row, colOverallAvailability),
		AvailabilityDuration: textCell(row, colAvailabilityDuration),
	}
}

// intCell достает целочисленную ячейку и форматирует ее с разделителями
// тысяч. Отсутствие значения — пустая строка, никогда не ноль.
func intCell(row RawRow, i int) string {
	if i >= len(row) || row[i].Type == gjson.Null {
		return ""
	}
	return formatThousands(cast.ToInt64(row[i].Value()))
}

// textCell пробрасывает уже отформатированный бэкендом текст
// (включая литерал-заглушку '------') без изменений.
func textCell(row RawRow, i int) string {
	if i >= len(row) || row[i].Type == gjson.Null {
		return ""
	}
	return row[i].String()
}

// formatThousands форматирует целое с запятыми-разделителями: 1234567 → "1,234,567".
func formatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if n < 0 {
		return "-" + insertCommas(s[1:])
	}
	return insertCommas(s)
}

// insertCommas вставляет запятую после каждых трех цифр справа.
func insertCommas(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var buf strings.Builder
	lead := n % 3
	if lead > 0 {
		buf.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(s[i : i+3])
	}
	return buf.String()
}
