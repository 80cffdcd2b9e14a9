package session

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Frame is a parsed table: a header row and string cells.
type Frame struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// String renders the frame as a right-aligned text table with a leading
// row index column.
func (f *Frame) String() string {
	if f == nil || len(f.Columns) == 0 {
		return ""
	}
	index := make([]string, len(f.Rows))
	indexWidth := 0
	for i := range f.Rows {
		index[i] = strconv.Itoa(i)
		indexWidth = maxInt(indexWidth, len(index[i]))
	}
	widths := make([]int, len(f.Columns))
	for j, c := range f.Columns {
		widths[j] = utf8.RuneCountInString(c)
	}
	for _, row := range f.Rows {
		for j := range f.Columns {
			widths[j] = maxInt(widths[j], utf8.RuneCountInString(cell(row, j)))
		}
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", indexWidth))
	for j, c := range f.Columns {
		b.WriteString("  ")
		b.WriteString(padLeft(c, widths[j]))
	}
	for i, row := range f.Rows {
		b.WriteByte('\n')
		b.WriteString(padRight(index[i], indexWidth))
		for j := range f.Columns {
			b.WriteString("  ")
			b.WriteString(padLeft(cell(row, j), widths[j]))
		}
	}
	return b.String()
}

func cell(row []string, j int) string {
	if j < len(row) {
		return row[j]
	}
	return ""
}

func padLeft(s string, w int) string {
	n := utf8.RuneCountInString(s)
	if n >= w {
		return s
	}
	return strings.Repeat(" ", w-n) + s
}

func padRight(s string, w int) string {
	n := utf8.RuneCountInString(s)
	if n >= w {
		return s
	}
	return s + strings.Repeat(" ", w-n)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
