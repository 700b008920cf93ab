package main

import (
	"fmt"
	"strings"

	"github.com/gopherdb/notionsql/row"
)

const (
	emptyCellValue   = "NULL"
	emptyHeaderValue = "<anonymous>"
)

// printTable renders headers and rows as fixed-width, pipe-separated
// columns, with a NULL sentinel for absent values.
func printTable(headers []string, rows []row.Row) string {
	widths := columnWidths(headers, rows)

	var b strings.Builder
	headerCells := make([]string, len(headers))
	for i, h := range headers {
		headerCells[i] = fallback(h, emptyHeaderValue)
	}
	writeLine(&b, headerCells, widths)
	writeSeparator(&b, widths)
	for _, r := range rows {
		cells := make([]string, len(r.Values))
		for i, v := range r.Values {
			cells[i] = cellString(v)
		}
		writeLine(&b, cells, widths)
	}
	if len(rows) == 0 {
		b.WriteString("(0 rows)\n")
	}
	return b.String()
}

func cellString(v any) string {
	if v == nil {
		return emptyCellValue
	}
	return fmt.Sprintf("%v", v)
}

func columnWidths(headers []string, rows []row.Row) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(fallback(h, emptyHeaderValue))
	}
	for _, r := range rows {
		for i, v := range r.Values {
			if i >= len(widths) {
				continue
			}
			if l := len(cellString(v)); l > widths[i] {
				widths[i] = l
			}
		}
	}
	return widths
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func writeLine(b *strings.Builder, cells []string, widths []int) {
	for i, c := range cells {
		fmt.Fprintf(b, " %-*s ", widths[i], c)
		if i != len(cells)-1 {
			b.WriteByte('|')
		}
	}
	b.WriteByte('\n')
}

func writeSeparator(b *strings.Builder, widths []int) {
	for i, w := range widths {
		b.WriteByte('-')
		b.WriteString(strings.Repeat("-", w))
		b.WriteByte('-')
		if i != len(widths)-1 {
			b.WriteByte('+')
		}
	}
	b.WriteByte('\n')
}
