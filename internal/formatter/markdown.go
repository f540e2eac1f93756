// Package formatter renders joined reports as aligned terminal and markdown tables.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// minCellWidth keeps markdown separators at least "---".
const minCellWidth = 3

// FormatMarkdown re-aligns every pipe table found in content. Other lines are kept as is.
func FormatMarkdown(content string) string {
	lines := strings.Split(content, "\n")

	var (
		out   []string
		table []string
	)

	flush := func() {
		if len(table) > 0 {
			out = append(out, alignMarkdownTable(table)...)
			table = nil
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
			table = append(table, line)

			continue
		}

		flush()

		out = append(out, line)
	}

	flush()

	return strings.Join(out, "\n")
}

// RenderMarkdownTable renders headers and rows as a pipe table padded by display width.
func RenderMarkdownTable(headers []string, rows [][]string) string {
	all := make([][]string, 0, len(rows)+1)
	all = append(all, headers)
	all = append(all, rows...)

	return strings.Join(renderMarkdown(all, true), "\n") + "\n"
}

func alignMarkdownTable(lines []string) []string {
	if len(lines) < 2 {
		return lines
	}

	cells := make([][]string, 0, len(lines))
	for _, line := range lines {
		cells = append(cells, splitMarkdownRow(line))
	}

	if !isSeparatorRow(cells[1]) {
		return renderMarkdown(cells, false)
	}

	body := make([][]string, 0, len(cells)-1)
	body = append(body, cells[0])
	body = append(body, cells[2:]...)

	return renderMarkdown(body, true)
}

func splitMarkdownRow(line string) []string {
	parts := strings.Split(strings.TrimSpace(line), "|")

	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}

	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}

	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}

	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if strings.Trim(c, "-: ") != "" {
			return false
		}
	}

	return true
}

// renderMarkdown writes rows as pipe rows. With header set, a separator follows the first row.
func renderMarkdown(rows [][]string, header bool) []string {
	widths := columnWidths(rows, minCellWidth)

	out := make([]string, 0, len(rows)+1)

	for i, row := range rows {
		out = append(out, markdownRow(row, widths))

		if header && i == 0 {
			sep := make([]string, len(widths))
			for j, w := range widths {
				sep[j] = strings.Repeat("-", w)
			}

			out = append(out, markdownRow(sep, widths))
		}
	}

	return out
}

func markdownRow(row []string, widths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, w := range widths {
		sb.WriteString(" ")
		sb.WriteString(pad(cellAt(row, j), w, false))
		sb.WriteString(" |")
	}

	return sb.String()
}

func columnWidths(rows [][]string, minWidth int) []int {
	count := 0
	for _, row := range rows {
		count = max(count, len(row))
	}

	widths := make([]int, count)
	for i := range widths {
		widths[i] = minWidth
	}

	for _, row := range rows {
		for j, c := range row {
			widths[j] = max(widths[j], runewidth.StringWidth(c))
		}
	}

	return widths
}

func cellAt(row []string, j int) string {
	if j < len(row) {
		return row[j]
	}

	return ""
}

// pad fills s to width display columns, on the left when right is set.
func pad(s string, width int, right bool) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}

	if right {
		return strings.Repeat(" ", gap) + s
	}

	return s + strings.Repeat(" ", gap)
}
