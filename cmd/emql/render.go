package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/koba/emql/internal/executor"
	"github.com/koba/emql/internal/schema"
)

var (
	primaryColor = lipgloss.Color("#8B5CF6")
	borderColor  = lipgloss.Color("#334155")
	mutedColor   = lipgloss.Color("#94A3B8")
	errorColor   = lipgloss.Color("#EF4444")

	headerStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	nullStyle = cellStyle.
			Foreground(mutedColor).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)
)

// renderResult prints a SELECT as a table followed by a status line, and any
// other statement as its message
func renderResult(w io.Writer, result *executor.Result, elapsed time.Duration) {
	if result.Columns == nil {
		fmt.Fprintln(w, statusStyle.Render(fmt.Sprintf("%s (%s)", result.Message, elapsed.Round(time.Microsecond))))
		return
	}

	fmt.Fprintln(w, resultTable(result.Columns, result.Rows))
	fmt.Fprintln(w, statusStyle.Render(fmt.Sprintf("%s %s (%s)",
		humanize.Comma(int64(len(result.Rows))), plural(len(result.Rows), "row", "rows"), elapsed.Round(time.Microsecond))))
}

func renderError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("error: ")+err.Error())
}

// resultTable renders rows under their column headers
func resultTable(columns []string, rows []schema.Row) string {
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(columns))
		for j, col := range columns {
			cells[i][j] = formatCell(row[col])
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers(columns...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			// Row 0 is the header, data rows start at 1
			if row == 0 {
				return headerStyle
			}
			if rows[row-1][columns[col]] == nil {
				return nullStyle
			}
			return cellStyle
		})

	return t.String()
}

// formatCell shows text unquoted and everything else as a literal
func formatCell(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return schema.FormatLiteral(v)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
