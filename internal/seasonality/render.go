package seasonality

import (
	"fmt"
	"math"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/rxtech-lab/argo-quotes/internal/types"
)

// Style definitions.
var (
	// TitleStyle for the report heading.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for the footnote.
	HelpStyle = lipgloss.NewStyle().Faint(true)
)

const (
	mayOctTitle = "May-Oct"
	novAprTitle = "Nov-Apr"
)

// Render formats a report as a per-year table followed by the summary statistics.
func Render(report Report) string {
	title := TitleStyle.Render(fmt.Sprintf("%s half-year returns, %s to %s",
		report.Symbol, report.From.Format(types.DateLayout), report.To.Format(types.DateLayout)))

	years := make([]table.Row, 0, len(report.Years))
	for _, y := range report.Years {
		years = append(years, table.Row{strconv.Itoa(y.Year), formatPct(y.MayOct * 100), formatPct(y.NovApr * 100)})
	}

	summary := []table.Row{
		{"Mean return", formatPct(report.MayOct.MeanPct), formatPct(report.NovApr.MeanPct)},
		{"Std deviation", formatPct(report.MayOct.StdDevPct), formatPct(report.NovApr.StdDevPct)},
		{"Winning periods", strconv.Itoa(report.MayOct.Wins), strconv.Itoa(report.NovApr.Wins)},
		{"Losing periods", strconv.Itoa(report.MayOct.Losses), strconv.Itoa(report.NovApr.Losses)},
		{"Win rate", formatPct(report.MayOct.WinRate * 100), formatPct(report.NovApr.WinRate * 100)},
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		newTable("Year", 8, years).View(),
		"",
		newTable("Statistic", 18, summary).View(),
		"",
		HelpStyle.Render("May-Oct is read at October month end, Nov-Apr at April month end."),
	)
}

// newTable creates a static table with the two half-year columns.
func newTable(firstTitle string, firstWidth int, rows []table.Row) table.Model {
	columns := []table.Column{
		{Title: firstTitle, Width: firstWidth},
		{Title: mayOctTitle, Width: 10},
		{Title: novAprTitle, Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	// nothing is selectable in a printed report
	s.Selected = lipgloss.NewStyle()

	t.SetStyles(s)
	t.SetHeight(len(rows) + lipgloss.Height(s.Header.Render(firstTitle)))

	return t
}

func formatPct(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}

	return fmt.Sprintf("%.2f%%", v)
}
