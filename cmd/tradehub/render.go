package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tradehub/internal/perf"
	"tradehub/internal/util"
)

// Styles.
var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	colHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	labelStyle     = lipgloss.NewStyle().Width(14)
)

func freshnessStyle(f util.Freshness) lipgloss.Style {
	switch f {
	case util.FreshUpToDate:
		return gainStyle
	case util.FreshLate:
		return warnStyle
	default:
		return lossStyle
	}
}

// freshnessLine renders the coverage status message for the newest file.
func freshnessLine(lastEnd string, daysBehind int) string {
	f := util.ClassifyFreshness(daysBehind)
	var msg string
	switch f {
	case util.FreshUpToDate:
		msg = fmt.Sprintf("data is up to date (last update %s)", lastEnd)
	default:
		msg = fmt.Sprintf("data is %d days late (last update %s)", daysBehind, lastEnd)
	}
	return freshnessStyle(f).Render(msg)
}

// signedStyle colours a value by its sign.
func signedStyle(v float64) lipgloss.Style {
	switch {
	case v > 0:
		return gainStyle
	case v < 0:
		return lossStyle
	default:
		return lipgloss.NewStyle()
	}
}

func pct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v*100)
}

// writeTable renders rows under a header with left-aligned padded columns.
func writeTable(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	pad := func(cell string, width int) string {
		return cell + strings.Repeat(" ", width-lipgloss.Width(cell))
	}

	var b strings.Builder
	for i, h := range header {
		b.WriteString(colHeaderStyle.Render(pad(h, widths[i])))
		b.WriteString("  ")
	}
	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	for _, row := range rows {
		b.Reset()
		for i, cell := range row {
			b.WriteString(pad(cell, widths[i]))
			b.WriteString("  ")
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

// writeMetrics prints a metrics block with undefined values shown as n/a.
func writeMetrics(w io.Writer, m perf.Metrics) {
	line := func(label, value string, style lipgloss.Style) {
		fmt.Fprintf(w, "%s%s\n", labelStyle.Render(label), style.Render(value))
	}
	line("Total return", pct(m.TotalReturn), signedStyle(m.TotalReturn))
	if m.CAGR != nil {
		line("CAGR", pct(*m.CAGR), signedStyle(*m.CAGR))
	} else {
		line("CAGR", "n/a", dimStyle)
	}
	line("Max drawdown", pct(m.MaxDrawdown), signedStyle(m.MaxDrawdown))
	if math.IsNaN(m.Sharpe) {
		line("Sharpe", "n/a", dimStyle)
	} else {
		line("Sharpe", fmt.Sprintf("%.3f", m.Sharpe), signedStyle(m.Sharpe))
	}
}
