package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/renjie/prism-power/pkg/core/domain"
)

const notAvailableText = "Battery usage data not available"

var (
	colorSystem  = lipgloss.Color("#7f849c")
	colorApp     = lipgloss.Color("#89b4fa")
	colorHeader  = lipgloss.Color("#f9e2af")
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorHeader).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	captionStyle = lipgloss.NewStyle().Foreground(colorSystem)
)

// render 按输出格式打印排行结果
func render(w io.Writer, summary *domain.UsageSummary, format string) error {
	switch strings.ToLower(format) {
	case "", "table":
		return renderTable(w, summary)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(summary)
	default:
		return fmt.Errorf("%w: output %s", domain.ErrUnsupportedFormat, format)
	}
}

func renderTable(w io.Writer, summary *domain.UsageSummary) error {
	caption := captionStyle.Render(fmt.Sprintf("%s | discharge %.0f%% | run %s",
		summary.StatsType, summary.Stats.DischargeAmount, summary.RunID))

	if summary.NotAvailable {
		_, err := fmt.Fprintf(w, "%s\n%s\n", caption, notAvailableText)
		return err
	}

	ranked := summary.Ranked
	rows := make([][]string, 0, len(ranked))
	for i, rec := range ranked {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			rec.Label(),
			rec.Drain.String(),
			fmt.Sprintf("%.2f", rec.PowerMah),
			fmt.Sprintf("%.0f%%", rec.Percent),
			bar(rec.PercentOfMax),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorSystem)).
		Headers("#", "NAME", "DRAIN", "mAh", "SHARE", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row < 0 || row >= len(ranked) {
				return cellStyle
			}
			if ranked[row].UsesSystemTint() {
				return cellStyle.Foreground(colorSystem)
			}
			return cellStyle.Foreground(colorApp)
		})

	_, err := fmt.Fprintf(w, "%s\n%s\n", caption, t.Render())
	return err
}

// bar 相对最大条目的进度条
func bar(percentOfMax float64) string {
	const width = 20
	n := int(percentOfMax/100*width + 0.5)
	if n < 0 {
		n = 0
	}
	if n > width {
		n = width
	}
	return strings.Repeat("█", n) + strings.Repeat("░", width-n)
}
