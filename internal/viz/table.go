package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/uqsim/internal/analysis"
)

const cellWidth = 12

func cell(s string) string {
	return lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Right).Render(s)
}

func num(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

// SummaryTable lists every component's statistics at the final grid time.
func SummaryTable(bands []*analysis.Band, labels []string) string {
	if len(bands) == 0 {
		return Subtle.Render("no successful samples")
	}
	lo, hi := bands[0].Lo, bands[0].Hi

	header := []string{"component", "mean", "std", fmt.Sprintf("q%.0f", lo*100), fmt.Sprintf("q%.0f", hi*100), "min", "max", "trend"}
	rows := make([]string, 0, len(bands)+1)

	var hdr strings.Builder
	for _, h := range header {
		hdr.WriteString(cell(h))
	}
	rows = append(rows, HeaderStyle.Render(hdr.String()))

	for _, b := range bands {
		last := len(b.Times) - 1
		name := fmt.Sprintf("x%d", b.Component)
		if b.Component < len(labels) {
			name = labels[b.Component]
		}

		var row strings.Builder
		row.WriteString(cell(name))
		for _, v := range []float64{b.Mean[last], b.Std[last], b.Lower[last], b.Upper[last], b.Min[last], b.Max[last]} {
			row.WriteString(cell(num(v)))
		}
		row.WriteString("  " + Sparkline(b.Mean, cellWidth))
		rows = append(rows, row.String())
	}

	return Panel.Render(strings.Join(rows, "\n"))
}

// StateTable lists one labeled state vector.
func StateTable(state []float64, labels []string) string {
	lines := make([]string, len(state))
	for i, v := range state {
		name := fmt.Sprintf("x%d", i)
		if i < len(labels) {
			name = labels[i]
		}
		lines[i] = KeyValue(fmt.Sprintf("%-8s", name), num(v))
	}
	return Panel.Render(strings.Join(lines, "\n"))
}
