package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func printTitle(s string) {
	fmt.Println(titleStyle.Render(s))
}

// printTable renders rows under a header with column widths sized to
// the content.
func printTable(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for i, h := range header {
		b.WriteString(fmt.Sprintf("%-*s  ", widths[i], h))
	}
	fmt.Println(headerStyle.Render(strings.TrimRight(b.String(), " ")))

	for _, row := range rows {
		var line strings.Builder
		for i, cell := range row {
			line.WriteString(fmt.Sprintf("%-*s  ", widths[i], cell))
		}
		fmt.Println(strings.TrimRight(line.String(), " "))
	}
}
