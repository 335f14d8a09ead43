package views

import (
	"strings"

	"notetoolbar/models"

	"github.com/charmbracelet/lipgloss"
)

var (
	stripBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	stripTitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	stripItem = lipgloss.NewStyle().
			Padding(0, 1)

	stripDisabled = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("242")).
			Strikethrough(true)

	stripSeparator = lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Render("│")
)

// RenderText draws a rendered toolbar as a terminal strip, for previews
// from the command line
func RenderText(el *Element) string {
	if el == nil {
		return ""
	}
	var rows [][]string
	row := []string{}
	for _, it := range el.Items {
		if it.Hidden {
			continue
		}
		switch it.Type {
		case models.ItemSeparator:
			row = append(row, stripSeparator)
			continue
		case models.ItemBreak:
			rows = append(rows, row)
			row = []string{}
			continue
		case models.ItemSpreader:
			row = append(row, "  ")
			continue
		}

		text := it.Label
		if text == "" || it.HideLabel {
			text = "[" + it.Icon + "]"
		}
		style := stripItem
		if it.Disabled {
			style = stripDisabled
		}
		row = append(row, style.Render(text))
	}
	rows = append(rows, row)

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, stripTitle.Render(el.Name)+" "+lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Render("("+string(el.Position)+")"))
	for _, r := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Center, r...))
	}
	return stripBox.Render(strings.Join(lines, "\n"))
}
