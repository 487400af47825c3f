package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dyike/bestfour/internal/analyzer"
	"github.com/dyike/bestfour/internal/models"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(0, 2)

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280")).
		Width(10)

	buyStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	sellStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	holdStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	successStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981"))
)

// actionStyle follows the Taiwan market convention of red for up.
func actionStyle(action analyzer.Action) lipgloss.Style {
	switch action {
	case analyzer.ActionBuy:
		return buyStyle
	case analyzer.ActionSell:
		return sellStyle
	default:
		return holdStyle
	}
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

// RenderResult formats a verdict for a terminal.
func RenderResult(res *analyzer.Result) string {
	if !res.Success {
		return errorStyle.Render("Error: " + firstLine(res.Error))
	}

	price := "-"
	if res.Price != nil {
		price = fmt.Sprintf("%.2f", *res.Price)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("%s %s", res.Code, res.Name)),
		row("Price", price),
		row("Action", actionStyle(res.Action).Render(string(res.Action))),
		row("Reason", res.Message),
	)
	return panelStyle.Render(body)
}

// RenderCodeInfo formats one registry entry.
func RenderCodeInfo(info models.CodeInfo) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("%s %s", info.Code, info.Name)),
		row("Type", info.Type),
		row("Market", info.Market),
		row("Group", info.Group),
		row("ISIN", info.ISIN),
		row("Listed", info.Start),
		row("CFI", info.CFI),
	)
	return panelStyle.Render(body)
}

// RenderCodeList formats search hits one per line.
func RenderCodeList(entries []models.CodeInfo) string {
	if len(entries) == 0 {
		return holdStyle.Render("No matching codes")
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = fmt.Sprintf("%-6s %s  %s",
			e.Code, e.Name, labelStyle.UnsetWidth().Render(strings.TrimSpace(e.Market+" "+e.Group)))
	}
	return strings.Join(lines, "\n")
}

// firstLine drops the stack trace carried by failed results.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
