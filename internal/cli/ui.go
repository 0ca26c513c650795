package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/treescope/pkg/tree"
)

// uiOut receives the human-readable status lines. Logs go to the logger and
// machine output (documents on stdout) goes to CLI.Out.
var uiOut io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleObject, StyleArray and StylePrimitive color nodes by kind, matching
	// the rendered graph.
	StyleObject    = lipgloss.NewStyle().Foreground(lipgloss.Color(tree.ColorObject))
	StyleArray     = lipgloss.NewStyle().Foreground(lipgloss.Color(tree.ColorArray))
	StylePrimitive = lipgloss.NewStyle().Foreground(lipgloss.Color(tree.ColorPrimitive))
)

var (
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(10)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

// statusIcons pairs each status line kind with its glyph.
var statusIcons = map[string]string{
	"success": lipgloss.NewStyle().Foreground(colorGreen).Render("✓"),
	"error":   lipgloss.NewStyle().Foreground(colorRed).Render("✗"),
	"warning": lipgloss.NewStyle().Foreground(colorYellow).Render("!"),
	"info":    lipgloss.NewStyle().Foreground(colorGray).Render("›"),
}

// kindStyle returns the style for nodes of kind k.
func kindStyle(k tree.Kind) lipgloss.Style {
	switch k {
	case tree.KindObject:
		return StyleObject
	case tree.KindArray:
		return StyleArray
	}
	return StylePrimitive
}

// =============================================================================
// Status Output
// =============================================================================

func printStatus(kind, text string) {
	fmt.Fprintln(uiOut, statusIcons[kind]+" "+text)
}

func printSuccess(format string, args ...any) {
	printStatus("success", fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	printStatus("error", fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	printStatus("warning", StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	printStatus("info", fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints an output file line.
func printFile(path string) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render("→")+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value in an aligned column.
func printKeyValue(key, value string) {
	fmt.Fprintln(uiOut, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints graph statistics on a single line, e.g.
// "12 nodes · 11 edges · depth 3 · cached".
func printStats(nodeCount, edgeCount, depth int, cached bool) {
	parts := []string{fmt.Sprintf("%d nodes", nodeCount)}
	if edgeCount > 0 {
		parts = append(parts, fmt.Sprintf("%d edges", edgeCount))
	}
	if depth > 0 {
		parts = append(parts, fmt.Sprintf("depth %d", depth))
	}
	status := StyleDim.Render("fresh")
	if cached {
		status = lipgloss.NewStyle().Foreground(colorGreen).Render("cached")
	}

	rendered := make([]string, len(parts))
	for i, p := range parts {
		rendered[i] = StyleDim.Render(p)
	}
	rendered = append(rendered, status)
	fmt.Fprintln(uiOut, "  "+strings.Join(rendered, StyleDim.Render(" · ")))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(uiOut, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(uiOut)
}
