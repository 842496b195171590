package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/phosphograph/pkg/pipeline"
)

// Palette. Activating effects share the success hue, inhibiting ones the
// error hue.
var (
	colorTeal  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorAmber = lipgloss.Color("220")
	colorRed   = lipgloss.Color("167")
	colorBlue  = lipgloss.Color("75")
	colorWhite = lipgloss.Color("255")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

var (
	// StyleTitle is used for node names and headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorTeal)
	// StyleHighlight marks network names and other emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorTeal)
	// StyleDim is used for ids, descriptions and secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleValue is used for paths and key/value values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
	// StyleWarning is used for warning text.
	StyleWarning = lipgloss.NewStyle().Foreground(colorAmber)

	styleUp      = lipgloss.NewStyle().Foreground(colorGreen)
	styleDown    = lipgloss.NewStyle().Foreground(colorRed)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(10)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleSpinner = lipgloss.NewStyle().Foreground(colorTeal)
)

const (
	markOK    = "✓"
	markFail  = "✗"
	markWarn  = "!"
	markInfo  = "›"
	markArrow = "→"
)

// printer writes styled status lines to a command's output stream.
type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) printer {
	return printer{w: w}
}

func (p printer) line(mark lipgloss.Style, icon, msg string) {
	fmt.Fprintln(p.w, mark.Render(icon)+" "+msg)
}

func (p printer) success(format string, args ...any) {
	p.line(styleUp, markOK, fmt.Sprintf(format, args...))
}

func (p printer) failure(format string, args ...any) {
	p.line(styleDown, markFail, fmt.Sprintf(format, args...))
}

func (p printer) warn(format string, args ...any) {
	p.line(StyleWarning, markWarn, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func (p printer) info(format string, args ...any) {
	p.line(StyleDim, markInfo, fmt.Sprintf(format, args...))
}

// detail prints an indented secondary line.
func (p printer) detail(format string, args ...any) {
	fmt.Fprintln(p.w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// file prints a written artifact path.
func (p printer) file(path string) {
	fmt.Fprintln(p.w, "  "+StyleDim.Render(markArrow)+" "+StyleValue.Render(path))
}

func (p printer) keyValue(key, value string) {
	fmt.Fprintln(p.w, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// stats prints the shape of an attributed graph on one line:
//
//	4 nodes · 5 edges · 2 visible · 3 fc · cached
func (p printer) stats(st pipeline.Stats, cached bool) {
	parts := []string{
		fmt.Sprintf("%d nodes", st.NodeCount),
		fmt.Sprintf("%d edges", st.EdgeCount),
	}
	if st.VisibleNodes != st.NodeCount {
		parts = append(parts, fmt.Sprintf("%d visible", st.VisibleNodes))
	}
	if n := st.Overlay.Exact + st.Overlay.Fallback; n > 0 {
		parts = append(parts, fmt.Sprintf("%d fc", n))
	}

	source := StyleDim.Render("fresh")
	if cached {
		source = styleUp.Render("cached")
	}
	sep := StyleDim.Render(" · ")
	fmt.Fprintln(p.w, "  "+StyleDim.Render(strings.Join(parts, " · "))+sep+source)
}

// nextStep suggests a follow-up command.
func (p printer) nextStep(description, cmd string) {
	fmt.Fprintln(p.w, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// effectStyle colours a regulatory effect code: "+" activates, "-" inhibits.
func effectStyle(code string) lipgloss.Style {
	switch code {
	case "+":
		return styleUp
	case "-":
		return styleDown
	}
	return lipgloss.NewStyle()
}
