package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/phosphograph/pkg/multigraph"
	"github.com/matzehuels/phosphograph/pkg/search"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorTeal)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// NodePickerModel - Interactive focus selection
// =============================================================================

// NodePickerModel is the bubbletea model for picking a focus node by name.
// Typing refines the search; arrows move the cursor; enter selects.
type NodePickerModel struct {
	Graph    *multigraph.MultiGraph
	Input    textinput.Model
	Results  []search.Result
	Cursor   int
	Selected *search.Result
	Limit    int
}

// NewNodePickerModel creates a picker over g.
func NewNodePickerModel(g *multigraph.MultiGraph) NodePickerModel {
	ti := textinput.New()
	ti.Placeholder = "protein name, e.g. CDK1"
	ti.Prompt = "› "
	ti.CharLimit = 64
	ti.Focus()

	return NodePickerModel{
		Graph: g,
		Input: ti,
		Limit: search.DefaultLimit,
	}
}

func (m NodePickerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m NodePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "ctrl+p":
			if m.Cursor > 0 {
				m.Cursor--
			}
			return m, nil
		case "down", "ctrl+n":
			if m.Cursor < len(m.Results)-1 {
				m.Cursor++
			}
			return m, nil
		case "enter":
			if len(m.Results) == 0 {
				return m, nil
			}
			r := m.Results[m.Cursor]
			m.Selected = &r
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	m.Results = search.Nodes(m.Graph, m.Input.Value(), m.Limit)
	if m.Cursor >= len(m.Results) {
		m.Cursor = max(0, len(m.Results)-1)
	}
	return m, cmd
}

func (m NodePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Focus Node"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("type to search  ↑/↓ navigate  ⏎ select  esc quit"))
	b.WriteString("\n\n")
	b.WriteString(m.Input.View())
	b.WriteString("\n\n")

	if strings.TrimSpace(m.Input.Value()) == "" {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d nodes", m.Graph.NodeCount())))
		return b.String()
	}
	if len(m.Results) == 0 {
		b.WriteString(listDimStyle.Render("  no matches"))
		return b.String()
	}

	rows := make([][]string, len(m.Results))
	for i, r := range m.Results {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows[i] = []string{cursor, r.Name, r.ID, fmt.Sprintf("%d", len(m.Graph.Neighbors(r.ID)))}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Name", "ID", "Neighbors").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row == m.Cursor {
				return listSelectedStyle
			}
			if col == 2 {
				return listDimStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	if sel := m.Results[m.Cursor]; sel.Desc != "" {
		b.WriteString(listDimStyle.Render("  " + sel.Desc))
	}
	return b.String()
}

// =============================================================================
// pick
// =============================================================================

func (c *CLI) pickCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "pick [dataset]",
		Short: "Search for a node interactively and show its neighborhood",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			snap, err := c.loadSnapshot(cmd, path, opts, "")
			if err != nil {
				return err
			}

			final, err := tea.NewProgram(NewNodePickerModel(snap.Graph), tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			m := final.(NodePickerModel)
			p := newPrinter(cmd.OutOrStdout())
			if m.Selected == nil {
				p.info("No node selected")
				return nil
			}

			if err := writeNeighbors(cmd.OutOrStdout(), snap.Graph, m.Selected.ID); err != nil {
				return err
			}
			target := path
			if target == "" {
				target = "--network " + snap.Network
			}
			p.nextStep("Build the focused graph", fmt.Sprintf("%s build %s --focus %s", appName, target, m.Selected.ID))
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}
