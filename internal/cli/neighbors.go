package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/phosphograph/pkg/engine"
	"github.com/matzehuels/phosphograph/pkg/errors"
	"github.com/matzehuels/phosphograph/pkg/multigraph"
	"github.com/matzehuels/phosphograph/pkg/pipeline"
	"github.com/matzehuels/phosphograph/pkg/render"
	"github.com/matzehuels/phosphograph/pkg/search"
)

// graphOpts selects and decorates the graph a read-only command inspects.
type graphOpts struct {
	network string
	overlay string
}

func (o *graphOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.network, "network", "n", "", "network name from the config catalog")
	cmd.Flags().StringVar(&o.overlay, "overlay", "", "fold-change measurements (JSON)")
}

// loadSnapshot attributes the selected dataset without rendering or caching.
func (c *CLI) loadSnapshot(cmd *cobra.Command, path string, o graphOpts, focus string) (*engine.Snapshot, error) {
	name, file, err := c.dataset(path, o.network)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(nil, nil, loggerFromContext(cmd.Context()))
	snap, _, err := runner.Attribute(cmd.Context(), pipeline.Options{
		Network:     name,
		DatasetPath: file,
		OverlayPath: o.overlay,
		Focus:       focus,
	})
	return snap, err
}

// =============================================================================
// neighbors
// =============================================================================

func (c *CLI) neighborsCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "neighbors <node> [dataset]",
		Short: "List the phosphorylation events around a node",
		Long: `Neighbors prints every edge a node takes part in, with site, effect and
fold change. The node may be given by id or by name.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 2 {
				path = args[1]
			}
			snap, err := c.loadSnapshot(cmd, path, opts, "")
			if err != nil {
				return err
			}
			id, err := resolveNode(snap.Graph, args[0])
			if err != nil {
				return err
			}
			return writeNeighbors(cmd.OutOrStdout(), snap.Graph, id)
		},
	}
	opts.register(cmd)
	return cmd
}

// resolveNode maps a node id, or a node name matched case-insensitively,
// to an id. Names shared by several nodes are rejected.
func resolveNode(g *multigraph.MultiGraph, query string) (string, error) {
	if g.HasNode(query) {
		return query, nil
	}
	var ids []string
	for _, r := range search.Nodes(g, query, 0) {
		if strings.EqualFold(r.Name, strings.TrimSpace(query)) {
			ids = append(ids, r.ID)
		}
	}
	switch len(ids) {
	case 0:
		return "", errors.New(errors.ErrCodeFocusNodeNotFound, "no node with id or name %q", query)
	case 1:
		return ids[0], nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "name %q matches %s; pass an id", query, strings.Join(ids, ", "))
	}
}

// neighborRows returns one row per edge touching id, in edge order.
func neighborRows(g *multigraph.MultiGraph, id string) [][]string {
	var rows [][]string
	for _, e := range g.Edges() {
		var dir, partner string
		switch {
		case e.IsSelfLoop() && e.Source == id:
			dir, partner = "↻", id
		case e.Source == id:
			dir, partner = "→", e.Target
		case e.Target == id:
			dir, partner = "←", e.Source
		default:
			continue
		}
		rows = append(rows, []string{
			dir,
			nodeName(g, partner),
			e.SubstratePhosphosite,
			orDash(e.EffectCode),
			formatFoldChange(e),
		})
	}
	return rows
}

func writeNeighbors(w io.Writer, g *multigraph.MultiGraph, id string) error {
	rows := neighborRows(g, id)

	fmt.Fprintln(w, StyleTitle.Render(nodeName(g, id))+" "+StyleDim.Render(id))
	if n, ok := g.Node(id); ok && n.Desc != "" {
		fmt.Fprintln(w, StyleDim.Render(n.Desc))
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, StyleDim.Render("no edges"))
		return nil
	}

	base := lipgloss.NewStyle().Padding(0, 1)
	t := newTable("", "Partner", "Site", "Effect", "FC").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 3:
				return effectStyle(rows[row][col]).Padding(0, 1)
			}
			return base
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// =============================================================================
// search
// =============================================================================

func (c *CLI) searchCommand() *cobra.Command {
	var opts graphOpts
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query> [dataset]",
		Short: "Find nodes by name",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 2 {
				path = args[1]
			}
			snap, err := c.loadSnapshot(cmd, path, opts, "")
			if err != nil {
				return err
			}
			results := search.Nodes(snap.Graph, args[0], limit)
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), StyleDim.Render(fmt.Sprintf("no nodes match %q", args[0])))
				return nil
			}
			rows := make([][]string, len(results))
			for i, r := range results {
				rows[i] = []string{r.ID, r.Name, r.Desc}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), newTable("ID", "Name", "Description").Rows(rows...).Render())
			return err
		},
	}
	opts.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", search.DefaultLimit, "maximum results (0 for all)")
	return cmd
}

// =============================================================================
// Helpers
// =============================================================================

var headerStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func nodeName(g *multigraph.MultiGraph, id string) string {
	if n, ok := g.Node(id); ok && n.Name != "" {
		return n.Name
	}
	return id
}

func formatFoldChange(e multigraph.Edge) string {
	if !e.HasFoldChange() {
		return "—"
	}
	s := render.FormatFC(*e.FC)
	if e.Err != nil {
		s += fmt.Sprintf(" ± %.2f", *e.Err)
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
