package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/phosphograph/pkg/config"
)

// networksCommand lists the configured network catalog.
func (c *CLI) networksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List the networks in the config catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings()
			if len(cfg.Networks) == 0 {
				p := newPrinter(cmd.OutOrStdout())
				p.info("No networks configured")
				p.detail("Add [[network]] entries to %s", config.DefaultPath())
				return nil
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), newTable("", "Name", "Path", "Status").Rows(networkRows(cfg)...).Render())
			return err
		},
	}
}

// networkRows marks the default entry and flags files that are missing.
func networkRows(cfg *config.Config) [][]string {
	rows := make([][]string, 0, len(cfg.Networks))
	def, _ := cfg.DefaultNetwork()
	for _, entry := range cfg.Networks {
		n, _ := cfg.Network(entry.Name)
		marker := ""
		if n.Name == def.Name {
			marker = "*"
		}
		status := "ok"
		if _, err := os.Stat(n.Path); err != nil {
			status = "missing"
		}
		rows = append(rows, []string{marker, n.Name, n.Path, status})
	}
	return rows
}
