package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/phosphograph/pkg/pipeline"
)

func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for phosphograph.

Network names (--network) and output formats (--format) complete from the
config catalog and the supported renderers.

  bash:        source <(phosphograph completion bash)
  zsh:         phosphograph completion zsh > "${fpath[1]}/_phosphograph"
  fish:        phosphograph completion fish | source
  powershell:  phosphograph completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// registerCompletions attaches value completion to every subcommand that
// takes a --network or --format flag.
func (c *CLI) registerCompletions(root *cobra.Command) {
	for _, cmd := range root.Commands() {
		if cmd.Flags().Lookup("network") != nil {
			_ = cmd.RegisterFlagCompletionFunc("network", c.completeNetworks)
		}
		if cmd.Flags().Lookup("format") != nil {
			_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
		}
	}
}

// completeNetworks lists catalog names with their dataset path as the
// description. Shell completion skips the root pre-run, so the config is
// loaded here when needed.
func (c *CLI) completeNetworks(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if c.cfg == nil {
		if err := c.loadConfig(); err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
	}
	var names []string
	for _, n := range c.cfg.Networks {
		if strings.HasPrefix(n.Name, toComplete) {
			resolved, _ := c.cfg.Network(n.Name)
			names = append(names, n.Name+"\t"+resolved.Path)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeFormats completes the last element of a comma-separated format
// list, leaving formats already given out of the suggestions.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	given := strings.Split(toComplete, ",")
	prefix := strings.Join(given[:len(given)-1], ",")
	if prefix != "" {
		prefix += ","
	}
	last := given[len(given)-1]

	var out []string
	for _, f := range []string{pipeline.FormatJSON, pipeline.FormatDOT, pipeline.FormatSVG, pipeline.FormatPDF, pipeline.FormatPNG} {
		if strings.HasPrefix(f, last) && !slices.Contains(given[:len(given)-1], f) {
			out = append(out, prefix+f)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}
