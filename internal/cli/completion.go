package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treescope/pkg/pipeline"
	"github.com/matzehuels/treescope/pkg/value"
)

// documentExts are the file extensions offered when completing a document argument.
var documentExts = []string{"json", "yaml", "yml", "toml"}

// completionCommand prints a shell completion script. Document arguments
// complete to json, yaml and toml files and the format flags to their values.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion <bash|zsh|fish|powershell>",
		Short: "Print a shell completion script",
		Long: `Print a completion script for treescope to stdout.

Besides subcommands and flags, the script completes document arguments
(` + "`treescope explore <TAB>`" + ` offers only .json, .yaml, .yml and .toml files),
--input-format to json/yaml/toml and export's --format to png/svg/dot/json.

Load it for the current shell:

  bash:        source <(treescope completion bash)
  zsh:         source <(treescope completion zsh)
  fish:        treescope completion fish | source
  powershell:  treescope completion powershell | Out-String | Invoke-Expression

To make it permanent, write the script to your shell's completion directory,
for example ~/.config/fish/completions/treescope.fish or "${fpath[1]}/_treescope".`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), c.Out
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
	return cmd
}

// registerCompletions wires argument and flag completion into every
// subcommand of root that reads a document.
func registerCompletions(root *cobra.Command) {
	inputFormats := make([]string, 0, len(value.Formats)+1)
	for _, f := range value.Formats {
		inputFormats = append(inputFormats, string(f))
	}
	inputFormats = append(inputFormats, "yml")

	outputFormats := []string{pipeline.FormatPNG, pipeline.FormatSVG, pipeline.FormatDOT, pipeline.FormatJSON}

	for _, cmd := range root.Commands() {
		if strings.Contains(cmd.Use, "[file]") && cmd.ValidArgsFunction == nil {
			cmd.ValidArgsFunction = completeDocument
		}
		if cmd.Flags().Lookup("input-format") != nil {
			_ = cmd.RegisterFlagCompletionFunc("input-format", cobra.FixedCompletions(inputFormats, cobra.ShellCompDirectiveNoFileComp))
		}
		if cmd.Flags().Lookup("format") != nil {
			_ = cmd.RegisterFlagCompletionFunc("format", completeFormatList(outputFormats))
		}
	}
}

// completeDocument offers document files for the first positional argument.
func completeDocument(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return documentExts, cobra.ShellCompDirectiveFilterFileExt
}

// completeFormatList completes the last entry of a comma-separated format
// list, skipping formats already given.
func completeFormatList(formats []string) cobra.CompletionFunc {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		done, prefix := "", toComplete
		if i := strings.LastIndexByte(toComplete, ','); i >= 0 {
			done, prefix = toComplete[:i+1], toComplete[i+1:]
		}
		used := map[string]bool{}
		for _, f := range strings.Split(done, ",") {
			used[strings.TrimSpace(f)] = true
		}

		var out []string
		for _, f := range formats {
			if !used[f] && strings.HasPrefix(f, prefix) {
				out = append(out, done+f)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
	}
}
