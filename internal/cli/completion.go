package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command. Enumerated flags such
// as --layout, --scope and --palette complete their values.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for chessnetviz.

  bash:        source <(chessnetviz completion bash)
  zsh:         chessnetviz completion zsh > "${fpath[1]}/_chessnetviz"
  fish:        chessnetviz completion fish | source
  powershell:  chessnetviz completion powershell | Out-String | Invoke-Expression

Write the script to your shell's completion directory to load it in every
new session.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(stdout, true)
			case "zsh":
				return root.GenZshCompletion(stdout)
			case "fish":
				return root.GenFishCompletion(stdout, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(stdout)
			}
			return nil
		},
	}
}
