package main

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate a shell completion script for citemill.

To load completions:

Bash:
  $ source <(citemill completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ citemill completion bash > /etc/bash_completion.d/citemill
  # macOS:
  $ citemill completion bash > $(brew --prefix)/etc/bash_completion.d/citemill

Zsh:
  $ source <(citemill completion zsh)

  # To load completions for each session, execute once:
  $ citemill completion zsh > "${fpath[1]}/_citemill"

Fish:
  $ citemill completion fish | source

  # To load completions for each session, execute once:
  $ citemill completion fish > ~/.config/fish/completions/citemill.fish

PowerShell:
  PS> citemill completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
