package cli

import (
	"github.com/spf13/cobra"
)

func newCompletionCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for memsearch.

To load completions:

Bash:
  $ source <(memsearch completion bash)
  # To load completions for each session, execute once:
  # Linux:
  $ memsearch completion bash > /etc/bash_completion.d/memsearch
  # macOS:
  $ memsearch completion bash > $(brew --prefix)/etc/bash_completion.d/memsearch

Zsh:
  $ source <(memsearch completion zsh)
  # To load completions for each session, execute once:
  $ memsearch completion zsh > "${fpath[1]}/_memsearch"

Fish:
  $ memsearch completion fish | source
  # To load completions for each session, execute once:
  $ memsearch completion fish > ~/.config/fish/completions/memsearch.fish

PowerShell:
  PS> memsearch completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(out)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
