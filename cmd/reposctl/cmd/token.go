package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token [github_token]",
	Short: "Store the GitHub token used for your jobs",
	Long: `Store the GitHub personal access token the daemon uses when it creates your
repositories. The token is looked up when a job runs, so a new token also
applies to jobs scheduled before it was stored.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		token := strings.TrimSpace(args[0])
		if token == "" {
			cmd.Println("Error: token must not be empty")
			return
		}

		if err := newClient().SetCredential(token); err != nil {
			printError(cmd, err)
			return
		}
		cmd.Println("✓ GitHub token stored")
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
