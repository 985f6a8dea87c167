package cmd

import "github.com/spf13/cobra"

var cancelCmd = &cobra.Command{
	Use:     "cancel [job_id]",
	Aliases: []string{"rm"},
	Short:   "Cancel a pending job or remove a finished one",
	Long:    `Remove a job. A pending job will never fire once cancelled. A job that is being created cannot be cancelled.`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := newClient().CancelJob(args[0]); err != nil {
			printError(cmd, err)
			return
		}
		cmd.Printf("✓ Job %s removed\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}
