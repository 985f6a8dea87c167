package cmd

import "github.com/spf13/cobra"

var triggerCmd = &cobra.Command{
	Use:   "trigger [job_id]",
	Short: "Create a pending job's repository now",
	Long:  `Start creating the repository of a pending job immediately, ignoring its scheduled time. Use 'reposctl status' to see the outcome.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		job, err := newClient().TriggerJob(args[0])
		if err != nil {
			printError(cmd, err)
			return
		}
		cmd.Printf("✓ Creation of %s started\nCheck progress with: reposctl status %s\n", job.Name, job.ID)
	},
}

func init() {
	rootCmd.AddCommand(triggerCmd)
}
