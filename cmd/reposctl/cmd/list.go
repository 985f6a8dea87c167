package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List scheduled jobs",
	Long: `List jobs, soonest scheduled first.

Example:
  reposctl list
  reposctl list --status failed`,
	Run: func(cmd *cobra.Command, args []string) {
		status, _ := cmd.Flags().GetString("status")

		jobs, err := newClient().ListJobs(status)
		if err != nil {
			printError(cmd, err)
			return
		}

		if len(jobs) == 0 {
			cmd.Println("No jobs found.")
			return
		}

		sort.SliceStable(jobs, func(i, j int) bool {
			return jobs[i].ScheduledAt.Before(jobs[j].ScheduledAt)
		})

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTATUS\tSCHEDULED\tRESULT")
		for _, job := range jobs {
			result := "-"
			if job.ResultURL != nil {
				result = *job.ResultURL
			} else if job.Error != nil {
				result = *job.Error
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				job.ID, job.Name, job.Status, job.ScheduledAt.Local().Format(time.RFC3339), result)
		}
		w.Flush()
	},
}

func init() {
	listCmd.Flags().StringP("status", "s", "", "Only show jobs in this status (pending, creating, created, failed)")
	rootCmd.AddCommand(listCmd)
}
