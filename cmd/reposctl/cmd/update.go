package cmd

import (
	"time"

	"reposched/pkg/api"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update [job_id]",
	Short: "Change a pending job",
	Long: `Change the payload or schedule of a pending job. Only the flags given are changed.

Example:
  reposctl update 6f1c... --in 2h
  reposctl update 6f1c... --name renamed-repo --private=false`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		var req api.UpdateJobRequest

		if flags.Changed("name") {
			v, _ := flags.GetString("name")
			req.Name = &v
		}
		if flags.Changed("description") {
			v, _ := flags.GetString("description")
			req.Description = &v
		}
		if flags.Changed("gitignore") {
			v, _ := flags.GetString("gitignore")
			req.GitignoreTemplate = &v
		}
		if flags.Changed("private") {
			v, _ := flags.GetBool("private")
			req.Private = &v
		}
		if flags.Changed("auto-init") {
			v, _ := flags.GetBool("auto-init")
			req.AutoInit = &v
		}
		if flags.Changed("at") || flags.Changed("in") {
			at, _ := flags.GetString("at")
			in, _ := flags.GetDuration("in")
			when, err := parseWhen(at, in, time.Now())
			if err != nil {
				cmd.Printf("Error: %v\n", err)
				return
			}
			req.ScheduledAt = &when
		}

		job, err := newClient().UpdateJob(args[0], req)
		if err != nil {
			printError(cmd, err)
			return
		}

		cmd.Printf("✓ Job updated!\n")
		printJob(cmd, *job)
	},
}

func init() {
	flags := updateCmd.Flags()
	flags.StringP("name", "n", "", "New repository name")
	flags.StringP("description", "d", "", "New description")
	flags.String("at", "", "New creation time, RFC 3339")
	flags.Duration("in", 0, "New creation delay from now")
	flags.Bool("private", false, "Create a private repository")
	flags.Bool("auto-init", false, "Initialize the repository with a README")
	flags.String("gitignore", "", "Gitignore template name")

	rootCmd.AddCommand(updateCmd)
}
