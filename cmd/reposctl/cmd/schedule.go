package cmd

import (
	"fmt"
	"time"

	"reposched/pkg/api"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule a repository to be created later",
	Long: `Schedule creation of a GitHub repository at a future instant.

Give the instant either as an absolute RFC 3339 time with --at or relative to
now with --in.

Example:
  reposctl schedule --name my-repo --at 2030-01-02T09:00:00Z --private
  reposctl schedule --name my-lib --in 90m --auto-init=false --gitignore Go --description "A Go library"`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		description, _ := flags.GetString("description")
		at, _ := flags.GetString("at")
		in, _ := flags.GetDuration("in")
		private, _ := flags.GetBool("private")
		autoInit, _ := flags.GetBool("auto-init")
		gitignore, _ := flags.GetString("gitignore")

		if name == "" {
			cmd.Println("Error: --name is required")
			return
		}

		when, err := parseWhen(at, in, time.Now())
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			return
		}

		job, err := newClient().ScheduleJob(api.ScheduleJobRequest{
			Name:              name,
			Description:       description,
			ScheduledAt:       when,
			Private:           private,
			AutoInit:          &autoInit,
			GitignoreTemplate: gitignore,
		})
		if err != nil {
			printError(cmd, err)
			return
		}

		cmd.Printf("✓ Repository scheduled!\nID: %s\nName: %s\nAt: %s\n",
			job.ID, job.Name, job.ScheduledAt.Local().Format(time.RFC1123))
	},
}

// parseWhen resolves --at / --in into an instant. Exactly one must be set.
func parseWhen(at string, in time.Duration, now time.Time) (time.Time, error) {
	switch {
	case at != "" && in != 0:
		return time.Time{}, fmt.Errorf("use either --at or --in, not both")
	case at != "":
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --at time %q: want RFC 3339, e.g. 2030-01-02T09:00:00Z", at)
		}
		return t, nil
	case in > 0:
		return now.Add(in), nil
	case in < 0:
		return time.Time{}, fmt.Errorf("--in must be positive")
	}
	return time.Time{}, fmt.Errorf("one of --at or --in is required")
}

func init() {
	flags := scheduleCmd.Flags()
	flags.StringP("name", "n", "", "Repository name (required)")
	flags.StringP("description", "d", "", "Repository description")
	flags.String("at", "", "Creation time, RFC 3339")
	flags.Duration("in", 0, "Creation delay from now, e.g. 30m or 2h")
	flags.Bool("private", false, "Create a private repository")
	flags.Bool("auto-init", true, "Initialize the repository with a README (--auto-init=false to skip)")
	flags.String("gitignore", "", "Gitignore template name, e.g. Go")

	rootCmd.AddCommand(scheduleCmd)
}
