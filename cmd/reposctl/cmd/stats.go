package cmd

import "github.com/spf13/cobra"

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show job counts by status",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := newClient().Stats()
		if err != nil {
			printError(cmd, err)
			return
		}

		cmd.Printf("%sJobs%s\n", colorBold, colorReset)
		cmd.Println("──────────────────────────────")
		cmd.Printf("%sTotal:%s       %d\n", colorDim, colorReset, s.Total)
		cmd.Printf("%sPending:%s     %d %s(%d armed)%s\n", colorDim, colorReset, s.Pending, colorDim, s.Armed, colorReset)
		cmd.Printf("%sCreating:%s    %d\n", colorDim, colorReset, s.Creating)
		cmd.Printf("%sCreated:%s     %s%d%s\n", colorDim, colorReset, colorGreen, s.Created, colorReset)
		cmd.Printf("%sFailed:%s      %s%d%s\n", colorDim, colorReset, colorRed, s.Failed, colorReset)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
