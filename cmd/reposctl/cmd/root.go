package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "reposctl",
	Short: "reposctl schedules GitHub repository creation through a reposched daemon",
	Long: `reposctl is the command-line interface for reposched.

reposched creates GitHub repositories at a scheduled instant. Each scheduled
job moves pending -> creating -> created or failed, and the daemon keeps the
outcome (repository URL or GitHub's error message) for inspection.

Common workflows:

  Store the GitHub token used for your jobs:
    reposctl token ghp_xxx

  Schedule a repository for tomorrow morning:
    reposctl schedule --name my-repo --at 2030-01-02T09:00:00Z --private

  Schedule one an hour from now:
    reposctl schedule --name my-repo --in 1h

  Inspect jobs:
    reposctl list --status pending
    reposctl status <job-id>

  Change, fire or drop a pending job:
    reposctl update <job-id> --in 2h
    reposctl trigger <job-id>
    reposctl cancel <job-id>

Configuration:
  Set the daemon endpoint and credentials via flags, environment variables or
  $HOME/.reposctl.yaml:
    REPOSCHED_URL      Daemon endpoint (default: http://localhost:6262)
    REPOSCHED_TOKEN    API token, if the daemon requires one
    REPOSCHED_OWNER    Owner id sent as X-Owner-ID (empty for single-user mode)`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".reposctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".reposctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "REPOSCHED_VARNAME"
	viper.SetEnvPrefix("REPOSCHED")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newClient builds a client from the resolved url, token and owner settings.
func newClient() *JobClient {
	return NewJobClient(viper.GetString("url"), viper.GetString("token"), viper.GetString("owner"))
}

// printError renders a client error the way every command reports it.
func printError(cmd *cobra.Command, err error) {
	if apiErr, ok := err.(*APIError); ok {
		cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
		return
	}
	cmd.Printf("Error: %v\n", err)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.reposctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:6262", "reposched daemon URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "API token for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))

	rootCmd.PersistentFlags().StringP("owner", "o", "", "Owner id the request acts for")
	viper.BindPFlag("owner", rootCmd.PersistentFlags().Lookup("owner"))
}
