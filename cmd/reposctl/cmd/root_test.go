package cmd

import (
	"testing"

	"github.com/spf13/viper"
)

func TestRootCommand_EnvVarBinding(t *testing.T) {
	resetViper()

	t.Setenv("REPOSCHED_TOKEN", "env-token-value")
	t.Setenv("REPOSCHED_URL", "http://custom-url:8080")
	t.Setenv("REPOSCHED_OWNER", "alice")

	if got := viper.GetString("token"); got != "env-token-value" {
		t.Errorf("expected token from env var, got: %s", got)
	}
	if got := viper.GetString("url"); got != "http://custom-url:8080" {
		t.Errorf("expected url from env var, got: %s", got)
	}

	c := newClient()
	if c.Owner != "alice" || c.BaseURL != "http://custom-url:8080" {
		t.Errorf("newClient() = %+v", c)
	}
}

func TestRootCommand_HelpReturnsNoError(t *testing.T) {
	resetViper()
	runCLI(t, "--help")
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	want := map[string]bool{
		"schedule":             false,
		"list":                 false,
		"status [job_id]":      false,
		"update [job_id]":      false,
		"cancel [job_id]":      false,
		"trigger [job_id]":     false,
		"stats":                false,
		"token [github_token]": false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Use]; ok {
			want[c.Use] = true
		}
	}
	for use, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", use)
		}
	}
}
