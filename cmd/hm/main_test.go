package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/pwolcott/huntmaster/internal/config"
)

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "hm dev") {
		t.Errorf("expected output to contain 'hm dev', got: %s", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("expected output to contain 'commit: none', got: %s", out)
	}
}

func TestRootCmdHelp(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("help command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Huntmaster") {
		t.Errorf("expected help output to contain 'Huntmaster', got: %s", out)
	}
	for _, sub := range []string{"version", "db", "run", "dashboard", "settings"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help output to list %q subcommand, got: %s", sub, out)
		}
	}
}

func TestSettingsKeysCmd(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"settings", "keys"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("settings keys failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"guild:", "hunt:", "round:", "discussion_channel", "url_sep", "archive_delay"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected settings keys output to contain %q, got: %s", want, out)
		}
	}
}

func TestExecuteError(t *testing.T) {
	cmd := &cobra.Command{
		Use:           "failing",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("intentional error")
		},
	}
	if code := execute(cmd); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

func TestWriteStarterConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huntmaster.yaml")

	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader("my-secret-token\n"))

	if err := writeStarterConfig(cmd, path); err != nil {
		t.Fatalf("writeStarterConfig: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("starter config does not load: %v", err)
	}
	if cfg.Discord.Token != "my-secret-token" {
		t.Errorf("token = %q", cfg.Discord.Token)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Reconcile.HuntSweepSchedule != "0 4 * * *" {
		t.Errorf("sweep schedule = %q", cfg.Reconcile.HuntSweepSchedule)
	}
}

func TestWriteStarterConfig_RequiresToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huntmaster.yaml")

	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader("\n"))

	if err := writeStarterConfig(cmd, path); err == nil {
		t.Fatal("expected an error for an empty token")
	}
}
