package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"github.com/pwolcott/huntmaster/internal/bot"
	"github.com/pwolcott/huntmaster/internal/config"
	"github.com/pwolcott/huntmaster/internal/dashboard"
	"github.com/pwolcott/huntmaster/internal/db"
	"github.com/pwolcott/huntmaster/internal/drive"
	"github.com/pwolcott/huntmaster/internal/reconcile"
	"github.com/pwolcott/huntmaster/internal/settings"
	"github.com/pwolcott/huntmaster/internal/store"
	"github.com/pwolcott/huntmaster/internal/workspace"
)

func newRunCmd() *cobra.Command {
	var (
		configPath  string
		noDashboard bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the Huntmaster bot and reconciler",
		Long:  "Connects to Discord, starts the command handler, the background reconciler, and the ops dashboard. Runs until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd, configPath, noDashboard)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "huntmaster.yaml", "path to Huntmaster config file")
	cmd.Flags().BoolVar(&noDashboard, "no-dashboard", false, "do not start the ops dashboard")
	return cmd
}

func runBot(cmd *cobra.Command, configPath string, noDashboard bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := connectFromConfig(cfg, false)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	sess, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	ws := workspace.FromSession(sess)

	var docs drive.DocumentStore
	if cfg.Drive.CredentialsFile != "" {
		client, err := drive.NewClient(ctx, cfg.Drive.CredentialsFile)
		if err != nil {
			return fmt.Errorf("drive client: %w", err)
		}
		docs = client
		fmt.Fprintln(out, "Google Drive integration enabled")
	} else {
		fmt.Fprintln(out, "Google Drive integration disabled (no credentials_file)")
	}

	s := store.New(gormDB)
	cache := settings.NewCache(s)

	handler, err := bot.NewHandler(bot.HandlerOpts{
		Store:       s,
		Settings:    cache,
		Workspace:   ws,
		Docs:        docs,
		DeleteGrace: time.Duration(cfg.Reconcile.DeleteGraceMinutes) * time.Minute,
		Out:         out,
	})
	if err != nil {
		return err
	}
	gateway, err := bot.NewGateway(handler, sess, out)
	if err != nil {
		return err
	}

	rec, err := reconcile.New(reconcile.Opts{
		Store:       s,
		Workspace:   ws,
		Docs:        docs,
		DeleteGrace: time.Duration(cfg.Reconcile.DeleteGraceMinutes) * time.Minute,
		Out:         out,
	})
	if err != nil {
		return err
	}

	if err := gateway.Start(); err != nil {
		return err
	}
	defer gateway.Stop()
	fmt.Fprintln(out, "Connected to Discord")

	if !noDashboard {
		go func() {
			err := dashboard.Start(ctx, dashboard.StartOpts{
				Store: s,
				Rec:   rec,
				Port:  cfg.Dashboard.Port,
				Out:   out,
			})
			if err != nil {
				fmt.Fprintf(out, "dashboard error: %v\n", err)
			}
		}()
	}

	return rec.RunDaemon(ctx, reconcile.DaemonOpts{
		TickInterval:  time.Duration(cfg.Reconcile.TickSeconds) * time.Second,
		NexusInterval: time.Duration(cfg.Reconcile.NexusSeconds) * time.Second,
		SweepSchedule: cfg.Reconcile.HuntSweepSchedule,
	})
}
