package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"daily-planner-bot/internal/auth"
	"daily-planner-bot/internal/config"
	"daily-planner-bot/internal/db"
)

var Version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "dailybot",
		Short:   "Daily planner: Telegram bot and JSON API over one task store",
		Version: Version,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (env vars override it)")

	load := func() (*config.Config, error) {
		return config.LoadFile(configPath)
	}

	rootCmd.AddCommand(serveCmd(load))
	rootCmd.AddCommand(migrateCmd(load))
	rootCmd.AddCommand(tokenCmd(load))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type loader func() (*config.Config, error)

func openDB(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	driver, dsn := cfg.DSN()
	database, err := db.Connect(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, err
	}
	log.Printf("✅ Connected to %s", driver)
	return database, nil
}

func migrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes if they are missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			database, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer database.Close()
			fmt.Println("schema is up to date")
			return nil
		},
	}
}

func tokenCmd(load loader) *cobra.Command {
	var (
		owner int64
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			if owner == 0 {
				return fmt.Errorf("--owner is required")
			}
			tok, err := auth.GenerateToken([]byte(cfg.JWTSecret), owner, ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().Int64Var(&owner, "owner", 0, "Owner id (the Telegram user id to share tasks with the bot)")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "Token lifetime")
	return cmd
}
