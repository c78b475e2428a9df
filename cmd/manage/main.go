package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"tafaseel/internal/app"
	"tafaseel/internal/client"
	"tafaseel/internal/config"
	"tafaseel/internal/logger"
	"tafaseel/internal/repository"
	"tafaseel/internal/scheduler"
	"tafaseel/internal/seed"
	"time"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "manage",
	Short:         "Tafaseel maintenance commands",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(migrateCmd, seedCmd, templatesCmd, refreshTokensCmd, webhooksCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func load(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, logger.New(cfg.Log))
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := load(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := client.Migrate(a.DB); err != nil {
			return err
		}
		fmt.Println("Database migrated")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed [file.yaml]",
	Short: "Load prompt templates and static pages from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		file, err := seed.Parse(f)
		if err != nil {
			return err
		}

		a, err := load(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := seed.Apply(cmd.Context(), file, a.Templates, a.Pages); err != nil {
			return err
		}
		fmt.Printf("Seeded %d templates and %d pages\n", len(file.Templates), len(file.Pages))
		return nil
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the stored prompt templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := load(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		return printTemplates(cmd.Context(), cmd.OutOrStdout(), a.Templates)
	},
}

func printTemplates(ctx context.Context, w io.Writer, templates repository.PromptTemplateRepository) error {
	list, err := templates.List(ctx)
	if err != nil {
		return err
	}
	for _, tmpl := range list {
		fmt.Fprintf(w, "%-24s %s\t%s\n", tmpl.Name, tmpl.Language, tmpl.Template)
	}
	return nil
}

var refreshTokensCmd = &cobra.Command{
	Use:   "refresh-tokens",
	Short: "Refresh Salla tokens that expire soon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := load(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		sched, err := a.Scheduler()
		if err != nil {
			return err
		}
		return sched.RunTaskNow(cmd.Context(), scheduler.RefreshTokensTask)
	},
}

var webhooksLimit int

var webhooksCmd = &cobra.Command{
	Use:   "webhooks [merchant-id]",
	Short: "Show the latest webhook calls of a merchant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := load(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		logs, err := a.WebhookLogs.ListByMerchant(cmd.Context(), args[0], webhooksLimit)
		if err != nil {
			return err
		}
		for _, entry := range logs {
			fmt.Printf("%s  %s  %d\n", entry.CreatedAt.Format(time.RFC3339), entry, entry.StatusCode)
		}
		return nil
	},
}

func init() {
	webhooksCmd.Flags().IntVarP(&webhooksLimit, "limit", "n", 20, "number of calls to show")
}
