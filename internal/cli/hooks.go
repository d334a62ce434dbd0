package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vietddude/paygate/internal/core/config"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage provider webhook subscriptions",
}

var hooksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List webhook subscriptions held by the provider",
	Run:   runHooksList,
}

var hooksDeleteCmd = &cobra.Command{
	Use:   "delete <hook-id>",
	Short: "Delete a webhook subscription",
	Args:  cobra.ExactArgs(1),
	Run:   runHooksDelete,
}

func init() {
	hooksCmd.AddCommand(hooksListCmd)
	hooksCmd.AddCommand(hooksDeleteCmd)
	rootCmd.AddCommand(hooksCmd)
}

func runHooksList(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()
	initLogging(slog.LevelInfo)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	registrar, err := newRegistrar(cfg)
	if err != nil {
		slog.Error("Failed to init provider client", "error", err)
		os.Exit(1)
	}

	hooks, err := registrar.ListWebhooks(context.Background())
	if err != nil {
		slog.Error("Failed to list webhooks", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ID\tEVENT\tADDRESS\tHASH\tURL")
	for _, h := range hooks {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", h.ID, h.Event, h.Address, h.Hash, h.URL)
	}
	_ = w.Flush()
}

func runHooksDelete(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()
	initLogging(slog.LevelInfo)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	registrar, err := newRegistrar(cfg)
	if err != nil {
		slog.Error("Failed to init provider client", "error", err)
		os.Exit(1)
	}

	if err := registrar.DeleteWebhook(context.Background(), args[0]); err != nil {
		slog.Error("Failed to delete webhook", "hook_id", args[0], "error", err)
		os.Exit(1)
	}
	slog.Info("Webhook deleted", "hook_id", args[0])
}
