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
	"github.com/vietddude/paygate/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of all tracked transactions",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()
	initLogging(slog.LevelInfo)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Database.URL == "" {
		slog.Error("No database configured, status requires database.url")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	records, err := postgres.NewStatusRepo(db).List(ctx)
	if err != nil {
		slog.Error("Failed to query transaction status", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "TX HASH\tSTATUS\tCONFIRMATIONS\tVALUE (BTC)\tUPDATED")
	for _, rec := range records {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%.8f\t%s\n",
			rec.TxHash, rec.Status, rec.Confirmations, rec.ValueBTC(),
			rec.LastUpdatedAt.Format("2006-01-02 15:04:05"))
	}
	_ = w.Flush()
}
