package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vietddude/paygate/internal/core/config"
	"github.com/vietddude/paygate/internal/core/domain"
	"github.com/vietddude/paygate/internal/infra/provider"
	"github.com/vietddude/paygate/internal/infra/storage/postgres"
)

var (
	forwardDestination   string
	forwardCallbackURL   string
	forwardProcessingFee int64
)

var forwardCmd = &cobra.Command{
	Use:   "forward",
	Short: "Register a forwarding address with the provider",
	Long:  `Creates a provider forwarding address that relays incoming funds to the destination, and subscribes the callback URL to payment events for the generated input address.`,
	Run:   runForward,
}

func init() {
	forwardCmd.Flags().StringVar(&forwardDestination, "destination", "", "destination address receiving forwarded funds (required)")
	forwardCmd.Flags().StringVar(&forwardCallbackURL, "callback-url", "", "webhook callback URL (defaults to provider.callback_url)")
	forwardCmd.Flags().Int64Var(&forwardProcessingFee, "processing-fee", 0, "processing fee in satoshis withheld per forward")
	_ = forwardCmd.MarkFlagRequired("destination")
	rootCmd.AddCommand(forwardCmd)
}

func newRegistrar(cfg *config.AppConfig) (*provider.Registrar, error) {
	client, err := provider.NewClient(provider.Config{
		Coin:    cfg.Provider.Coin,
		Token:   cfg.Provider.Token,
		BaseURL: cfg.Provider.BaseURL,
		Timeout: cfg.Provider.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return provider.NewRegistrar(client), nil
}

func runForward(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()
	initLogging(slog.LevelInfo)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	callbackURL := forwardCallbackURL
	if callbackURL == "" {
		callbackURL = cfg.Provider.CallbackURL
	}
	if callbackURL == "" {
		slog.Error("No callback URL configured, pass --callback-url or set provider.callback_url")
		os.Exit(1)
	}

	registrar, err := newRegistrar(cfg)
	if err != nil {
		slog.Error("Failed to init provider client", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var opts *provider.ForwardingOptions
	if forwardProcessingFee > 0 {
		opts = &provider.ForwardingOptions{ProcessingFeeSatoshis: forwardProcessingFee}
	}

	sub, err := registrar.RegisterForwarding(ctx, forwardDestination, callbackURL, opts)
	if err != nil {
		slog.Error("Failed to register forwarding address", "error", err)
		os.Exit(1)
	}
	slog.Info("Forwarding address registered",
		"id", sub.ID,
		"input_address", sub.InputAddress,
		"destination", sub.Destination)

	// Subscribe the callback to unconfirmed and confirmed activity on the
	// generated input address so payments reach the webhook processor.
	for _, kind := range []domain.EventKind{domain.EventKindUnconfirmedTx, domain.EventKindConfirmedTx} {
		hookID, err := registrar.RegisterAddressWebhook(ctx, sub.InputAddress, callbackURL, kind)
		if err != nil {
			slog.Error("Failed to register address webhook", "event", kind, "error", err)
			os.Exit(1)
		}
		slog.Info("Webhook registered", "event", kind, "hook_id", hookID)
	}

	// Persist the subscription so it survives restarts.
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer func() {
			_ = db.Close()
		}()

		if err := postgres.NewSubscriptionRepo(db).Save(ctx, sub); err != nil {
			slog.Error("Failed to persist subscription", "error", err)
			os.Exit(1)
		}
		slog.Info("Subscription persisted", "id", sub.ID)
	}
}
