package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gradient-chat/internal/clientapp"
	"gradient-chat/internal/config"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "cli_chat",
	Short:         "Terminal client for the chat service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log client internals to stderr")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newApp carga la configuracion y arma el cliente. El logger es silencioso salvo con -v.
func newApp(ctx context.Context) (*clientapp.App, *zap.Logger, error) {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := zap.NewNop()
	if verbose {
		logger = zap.NewExample()
	}
	app, err := clientapp.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return app, logger, nil
}
