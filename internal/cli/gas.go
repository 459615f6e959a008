package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vietddude/sentinel/internal/core/config"
	"github.com/vietddude/sentinel/internal/gas"
)

var gasCmd = &cobra.Command{
	Use:   "gas [key]",
	Short: "Resolve a gas price once, straight from the configured sources",
	Args:  cobra.MaximumNArgs(1),
	Run:   runGas,
}

func init() {
	rootCmd.AddCommand(gasCmd)
}

func runGas(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()

	key := "ethereum"
	if len(args) > 0 {
		key = args[0]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	sources, err := gas.BuildSources(cfg.Gas.Sources)
	if err != nil {
		slog.Error("Failed to build gas sources", "error", err)
		os.Exit(1)
	}

	oracle := gas.NewOracle(sources, cfg.Gas.Oracle, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	quote := oracle.Price(ctx, key)
	fmt.Printf("%s: %.2f gwei (source=%s confidence=%s)\n",
		quote.Key, quote.GweiPrice, quote.Source, quote.Confidence)
}
