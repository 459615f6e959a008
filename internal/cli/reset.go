package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/sentinel/internal/core/domain"
)

var resetCmd = &cobra.Command{
	Use:   "reset [chain:venue:pair]",
	Short: "Reset a route back to healthy",
	Args:  cobra.ExactArgs(1),
	Run:   runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) {
	id, err := domain.ParseRouteID(args[0])
	if err != nil {
		fmt.Printf("Invalid route id: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	target := fmt.Sprintf("%s/routes/reset?route=%s", opsBase(), url.QueryEscape(id.String()))
	resp, err := client.Post(target, "application/json", nil)
	if err != nil {
		slog.Error("Failed to reach sentinel", "error", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		slog.Error("Reset failed", "status", resp.Status, "body", string(body))
		os.Exit(1)
	}

	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Error("Unexpected response", "body", string(body))
		os.Exit(1)
	}

	// An unknown route is a no-op, not a failure.
	switch result["status"] {
	case "reset":
		fmt.Printf("Route %s reset to healthy\n", id)
	case "not_found":
		fmt.Printf("Route %s not found\n", id)
	default:
		fmt.Printf("Unexpected status %q\n", result["status"])
	}
}
