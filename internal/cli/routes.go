package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/sentinel/internal/core/config"
	"github.com/vietddude/sentinel/internal/core/domain"
)

var (
	opsAddr   string
	asJSON    bool
	routesCmd = &cobra.Command{
		Use:   "routes",
		Short: "Show the health of all tracked routes",
		Run:   runRoutes,
	}
)

func init() {
	routesCmd.Flags().BoolVar(&asJSON, "json", false, "print machine-readable JSON")
	rootCmd.PersistentFlags().StringVar(&opsAddr, "addr", "", "ops server address (default http://localhost:<server.port>)")
	rootCmd.AddCommand(routesCmd)
}

// opsBase resolves the running instance's ops address from the flag or the
// config file.
func opsBase() string {
	if opsAddr != "" {
		return opsAddr
	}
	port := 8080
	if cfg, err := config.Load(cfgPath); err == nil {
		port = cfg.Server.Port
	}
	return fmt.Sprintf("http://localhost:%d", port)
}

func opsGet(path string, out any) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(opsBase() + path)
	if err != nil {
		return fmt.Errorf("ops request failed (is sentinel running?): %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ops request failed: %s: %s", resp.Status, body)
	}
	return json.Unmarshal(body, out)
}

func runRoutes(cmd *cobra.Command, args []string) {
	var reports []domain.RouteReport
	if err := opsGet("/routes", &reports); err != nil {
		slog.Error("Failed to fetch routes", "error", err)
		os.Exit(1)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(reports)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ROUTE\tSTATE\tCONSEC FAILS\tATTEMPTS\tSUCCESSES\tWIN RATE")
	for _, rep := range reports {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.1f%%\n",
			rep.Route.String(),
			rep.State,
			rep.ConsecutiveFailures,
			rep.TotalAttempts,
			rep.TotalSuccesses,
			rep.WinRate*100,
		)
	}
	_ = w.Flush()
}
