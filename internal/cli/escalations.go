package cli

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/sentinel/internal/core/domain"
)

var (
	escLimit       int
	escalationsCmd = &cobra.Command{
		Use:   "escalations",
		Short: "List recent hedge escalations awaiting manual intervention",
		Run:   runEscalations,
	}
)

func init() {
	escalationsCmd.Flags().IntVar(&escLimit, "limit", 20, "maximum entries to show")
	rootCmd.AddCommand(escalationsCmd)
}

func runEscalations(cmd *cobra.Command, args []string) {
	var entries []domain.Escalation
	if err := opsGet(fmt.Sprintf("/escalations?limit=%d", escLimit), &entries); err != nil {
		slog.Error("Failed to fetch escalations", "error", err)
		os.Exit(1)
	}

	if len(entries) == 0 {
		fmt.Println("No escalations recorded")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "TIME\tACTION\tROUTE\tATTEMPTS\tERROR")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.Action,
			e.Route.String(),
			e.Attempts,
			e.LastError,
		)
	}
	_ = w.Flush()
}
