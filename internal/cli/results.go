package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vietddude/rankcheck/internal/core/config"
	"github.com/vietddude/rankcheck/internal/core/domain"
	"github.com/vietddude/rankcheck/internal/infra/storage/postgres"
)

var showRows bool

var resultsCmd = &cobra.Command{
	Use:   "results [run_id]",
	Short: "Show the ledger of a previous run",
	Args:  cobra.ExactArgs(1),
	Run:   runResults,
}

func init() {
	resultsCmd.Flags().BoolVar(&showRows, "rows", false, "list every entry instead of the per-category counts")
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) {
	runID, err := uuid.Parse(args[0])
	if err != nil {
		fmt.Printf("Invalid run id: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		slog.Error("The results ledger needs database.url or DATABASE_URL")
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

	repo := postgres.NewResultRepo(db)
	if showRows {
		recs, err := repo.ListByRun(ctx, runID)
		if err != nil {
			slog.Error("Failed to query results", "error", err)
			os.Exit(1)
		}
		writeRows(os.Stdout, recs)
		return
	}

	counts, err := repo.CountByCategory(ctx, runID)
	if err != nil {
		slog.Error("Failed to query results", "error", err)
		os.Exit(1)
	}
	writeCounts(os.Stdout, counts)
}

func writeCounts(out io.Writer, counts map[string]int) {
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "CATEGORY\tENTRIES")
	for _, c := range categories {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", c, counts[c])
	}
	_ = w.Flush()
}

func writeRows(out io.Writer, recs []*domain.RunRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "USERNAME\tCATEGORY\tCURRENT\tRECHECK\tCHECKED\tREASON")
	for _, r := range recs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n",
			r.Username, r.Category, r.CurrentName, r.Recheck,
			r.CheckedAt.Format(time.RFC3339), r.Reason)
	}
	_ = w.Flush()
}
