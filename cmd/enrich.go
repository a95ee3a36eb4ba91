package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/outreach-cli/internal/enrich"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/internal/run"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/pkg/hunter"
	"github.com/sells-group/outreach-cli/pkg/openai"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <file>",
	Short: "Enrich a contact spreadsheet",
	Long: "Splits the file into sections, asks per section which roles to enrich, " +
		"then searches for current officeholders and verifies or discovers their emails. " +
		"One output file is written per section and role. " +
		"Ctrl-C cancels cooperatively: the section in flight is flushed with an _incomplete marker.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err != nil {
			return eris.Wrapf(err, "enrich: input %s", path)
		}
		if cfg.OpenAI.Key == "" {
			return eris.New("enrich: openai.key is required (OUTREACH_OPENAI_KEY)")
		}
		if cfg.Hunter.Key == "" {
			return eris.New("enrich: hunter.key is required (OUTREACH_HUNTER_KEY)")
		}

		noHistory, _ := cmd.Flags().GetBool("no-history")
		outDir, _ := cmd.Flags().GetString("output-dir")
		if outDir == "" {
			outDir = cfg.Output.Dir
		}
		if outDir == "" {
			outDir = filepath.Dir(path)
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return eris.Wrap(err, "enrich: create output dir")
		}

		logName := "log_" + time.Now().Format("20060102_150405") + ".log"
		detach, err := run.AttachRunLog(filepath.Join(outDir, logName))
		if err != nil {
			return err
		}
		defer detach()

		opts := []run.Option{run.WithOutputDir(outDir)}
		if !noHistory {
			st, err := initStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			opts = append(opts, run.WithHistory(st))
		}

		ctrl := run.NewController(buildEngine(), terminalGate{}, opts...)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)

		var stats *run.Stats
		g, gctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			var err error
			stats, err = ctrl.Run(gctx, path)
			return err
		})
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return nil
			case <-sig:
				zap.L().Warn("interrupt received, cancelling run")
				ctrl.Cancel()
			}
			// A second interrupt stops waiting for the cooperative flush.
			select {
			case <-gctx.Done():
			case <-sig:
				zap.L().Warn("second interrupt, aborting")
				return eris.New("enrich: aborted")
			}
			return nil
		})

		err = g.Wait()
		if stats != nil {
			printRunSummary(stats, ctrl.State())
		}
		if errors.Is(err, run.ErrSuperseded) {
			return nil
		}
		return err
	},
}

func init() {
	enrichCmd.Flags().String("output-dir", "", "directory for output files (default: beside the input)")
	enrichCmd.Flags().Bool("no-history", false, "do not record this run in the history database")
	rootCmd.AddCommand(enrichCmd)
}

// buildEngine wires the search and email clients from config.
func buildEngine() *enrich.Engine {
	searchOpts := []openai.Option{}
	if cfg.OpenAI.BaseURL != "" {
		searchOpts = append(searchOpts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	if cfg.OpenAI.Model != "" {
		searchOpts = append(searchOpts, openai.WithModel(cfg.OpenAI.Model))
	}
	if cfg.OpenAI.MaxTokens > 0 {
		searchOpts = append(searchOpts, openai.WithMaxTokens(cfg.OpenAI.MaxTokens))
	}

	return enrich.NewEngine(
		openai.NewClient(cfg.OpenAI.Key, searchOpts...),
		newHunterClient(),
		enrich.Prompts{
			GIS:      cfg.Prompts.GIS,
			Mayor:    cfg.Prompts.Mayor,
			Assessor: cfg.Prompts.Assessor,
		},
	)
}

func newHunterClient() hunter.Client {
	opts := []hunter.Option{
		hunter.WithRateLimit(cfg.Hunter.RequestsPerSec),
		hunter.WithPollConfig(resilience.PollConfig{
			MaxExtraAttempts: cfg.Hunter.PollMaxAttempts,
			Interval:         time.Duration(cfg.Hunter.PollIntervalMS) * time.Millisecond,
		}),
	}
	if cfg.Hunter.BaseURL != "" {
		opts = append(opts, hunter.WithBaseURL(cfg.Hunter.BaseURL))
	}
	return hunter.NewClient(cfg.Hunter.Key, opts...)
}

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func printRunSummary(stats *run.Stats, state run.State) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "State:\t%s\n", state)
	_, _ = fmt.Fprintf(w, "Sections enriched:\t%d\n", stats.SectionsEnriched)
	_, _ = fmt.Fprintf(w, "Sections skipped:\t%d\n", stats.SectionsSkipped)
	_, _ = fmt.Fprintf(w, "Rows processed:\t%d\n", stats.RowsProcessed)
	_, _ = fmt.Fprintf(w, "Rows skipped:\t%d\n", stats.RowsSkipped)
	_, _ = fmt.Fprintf(w, "Files written:\t%d\n", len(stats.FilesWritten))
	if stats.FilesIncomplete > 0 {
		_, _ = fmt.Fprintf(w, "  Incomplete:\t%d\n", stats.FilesIncomplete)
	}
	_ = w.Flush()
	for _, f := range stats.FilesWritten {
		fmt.Println("  " + f)
	}
}
