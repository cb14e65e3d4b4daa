package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geoatlas/poifetch/internal/model"
	"github.com/geoatlas/poifetch/internal/progress"
	"github.com/geoatlas/poifetch/internal/store"
)

var fetchConcurrency int

var fetchCmd = &cobra.Command{
	Use:   "fetch <location-type> <region>",
	Short: "Fetch points of interest for a region",
	Long:  "Fetches all elements of one location type across a region's subareas, merges them, and caches the result for the rest of the day. Known types map to OSM tags (e.g. park -> leisure=park); unknown types are used as both tag key and value.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		locationType, region := args[0], args[1]

		if fetchConcurrency > 0 {
			cfg.Fetch.Concurrency = fetchConcurrency
		}

		sink := &hitRecorder{Sink: progress.Console{W: os.Stdout}}
		e, err := initEnv(sink)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.StartRun(ctx, locationType, region)
		if err != nil {
			return err
		}

		result, fetchErr := e.Orchestrator.Fetch(ctx, locationType, region)

		status, elements, failures, errText := runOutcome(ctx.Err() != nil, result, fetchErr)
		if err := st.FinishRun(cmd.Context(), run.ID, status, sink.hit, elements, failures, errText); err != nil {
			zap.L().Warn("record run failed", zap.String("run", run.ID), zap.Error(err))
		}

		if fetchErr != nil {
			return fetchErr
		}

		fmt.Printf("\nTotal elements: %d\n", len(result.Elements))
		if result.Partial() {
			fmt.Printf("Failed subareas: %d\n", len(result.Failures))
			for _, f := range result.Failures {
				fmt.Printf("  subarea %d: %s\n", f.Subarea, f.Error)
			}
		}
		fmt.Printf("Cached at: %s\n", e.Cache.Path(locationType, region))
		return nil
	},
}

// runOutcome maps a fetch result to its run history row.
func runOutcome(cancelled bool, result *model.AggregatedResult, fetchErr error) (store.RunStatus, int, int, string) {
	switch {
	case fetchErr != nil && cancelled:
		return store.RunStatusCancelled, 0, 0, fetchErr.Error()
	case fetchErr != nil:
		return store.RunStatusFailed, 0, 0, fetchErr.Error()
	case result.Partial():
		return store.RunStatusPartial, len(result.Elements), len(result.Failures), ""
	default:
		return store.RunStatusComplete, len(result.Elements), 0, ""
	}
}

// hitRecorder notes whether the fetch was served from cache, for the run
// history row.
type hitRecorder struct {
	progress.Sink
	hit bool
}

func (h *hitRecorder) CacheHit(locationType, region string) {
	h.hit = true
	h.Sink.CacheHit(locationType, region)
}

func init() {
	fetchCmd.Flags().IntVar(&fetchConcurrency, "concurrency", 0, "parallel subarea fetches (default from config)")
	rootCmd.AddCommand(fetchCmd)
}
