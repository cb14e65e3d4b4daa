package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/geoatlas/poifetch/internal/analyze"
	"github.com/geoatlas/poifetch/internal/cache"
)

var (
	statsTag    string
	statsSearch string
	statsSample int
	statsXLSX   string
)

var statsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Summarize a cached result file",
	Long:  "Prints element totals and a breakdown by element type. Use --tag for a breakdown by tag value, --search to find elements by name, --sample to print example elements, and --xlsx to export a workbook.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.NewStore(cfg.Cache.Dir)
		if err != nil {
			return err
		}
		result, err := store.Load(args[0])
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

		s := analyze.Summarize(result)
		fmt.Fprintf(w, "Location type:\t%s\n", s.LocationType)
		fmt.Fprintf(w, "Region:\t%s\n", s.Region)
		fmt.Fprintf(w, "Total elements:\t%d\n", s.Total)
		fmt.Fprintf(w, "Named elements:\t%d\n", s.Named)
		for _, typ := range sortedCountKeys(s.ByType) {
			fmt.Fprintf(w, "  %s:\t%d\n", typ, s.ByType[typ])
		}
		fmt.Fprintf(w, "Tag keys:\t%v\n", s.TagKeys)

		if statsTag != "" {
			fmt.Fprintf(w, "\nBy %s:\n", statsTag)
			for _, tc := range analyze.CountByTag(result, statsTag) {
				fmt.Fprintf(w, "  %s:\t%d\n", tc.Value, tc.Count)
			}
		}

		if statsSearch != "" {
			matches := analyze.SearchByName(result, statsSearch)
			fmt.Fprintf(w, "\nMatches for %q: %d\n", statsSearch, len(matches))
			for _, e := range matches {
				fmt.Fprintf(w, "  %s %d\t%s\n", e.Type, e.ID, e.Name())
			}
		}

		if statsSample > 0 {
			fmt.Fprintln(w, "\nSample:")
			for _, e := range analyze.Sample(result, statsSample) {
				fmt.Fprintf(w, "  %s %d\t%s\t(%g, %g)\n", e.Type, e.ID, e.Name(), e.Lat, e.Lon)
			}
		}

		if err := w.Flush(); err != nil {
			return err
		}

		if statsXLSX != "" {
			if err := analyze.ExportXLSX(result, statsXLSX); err != nil {
				return err
			}
			fmt.Printf("\nWorkbook written to %s\n", statsXLSX)
		}

		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsTag, "tag", "", "break element counts down by this tag key")
	statsCmd.Flags().StringVar(&statsSearch, "search", "", "find named elements containing this substring")
	statsCmd.Flags().IntVar(&statsSample, "sample", 0, "print up to N sample elements")
	statsCmd.Flags().StringVar(&statsXLSX, "xlsx", "", "export summary and elements to this XLSX file")
	rootCmd.AddCommand(statsCmd)
}
