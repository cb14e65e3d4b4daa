package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/geoatlas/poifetch/internal/filter"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Derive filtered copies of cached result files",
}

var filterApplyCmd = &cobra.Command{
	Use:   "apply <file> <named_only|unnamed_only>",
	Short: "Write a filtered copy of one cached file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := filter.Kind(args[1])
		if kind != filter.NamedOnly && kind != filter.UnnamedOnly {
			return eris.Errorf("filter: unknown kind %q (want named_only or unnamed_only)", args[1])
		}

		repo, err := filter.NewRepo(cfg.Cache.Dir, cfg.Cache.FilteredDir)
		if err != nil {
			return err
		}

		outName, doc, err := repo.Apply(args[0], kind)
		if err != nil {
			return err
		}

		fmt.Printf("Wrote %s (%d of %d elements kept)\n", outName, doc.FilteredCount, doc.OriginalCount)
		return nil
	},
}

var filterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List raw and filtered data files",
	RunE: func(cmd *cobra.Command, _ []string) error {
		repo, err := filter.NewRepo(cfg.Cache.Dir, cfg.Cache.FilteredDir)
		if err != nil {
			return err
		}

		raw, err := repo.ListRaw()
		if err != nil {
			return err
		}
		filtered, err := repo.ListFiltered()
		if err != nil {
			return err
		}

		fmt.Printf("Raw files (%s):\n", cfg.Cache.Dir)
		for _, name := range raw {
			fmt.Printf("  %s\n", name)
		}
		fmt.Printf("Filtered files (%s):\n", cfg.Cache.FilteredDir)
		for _, name := range filtered {
			fmt.Printf("  %s\n", name)
		}
		return nil
	},
}

var filterCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count elements per file in raw and filtered directories",
	RunE: func(cmd *cobra.Command, _ []string) error {
		repo, err := filter.NewRepo(cfg.Cache.Dir, cfg.Cache.FilteredDir)
		if err != nil {
			return err
		}

		counts, err := repo.CountObjects()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FILE\tELEMENTS")
		for _, name := range sortedCountKeys(counts.Raw.Files) {
			fmt.Fprintf(w, "%s\t%d\n", name, counts.Raw.Files[name])
		}
		for _, name := range sortedCountKeys(counts.Filtered.Files) {
			fmt.Fprintf(w, "%s\t%d\n", name, counts.Filtered.Files[name])
		}
		fmt.Fprintf(w, "TOTAL (raw)\t%d\n", counts.Raw.Total)
		fmt.Fprintf(w, "TOTAL (filtered)\t%d\n", counts.Filtered.Total)
		return w.Flush()
	},
}

func sortedCountKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	filterCmd.AddCommand(filterApplyCmd)
	filterCmd.AddCommand(filterListCmd)
	filterCmd.AddCommand(filterCountCmd)
	rootCmd.AddCommand(filterCmd)
}
