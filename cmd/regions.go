package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/geoatlas/poifetch/internal/area"
	"github.com/geoatlas/poifetch/internal/tags"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List available regions and their subareas",
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog, err := area.LoadCatalog(cfg.Regions.File)
		if err != nil {
			return err
		}
		formatRegions(os.Stdout, catalog)
		return nil
	},
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List location types with a known tag mapping",
	Long:  "Types outside this list still work: the type name is used as both the OSM tag key and value.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tOSM TAG")
		for _, t := range tags.Known() {
			key, value := tags.Resolve(t)
			fmt.Fprintf(w, "%s\t%s=%s\n", t, key, value)
		}
		return w.Flush()
	},
}

func formatRegions(out io.Writer, catalog *area.Catalog) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REGION\tBOUNDS\tSUBAREAS")
	for _, name := range catalog.Names() {
		region, err := catalog.Lookup(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d\n", region.Name, region.Bounds, len(region.Subareas))
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(regionsCmd)
	rootCmd.AddCommand(typesCmd)
}
