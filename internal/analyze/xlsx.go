package analyze

import (
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/geoatlas/poifetch/internal/model"
)

// ExportXLSX writes a two-sheet workbook: a summary sheet with the headline
// stats and a breakdown by element type, and an elements sheet with one row
// per element.
func ExportXLSX(result *model.AggregatedResult, path string) error {
	f := xlsx.NewFile()

	if err := addSummarySheet(f, result); err != nil {
		return err
	}
	if err := addElementsSheet(f, result); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "analyze: save workbook %s", path)
	}
	return nil
}

func addSummarySheet(f *xlsx.File, result *model.AggregatedResult) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "analyze: add summary sheet")
	}

	stats := Summarize(result)
	addRow(sheet, "Location type", stats.LocationType)
	addRow(sheet, "Region", stats.Region)
	addRow(sheet, "Total elements", strconv.Itoa(stats.Total))
	addRow(sheet, "Named elements", strconv.Itoa(stats.Named))
	addRow(sheet)
	addRow(sheet, "Element type", "Count")
	for _, typ := range sortedKeys(stats.ByType) {
		addRow(sheet, typ, strconv.Itoa(stats.ByType[typ]))
	}
	return nil
}

func addElementsSheet(f *xlsx.File, result *model.AggregatedResult) error {
	sheet, err := f.AddSheet("Elements")
	if err != nil {
		return eris.Wrap(err, "analyze: add elements sheet")
	}

	addRow(sheet, "Type", "ID", "Name", "Lat", "Lon")
	for _, e := range result.Elements {
		addRow(sheet,
			e.Type,
			strconv.FormatInt(e.ID, 10),
			e.Name(),
			strconv.FormatFloat(e.Lat, 'f', -1, 64),
			strconv.FormatFloat(e.Lon, 'f', -1, 64),
		)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
