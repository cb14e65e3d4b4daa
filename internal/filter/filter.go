// Package filter derives filtered copies of cached result files: keep only
// named (or only unnamed) locations, preserving provenance counts in the
// output document.
package filter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/geoatlas/poifetch/internal/model"
)

// Kind selects which elements a filter keeps.
type Kind string

const (
	NamedOnly   Kind = "named_only"
	UnnamedOnly Kind = "unnamed_only"
)

// Document is a filtered result file. It carries the original and filtered
// counts so a reader can judge how lossy the filter was without reopening
// the source file.
type Document struct {
	Version       float64         `json:"version"`
	Generator     string          `json:"generator"`
	OriginalFile  string          `json:"original_file"`
	FilterType    Kind            `json:"filter_type"`
	OriginalCount int             `json:"original_count"`
	FilteredCount int             `json:"filtered_count"`
	Elements      []model.Element `json:"elements"`
}

// Repo reads raw cache files and writes filtered files beside them.
type Repo struct {
	rawDir      string
	filteredDir string
}

// NewRepo ensures both directories exist.
func NewRepo(rawDir, filteredDir string) (*Repo, error) {
	for _, dir := range []string{rawDir, filteredDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "filter: create directory %s", dir)
		}
	}
	return &Repo{rawDir: rawDir, filteredDir: filteredDir}, nil
}

// Apply filters one raw file and writes the result as
// {base}_{kind}.json in the filtered directory. Returns the new file name
// and the document (for summaries).
func (r *Repo) Apply(filename string, kind Kind) (string, *Document, error) {
	data, err := os.ReadFile(filepath.Join(r.rawDir, filename))
	if err != nil {
		return "", nil, eris.Wrapf(err, "filter: read %s", filename)
	}

	var src model.AggregatedResult
	if err := json.Unmarshal(data, &src); err != nil {
		return "", nil, eris.Wrapf(err, "filter: decode %s", filename)
	}

	keep := func(e model.Element) bool { return e.HasName() }
	if kind == UnnamedOnly {
		keep = func(e model.Element) bool { return !e.HasName() }
	}

	doc := &Document{
		Version:       src.Version,
		Generator:     "Filtered Data",
		OriginalFile:  filename,
		FilterType:    kind,
		OriginalCount: len(src.Elements),
		Elements:      []model.Element{},
	}
	if doc.Version == 0 {
		doc.Version = model.OverpassVersion
	}
	for _, e := range src.Elements {
		if keep(e) {
			doc.Elements = append(doc.Elements, e)
		}
	}
	doc.FilteredCount = len(doc.Elements)

	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	outName := base + "_" + string(kind) + ".json"

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", nil, eris.Wrap(err, "filter: encode document")
	}
	if err := os.WriteFile(filepath.Join(r.filteredDir, outName), out, 0o644); err != nil {
		return "", nil, eris.Wrapf(err, "filter: write %s", outName)
	}

	return outName, doc, nil
}

// ListRaw returns the JSON files in the raw directory, sorted.
func (r *Repo) ListRaw() ([]string, error) {
	return listJSON(r.rawDir)
}

// ListFiltered returns the JSON files in the filtered directory, sorted.
func (r *Repo) ListFiltered() ([]string, error) {
	return listJSON(r.filteredDir)
}

func listJSON(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "filter: list %s", dir)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// DirCounts holds per-file and total element counts for one directory.
// Files that fail to parse count as zero rather than aborting the walk.
type DirCounts struct {
	Total int            `json:"total_objects"`
	Files map[string]int `json:"files"`
}

// Counts tallies element counts in both directories.
type Counts struct {
	Raw      DirCounts `json:"raw_data"`
	Filtered DirCounts `json:"filtered_data"`
}

// CountObjects counts elements per file in both directories.
func (r *Repo) CountObjects() (*Counts, error) {
	raw, err := countDir(r.rawDir)
	if err != nil {
		return nil, err
	}
	filtered, err := countDir(r.filteredDir)
	if err != nil {
		return nil, err
	}
	return &Counts{Raw: *raw, Filtered: *filtered}, nil
}

func countDir(dir string) (*DirCounts, error) {
	names, err := listJSON(dir)
	if err != nil {
		return nil, err
	}
	counts := &DirCounts{Files: make(map[string]int, len(names))}
	for _, name := range names {
		var doc struct {
			Elements []json.RawMessage `json:"elements"`
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			err = json.Unmarshal(data, &doc)
		}
		if err != nil {
			counts.Files[name] = 0
			continue
		}
		counts.Files[name] = len(doc.Elements)
		counts.Total += len(doc.Elements)
	}
	return counts, nil
}
