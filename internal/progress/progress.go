// Package progress defines the observer interface the fetch pipeline and
// the Overpass client report through. The core never prints; console output
// is one interchangeable sink implementation.
package progress

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Sink receives fetch progress events. Implementations must be safe for
// concurrent use when the pipeline runs subareas concurrently.
type Sink interface {
	// FetchStarted fires once per cache miss, before any subarea query.
	FetchStarted(locationType, region string, subareas int)
	// CacheHit fires instead of FetchStarted when the cache satisfies the request.
	CacheHit(locationType, region string)
	// SubareaStarted fires before querying one subarea. Index is 1-based;
	// bounds are (south, west, north, east).
	SubareaStarted(index, total int, bounds [4]float64)
	// Attempt fires after each network attempt with its outcome (err nil on
	// success). Attempt numbers are 1-based.
	Attempt(attempt, max int, err error)
	// SubareaFinished fires once per subarea with the element count, or the
	// error if all attempts failed.
	SubareaFinished(index, total, elements int, err error)
}

// Nop discards all events.
type Nop struct{}

func (Nop) FetchStarted(string, string, int)     {}
func (Nop) CacheHit(string, string)              {}
func (Nop) SubareaStarted(int, int, [4]float64)  {}
func (Nop) Attempt(int, int, error)              {}
func (Nop) SubareaFinished(int, int, int, error) {}

// Console writes human-readable progress lines, in the spirit of the
// interleaved output a long-running fetch produces on a terminal.
type Console struct {
	W io.Writer
}

func (c Console) FetchStarted(locationType, region string, subareas int) {
	fmt.Fprintf(c.W, "Fetching %s data for %s\n", locationType, region)
	fmt.Fprintf(c.W, "Total subareas to process: %d\n", subareas)
}

func (c Console) CacheHit(locationType, region string) {
	fmt.Fprintf(c.W, "Using cached %s data for %s\n", locationType, region)
}

func (c Console) SubareaStarted(index, total int, bounds [4]float64) {
	fmt.Fprintf(c.W, "Processing subarea %d/%d\n", index, total)
	fmt.Fprintf(c.W, "Bounds: %.2f°N, %.2f°E to %.2f°N, %.2f°E\n",
		bounds[0], bounds[1], bounds[2], bounds[3])
}

func (c Console) Attempt(attempt, max int, err error) {
	if err != nil {
		fmt.Fprintf(c.W, "Attempt %d/%d failed: %v\n", attempt, max, err)
		return
	}
	fmt.Fprintf(c.W, "Attempt %d/%d succeeded\n", attempt, max)
}

func (c Console) SubareaFinished(index, total, elements int, err error) {
	if err != nil {
		fmt.Fprintf(c.W, "Subarea %d/%d failed: %v\n", index, total, err)
		return
	}
	fmt.Fprintf(c.W, "Found %d elements in subarea %d/%d\n", elements, index, total)
}

// Log forwards events to the global zap logger. Used by the serve command,
// where terminal-style progress lines make no sense.
type Log struct{}

func (Log) FetchStarted(locationType, region string, subareas int) {
	zap.L().Info("fetch started",
		zap.String("type", locationType),
		zap.String("region", region),
		zap.Int("subareas", subareas),
	)
}

func (Log) CacheHit(locationType, region string) {
	zap.L().Info("cache hit", zap.String("type", locationType), zap.String("region", region))
}

func (Log) SubareaStarted(index, total int, bounds [4]float64) {
	zap.L().Debug("subarea started",
		zap.Int("index", index),
		zap.Int("total", total),
		zap.Float64s("bounds", bounds[:]),
	)
}

func (Log) Attempt(attempt, max int, err error) {
	if err == nil {
		return
	}
	zap.L().Warn("attempt failed", zap.Int("attempt", attempt), zap.Int("max", max), zap.Error(err))
}

func (Log) SubareaFinished(index, total, elements int, err error) {
	if err != nil {
		zap.L().Warn("subarea failed", zap.Int("index", index), zap.Int("total", total), zap.Error(err))
		return
	}
	zap.L().Info("subarea finished", zap.Int("index", index), zap.Int("total", total), zap.Int("elements", elements))
}
