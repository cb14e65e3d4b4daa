// Package pipeline coordinates one (location type, region) fetch: cache
// check, per-subarea Overpass queries with retry isolation, deterministic
// aggregation and the day-scoped cache write.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geoatlas/poifetch/internal/area"
	"github.com/geoatlas/poifetch/internal/cache"
	"github.com/geoatlas/poifetch/internal/model"
	"github.com/geoatlas/poifetch/internal/overpass"
	"github.com/geoatlas/poifetch/internal/progress"
	"github.com/geoatlas/poifetch/internal/tags"
)

// Executor issues one Overpass query and returns the raw response body.
// Retries happen inside the executor; the orchestrator sees only the final
// outcome per subarea.
type Executor interface {
	Execute(ctx context.Context, query string) ([]byte, error)
}

// Options tunes the orchestrator.
type Options struct {
	// Concurrency caps simultaneous subarea requests. 0 or 1 keeps the
	// baseline sequential behavior, which is gentlest on the remote
	// service's usage limits. The executor's rate ceiling applies across
	// workers either way.
	Concurrency int

	// QueryTimeout is the server-side execution budget per subarea query.
	QueryTimeout time.Duration

	// Dedupe drops duplicate elements (same type and id) during the merge.
	// Only relevant when a catalog region's subareas overlap; on by default
	// so such regions do not silently double-count.
	Dedupe *bool

	// Progress receives fetch/subarea events. Defaults to progress.Nop.
	Progress progress.Sink
}

// Orchestrator owns no mutable state across requests; the cache store
// handles the one shared resource with atomic per-key writes.
type Orchestrator struct {
	catalog      *area.Catalog
	cache        *cache.Store
	executor     Executor
	progress     progress.Sink
	concurrency  int
	queryTimeout time.Duration
	dedupe       bool
}

// New wires an orchestrator.
func New(catalog *area.Catalog, store *cache.Store, executor Executor, opts Options) *Orchestrator {
	o := &Orchestrator{
		catalog:      catalog,
		cache:        store,
		executor:     executor,
		progress:     opts.Progress,
		concurrency:  opts.Concurrency,
		queryTimeout: opts.QueryTimeout,
		dedupe:       true,
	}
	if o.progress == nil {
		o.progress = progress.Nop{}
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	if opts.Dedupe != nil {
		o.dedupe = *opts.Dedupe
	}
	return o
}

// subareaOutcome is one subarea's contribution, slotted by index so the
// merge order matches catalog order regardless of completion order.
type subareaOutcome struct {
	elements []model.Element
	failure  *model.SubareaFailure
}

// Fetch returns the aggregated element set for (locationType, regionName).
// An unknown region fails immediately. Subarea failures after retries are
// recorded in the result, not raised: partial data is returned with the
// failures attached so the caller can judge it. A cancelled context aborts
// the fetch without writing a cache entry.
func (o *Orchestrator) Fetch(ctx context.Context, locationType, regionName string) (*model.AggregatedResult, error) {
	region, err := o.catalog.Lookup(regionName)
	if err != nil {
		return nil, err
	}

	if cached, ok := o.cache.Get(locationType, regionName); ok {
		o.progress.CacheHit(locationType, regionName)
		return cached, nil
	}

	key, value := tags.Resolve(locationType)
	subareas := region.Subareas
	o.progress.FetchStarted(locationType, regionName, len(subareas))

	outcomes := make([]subareaOutcome, len(subareas))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, box := range subareas {
		g.Go(func() error {
			outcomes[i] = o.fetchSubarea(gctx, key, value, i, len(subareas), box)
			// Only cancellation propagates; subarea failures are absorbed.
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: fetch aborted")
	}

	result := o.merge(locationType, regionName, outcomes)

	if err := o.cache.Put(locationType, regionName, result); err != nil {
		// The in-memory result is still good; a failed cache write only
		// costs a refetch tomorrow.
		zap.L().Warn("pipeline: cache write failed",
			zap.String("type", locationType),
			zap.String("region", regionName),
			zap.Error(err),
		)
	}

	return result, nil
}

func (o *Orchestrator) fetchSubarea(ctx context.Context, key, value string, index, total int, box area.BoundingBox) subareaOutcome {
	o.progress.SubareaStarted(index+1, total, box.Array())

	query := overpass.BuildQuery(key, value, box, o.queryTimeout)
	body, err := o.executor.Execute(ctx, query)
	if err != nil {
		o.progress.SubareaFinished(index+1, total, 0, err)
		return subareaOutcome{failure: &model.SubareaFailure{
			Subarea: index + 1,
			Bounds:  box.Array(),
			Error:   err.Error(),
		}}
	}

	elements, err := overpass.ParseElements(body)
	if err != nil {
		o.progress.SubareaFinished(index+1, total, 0, err)
		return subareaOutcome{failure: &model.SubareaFailure{
			Subarea: index + 1,
			Bounds:  box.Array(),
			Error:   err.Error(),
		}}
	}

	o.progress.SubareaFinished(index+1, total, len(elements), nil)
	return subareaOutcome{elements: elements}
}

// merge unions the subarea element sets in catalog order. With dedupe on,
// the first occurrence of an element wins, which keeps the output
// deterministic even when overlapping subareas return the same element.
func (o *Orchestrator) merge(locationType, regionName string, outcomes []subareaOutcome) *model.AggregatedResult {
	result := &model.AggregatedResult{
		Version:      model.OverpassVersion,
		Generator:    model.Generator,
		LocationType: locationType,
		Region:       regionName,
		FetchedAt:    time.Now().UTC(),
		Elements:     []model.Element{},
	}

	var seen map[model.ElementKey]struct{}
	if o.dedupe {
		seen = make(map[model.ElementKey]struct{})
	}

	for _, out := range outcomes {
		if out.failure != nil {
			result.Failures = append(result.Failures, *out.failure)
			continue
		}
		for _, e := range out.elements {
			if seen != nil {
				if _, dup := seen[e.Key()]; dup {
					continue
				}
				seen[e.Key()] = struct{}{}
			}
			result.Elements = append(result.Elements, e)
		}
	}

	return result
}
