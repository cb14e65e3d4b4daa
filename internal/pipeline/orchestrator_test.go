package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoatlas/poifetch/internal/area"
	"github.com/geoatlas/poifetch/internal/cache"
	"github.com/geoatlas/poifetch/internal/model"
	"github.com/geoatlas/poifetch/internal/overpass"
)

// fakeExecutor resolves responses by the bbox embedded in the query, so it
// works under any completion order.
type fakeExecutor struct {
	calls     atomic.Int32
	responses map[string][]byte // bbox fragment -> body
	failOn    map[string]error  // bbox fragment -> error
	delay     time.Duration
	blockCtx  bool // if set, honor ctx cancellation during delay
}

func (f *fakeExecutor) Execute(ctx context.Context, query string) ([]byte, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		if f.blockCtx {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.delay):
			}
		} else {
			time.Sleep(f.delay)
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	for frag, err := range f.failOn {
		if strings.Contains(query, frag) {
			return nil, err
		}
	}
	for frag, body := range f.responses {
		if strings.Contains(query, frag) {
			return body, nil
		}
	}
	return []byte(`{"elements":[]}`), nil
}

// body builds an Overpass response with count node elements starting at id.
func body(t *testing.T, startID int64, count int) []byte {
	t.Helper()
	elements := make([]model.Element, count)
	for i := range elements {
		elements[i] = model.Element{Type: "node", ID: startID + int64(i)}
	}
	doc := map[string]any{"version": 0.6, "generator": "Overpass API", "elements": elements}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

// Subarea bbox fragments of the builtin northern_europe region, in catalog order.
var northernBoxes = []string{
	"(55,4,63,18)",
	"(63,4,71,18)",
	"(55,18,63,32)",
	"(63,18,71,32)",
}

func newStore(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestFetch_EndToEnd_AllSubareasSucceed(t *testing.T) {
	exec := &fakeExecutor{responses: map[string][]byte{
		northernBoxes[0]: body(t, 100, 10),
		northernBoxes[1]: body(t, 200, 5),
		northernBoxes[2]: body(t, 300, 0),
		northernBoxes[3]: body(t, 400, 20),
	}}
	store := newStore(t)
	o := New(area.Builtin(), store, exec, Options{})

	result, err := o.Fetch(context.Background(), "park", "northern_europe")
	require.NoError(t, err)

	assert.Len(t, result.Elements, 35)
	assert.Empty(t, result.Failures)
	assert.Equal(t, "park", result.LocationType)
	assert.Equal(t, "northern_europe", result.Region)
	assert.Equal(t, int32(4), exec.calls.Load())

	// Cache entry written under today's key.
	cached, ok := store.Get("park", "northern_europe")
	require.True(t, ok)
	assert.Equal(t, result.ElementKeys(), cached.ElementKeys())
}

func TestFetch_SecondCallSameDayHitsCache(t *testing.T) {
	exec := &fakeExecutor{}
	store := newStore(t)
	o := New(area.Builtin(), store, exec, Options{})

	first, err := o.Fetch(context.Background(), "park", "northern_europe")
	require.NoError(t, err)
	callsAfterFirst := exec.calls.Load()

	second, err := o.Fetch(context.Background(), "park", "northern_europe")
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst, exec.calls.Load(), "no network calls on a same-day repeat")
	assert.Equal(t, first.ElementKeys(), second.ElementKeys())
}

func TestFetch_UnknownRegion(t *testing.T) {
	exec := &fakeExecutor{}
	o := New(area.Builtin(), newStore(t), exec, Options{})

	_, err := o.Fetch(context.Background(), "park", "middle_earth")
	require.Error(t, err)

	var unknown *area.UnknownRegionError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, int32(0), exec.calls.Load(), "no network activity for a caller error")
}

func TestFetch_OneSubareaFails_PartialResult(t *testing.T) {
	exec := &fakeExecutor{
		responses: map[string][]byte{
			northernBoxes[0]: body(t, 100, 3),
			northernBoxes[2]: body(t, 300, 4),
			northernBoxes[3]: body(t, 400, 5),
		},
		failOn: map[string]error{
			northernBoxes[1]: &overpass.FetchFailedError{Attempts: 3, Err: fmt.Errorf("gateway timeout")},
		},
	}
	o := New(area.Builtin(), newStore(t), exec, Options{})

	result, err := o.Fetch(context.Background(), "park", "northern_europe")
	require.NoError(t, err, "a subarea failure is not fatal")

	assert.Len(t, result.Elements, 12, "union of the three surviving subareas")
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 2, result.Failures[0].Subarea)
	assert.Contains(t, result.Failures[0].Error, "gateway timeout")
	assert.True(t, result.Partial())
}

func TestFetch_CorruptSubareaResponseRecordedAsFailure(t *testing.T) {
	exec := &fakeExecutor{responses: map[string][]byte{
		northernBoxes[0]: []byte("<html>busy</html>"),
		northernBoxes[1]: body(t, 200, 2),
	}}
	o := New(area.Builtin(), newStore(t), exec, Options{})

	result, err := o.Fetch(context.Background(), "park", "northern_europe")
	require.NoError(t, err)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 1, result.Failures[0].Subarea)
	assert.Len(t, result.Elements, 2)
}

func TestFetch_MergeOrderDeterministicUnderConcurrency(t *testing.T) {
	exec := &fakeExecutor{
		responses: map[string][]byte{
			northernBoxes[0]: body(t, 100, 2),
			northernBoxes[1]: body(t, 200, 2),
			northernBoxes[2]: body(t, 300, 2),
			northernBoxes[3]: body(t, 400, 2),
		},
		delay: 2 * time.Millisecond,
	}
	o := New(area.Builtin(), newStore(t), exec, Options{Concurrency: 4})

	result, err := o.Fetch(context.Background(), "park", "northern_europe")
	require.NoError(t, err)

	ids := make([]int64, len(result.Elements))
	for i, e := range result.Elements {
		ids[i] = e.ID
	}
	assert.Equal(t, []int64{100, 101, 200, 201, 300, 301, 400, 401}, ids,
		"merge follows catalog order, not completion order")
}

func TestFetch_DedupeOverlappingSubareas(t *testing.T) {
	bounds, err := area.NewBoundingBox(0, 0, 10, 10)
	require.NoError(t, err)
	south, err := area.NewBoundingBox(0, 0, 6, 10)
	require.NoError(t, err)
	north, err := area.NewBoundingBox(4, 0, 10, 10)
	require.NoError(t, err)
	catalog, err := area.NewCatalog(area.Region{
		Name: "overlap", Bounds: bounds, Subareas: []area.BoundingBox{south, north},
	})
	require.NoError(t, err)

	shared := body(t, 500, 3) // both subareas return the same elements
	exec := &fakeExecutor{responses: map[string][]byte{
		"(0,0,6,10)":  shared,
		"(4,0,10,10)": shared,
	}}

	o := New(catalog, newStore(t), exec, Options{})
	result, err := o.Fetch(context.Background(), "park", "overlap")
	require.NoError(t, err)
	assert.Len(t, result.Elements, 3, "duplicates across overlapping subareas collapse")

	// With dedupe disabled the duplicates are kept.
	noDedupe := false
	o2 := New(catalog, newStore(t), exec, Options{Dedupe: &noDedupe})
	result2, err := o2.Fetch(context.Background(), "park", "overlap")
	require.NoError(t, err)
	assert.Len(t, result2.Elements, 6)
}

func TestFetch_CancellationWritesNoCacheEntry(t *testing.T) {
	exec := &fakeExecutor{delay: 50 * time.Millisecond, blockCtx: true}
	store := newStore(t)
	o := New(area.Builtin(), store, exec, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := o.Fetch(ctx, "park", "northern_europe")
	require.Error(t, err)

	_, ok := store.Get("park", "northern_europe")
	assert.False(t, ok, "a cancelled fetch must not write a cache entry")
}

func TestFetch_UnknownTypeFallsThroughToRawTag(t *testing.T) {
	var gotQuery string
	exec := &queryCapture{inner: &fakeExecutor{}, captured: &gotQuery}
	o := New(area.Builtin(), newStore(t), exec, Options{})

	_, err := o.Fetch(context.Background(), "fountain", "central_europe")
	require.NoError(t, err)
	assert.Contains(t, gotQuery, `node["fountain"="fountain"]`)
}

type queryCapture struct {
	inner    Executor
	captured *string
}

func (q *queryCapture) Execute(ctx context.Context, query string) ([]byte, error) {
	*q.captured = query
	return q.inner.Execute(ctx, query)
}
