package overpass

import (
	"fmt"
	"strings"
	"time"

	"github.com/geoatlas/poifetch/internal/area"
)

// DefaultQueryTimeout is the server-side execution budget requested per
// subarea query. Subarea sizing, not pagination, keeps each response within
// Overpass limits, so the budget is generous.
const DefaultQueryTimeout = 300 * time.Second

// BuildQuery composes an Overpass QL request returning every node, way and
// relation tagged key=value inside the box, as JSON. Deterministic; boxes
// are validated at construction so there are no failure modes here.
func BuildQuery(key, value string, box area.BoundingBox, timeout time.Duration) string {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	bbox := fmt.Sprintf("(%g,%g,%g,%g)", box.MinLat, box.MinLon, box.MaxLat, box.MaxLon)
	filter := fmt.Sprintf("[%q=%q]", key, value)

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n", int(timeout.Seconds()))
	b.WriteString("(\n")
	for _, kind := range []string{"node", "way", "relation"} {
		fmt.Fprintf(&b, "  %s%s%s;\n", kind, filter, bbox)
	}
	b.WriteString(");\n")
	b.WriteString("out body;\n>;\nout skel qt;\n")
	return b.String()
}
