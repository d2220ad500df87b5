package plan

import (
	"fmt"
	"strings"

	"github.com/ventlogic/ventlogic-core/internal/catalog"
)

// Plan is the deterministic partition of a catalog into reconciliation
// buckets. Create and Remove are disjoint by construction: every
// resource lands in exactly one bucket based on its tagged state.
type Plan struct {
	Create  []catalog.Resource `json:"create"`
	Remove  []catalog.Resource `json:"remove"`
	Keep    []catalog.Resource `json:"keep"`
	Inert   []catalog.Resource `json:"inert"`
	Unknown []catalog.Resource `json:"unknown"`
}

// Build partitions a catalog. Pure and side-effect-free: same catalog
// in, same plan out. Resources arrive sorted by ID from the catalog and
// keep that order within each bucket.
func Build(cat *catalog.Catalog) *Plan {
	p := &Plan{}
	for _, res := range cat.Resources() {
		switch res.State {
		case catalog.StateCreate:
			p.Create = append(p.Create, res)
		case catalog.StateRemove:
			p.Remove = append(p.Remove, res)
		case catalog.StateKeep:
			p.Keep = append(p.Keep, res)
		case catalog.StateInert:
			p.Inert = append(p.Inert, res)
		default:
			p.Unknown = append(p.Unknown, res)
		}
	}
	return p
}

// Empty reports whether the plan has no creates and no removes.
// An empty plan on a repeat cycle is the idempotence signal.
func (p *Plan) Empty() bool {
	return len(p.Create) == 0 && len(p.Remove) == 0
}

// Summary is the structured contract consumed by the configuration
// wizard's confirmation step. The engine supplies only this; it renders
// no UI.
type Summary struct {
	Total        int      `json:"total"`
	ToCreate     []string `json:"to_create"`
	ToRemove     []string `json:"to_remove"`
	KeepCount    int      `json:"keep_count"`
	InertCount   int      `json:"inert_count"`
	UnknownCount int      `json:"unknown_count"`
}

// Summary returns the counts and ID lists for the plan.
func (p *Plan) Summary() Summary {
	return Summary{
		Total:        len(p.Create) + len(p.Remove) + len(p.Keep) + len(p.Inert) + len(p.Unknown),
		ToCreate:     resourceIDs(p.Create),
		ToRemove:     resourceIDs(p.Remove),
		KeepCount:    len(p.Keep),
		InertCount:   len(p.Inert),
		UnknownCount: len(p.Unknown),
	}
}

// Render formats the summary for display with each ID list truncated to
// limit entries ("first N, and M more"). A limit <= 0 shows full lists.
func (s Summary) Render(limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d resources: %d to create, %d to remove, %d kept, %d inert, %d unknown\n",
		s.Total, len(s.ToCreate), len(s.ToRemove), s.KeepCount, s.InertCount, s.UnknownCount)
	if len(s.ToCreate) > 0 {
		fmt.Fprintf(&b, "create: %s\n", truncateList(s.ToCreate, limit))
	}
	if len(s.ToRemove) > 0 {
		fmt.Fprintf(&b, "remove: %s\n", truncateList(s.ToRemove, limit))
	}
	return b.String()
}

func truncateList(ids []string, limit int) string {
	if limit <= 0 || len(ids) <= limit {
		return strings.Join(ids, ", ")
	}
	return fmt.Sprintf("%s, and %d more", strings.Join(ids[:limit], ", "), len(ids)-limit)
}

func resourceIDs(resources []catalog.Resource) []string {
	ids := make([]string, 0, len(resources))
	for _, r := range resources {
		ids = append(ids, r.ID)
	}
	return ids
}
