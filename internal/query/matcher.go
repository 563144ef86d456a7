package query

import (
	"strings"

	"github.com/vyuha/portfolioviz/internal/graph"
)

// ---------------------------------------------------------------------------
// Result
// ---------------------------------------------------------------------------

// Result is the outcome of matching a query against node labels.
//
// Reset is set for a blank query and means "clear and show everything";
// it is distinct from a non-blank query that matched nothing.
type Result struct {
	Query string `json:"query"`
	IDs   []int  `json:"ids"`
	Reset bool   `json:"reset"`
}

// Empty reports whether nothing matched.
func (r Result) Empty() bool { return len(r.IDs) == 0 }

// ---------------------------------------------------------------------------
// Match
// ---------------------------------------------------------------------------

// Normalize prepares a query or label for comparison.
func Normalize(s string) string {
	return strings.ToUpper(s)
}

// IsBlank reports whether q is empty or whitespace only.
func IsBlank(q string) bool {
	return strings.TrimSpace(q) == ""
}

// Match returns the ids of nodes whose label contains q, ignoring case.
// Surrounding whitespace in q is ignored. Membership is boolean: ids keep
// the order of nodes and are not ranked. Match is total over any input.
func Match(q string, nodes []graph.VisualNode) Result {
	q = strings.TrimSpace(q)
	if q == "" {
		return Result{Reset: true, IDs: []int{}}
	}

	needle := Normalize(q)
	ids := make([]int, 0)
	for _, n := range nodes {
		if strings.Contains(Normalize(n.Label), needle) {
			ids = append(ids, n.ID)
		}
	}
	return Result{Query: q, IDs: ids}
}
