package graph

import (
	"fmt"
	"strings"

	"github.com/vyuha/portfolioviz/internal/portfolio"
)

// ---------------------------------------------------------------------------
// Edge tiers
// ---------------------------------------------------------------------------

// Tier buckets edges by registration contact count.
type Tier int

const (
	TierSingle Tier = iota + 1 // exactly one registration
	TierFew                    // 2..9 registrations
	TierMany                   // 10 or more registrations
)

// Edge tier colours.
const (
	TierSingleColor Color = "lightgray"
	TierFewColor    Color = "darkgray"
	TierManyColor   Color = "black"
)

// manyThreshold is the first count that lands in TierMany.
const manyThreshold = 10

// BridgeDash is the dash pattern for dashed edges.
var BridgeDash = []int{2, 2}

// TierFor classifies a registration contact count. Thresholds are
// half-open: 1 | (1,10) | [10,∞).
func TierFor(count int) Tier {
	switch {
	case count <= 1:
		return TierSingle
	case count < manyThreshold:
		return TierFew
	default:
		return TierMany
	}
}

// Color returns the tier's edge colour.
func (t Tier) Color() Color {
	switch t {
	case TierSingle:
		return TierSingleColor
	case TierFew:
		return TierFewColor
	default:
		return TierManyColor
	}
}

// ---------------------------------------------------------------------------
// VisualEdge
// ---------------------------------------------------------------------------

// VisualEdge is the render-ready form of a portfolio edge.
type VisualEdge struct {
	SourceID int    `json:"source"`
	TargetID int    `json:"target"`
	Label    string `json:"name"`
	Color    Color  `json:"color"`
	Dashed   bool   `json:"-"`
	Tier     Tier   `json:"-"`
	BBL      string `json:"-"`
	URL      string `json:"url,omitempty"`
}

// IsDashed reports whether an edge is drawn dashed: only single-registration
// local bridges are. A bridge carrying many registrations stays solid.
func IsDashed(e portfolio.Edge) bool {
	return e.IsLocalBridge && e.RegistrationContactCount == 1
}

// EdgeLabel renders the human-readable edge label, e.g.
// "3 registrations (BBL 3012340056) [local bridge]".
func EdgeLabel(e portfolio.Edge) string {
	var b strings.Builder
	if e.RegistrationContactCount == 1 {
		b.WriteString("1 registration")
	} else {
		fmt.Fprintf(&b, "%d registrations", e.RegistrationContactCount)
	}
	if e.BBL != "" {
		fmt.Fprintf(&b, " (BBL %s)", e.BBL)
	}
	if e.IsLocalBridge {
		b.WriteString(" [local bridge]")
	}
	return b.String()
}

// LineDash returns the render-engine dash pattern, or nil for solid edges.
func (e VisualEdge) LineDash() []int {
	if e.Dashed {
		return BridgeDash
	}
	return nil
}

// newVisualEdge derives the visual attributes of e. link builds the
// external URL for the edge's BBL and may be nil.
func newVisualEdge(e portfolio.Edge, link func(string) string) VisualEdge {
	tier := TierFor(e.RegistrationContactCount)
	ve := VisualEdge{
		SourceID: e.From,
		TargetID: e.To,
		Label:    EdgeLabel(e),
		Color:    tier.Color(),
		Dashed:   IsDashed(e),
		Tier:     tier,
		BBL:      e.BBL,
	}
	if link != nil {
		ve.URL = link(e.BBL)
	}
	return ve
}
