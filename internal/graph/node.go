package graph

import (
	"github.com/vyuha/portfolioviz/internal/portfolio"
)

// ---------------------------------------------------------------------------
// Node colours
// ---------------------------------------------------------------------------

// Color is a CSS colour understood by the browser render engine.
type Color string

const (
	// NameColor is the base colour of Name nodes.
	NameColor Color = "pink"
	// BusinessAddressColor is the base colour of BusinessAddress nodes.
	BusinessAddressColor Color = "gray"
	// HighlightColor overrides the base colour of selected nodes.
	HighlightColor Color = "red"
)

// DefaultNodeWeight is the relative node size handed to the render engine.
const DefaultNodeWeight = 10

// ---------------------------------------------------------------------------
// VisualNode
// ---------------------------------------------------------------------------

// VisualNode is the render-ready form of a portfolio node. It is built once
// and never mutated; selection colouring is a lookup at render time.
type VisualNode struct {
	ID        int            `json:"id"`
	Label     string         `json:"name"`
	BaseColor Color          `json:"color"`
	Weight    int            `json:"val"`
	Kind      portfolio.Kind `json:"-"`
}

// NodeColor returns the base colour for a node variant.
func NodeColor(v portfolio.Variant) Color {
	if v.Kind == portfolio.KindName {
		return NameColor
	}
	return BusinessAddressColor
}

// newVisualNode derives the visual attributes of n.
func newVisualNode(n portfolio.Node) VisualNode {
	return VisualNode{
		ID:        n.ID,
		Label:     n.Variant.Label,
		BaseColor: NodeColor(n.Variant),
		Weight:    DefaultNodeWeight,
		Kind:      n.Variant.Kind,
	}
}
