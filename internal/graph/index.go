package graph

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Model
// ---------------------------------------------------------------------------

// Model is the immutable graph model handed to the render engine and to the
// query matcher. It is safe for concurrent readers.
type Model struct {
	Title string
	Nodes []VisualNode
	Edges []VisualEdge

	byID      map[int]int   // node id → index into Nodes
	neighbors map[int][]int // node id → adjacent node ids
}

// newModel indexes nodes and edges. Callers guarantee referential integrity.
func newModel(title string, nodes []VisualNode, edges []VisualEdge) *Model {
	m := &Model{
		Title:     title,
		Nodes:     nodes,
		Edges:     edges,
		byID:      make(map[int]int, len(nodes)),
		neighbors: make(map[int][]int, len(nodes)),
	}
	for i, n := range nodes {
		m.byID[n.ID] = i
	}
	for _, e := range edges {
		m.neighbors[e.SourceID] = append(m.neighbors[e.SourceID], e.TargetID)
		if e.SourceID != e.TargetID {
			m.neighbors[e.TargetID] = append(m.neighbors[e.TargetID], e.SourceID)
		}
	}
	return m
}

// ============================= LOOKUPS ====================================

// Node returns the node with the given id.
func (m *Model) Node(id int) (VisualNode, bool) {
	i, ok := m.byID[id]
	if !ok {
		return VisualNode{}, false
	}
	return m.Nodes[i], true
}

// Has reports whether id is a node of the model.
func (m *Model) Has(id int) bool {
	_, ok := m.byID[id]
	return ok
}

// NodeIDs returns every node id in model order.
func (m *Model) NodeIDs() []int {
	ids := make([]int, len(m.Nodes))
	for i, n := range m.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Neighbors returns the ids adjacent to id.
func (m *Model) Neighbors(id int) []int {
	return m.neighbors[id]
}

// NodeCount returns the number of nodes.
func (m *Model) NodeCount() int { return len(m.Nodes) }

// EdgeCount returns the number of edges.
func (m *Model) EdgeCount() int { return len(m.Edges) }

// StatusLine is the load summary shown on the portfolio page.
func (m *Model) StatusLine() string {
	return fmt.Sprintf("%d nodes, %d edges", len(m.Nodes), len(m.Edges))
}

// ============================ RENDER DATA =================================

// RenderNode is the node shape consumed by the browser render engine.
type RenderNode struct {
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Color Color    `json:"color"`
	Val   int      `json:"val"`
	FX    *float64 `json:"fx,omitempty"`
	FY    *float64 `json:"fy,omitempty"`
}

// RenderLink is the link shape consumed by the browser render engine.
type RenderLink struct {
	Source   int    `json:"source"`
	Target   int    `json:"target"`
	Name     string `json:"name"`
	Color    Color  `json:"color"`
	LineDash []int  `json:"lineDash,omitempty"`
	URL      string `json:"url,omitempty"`
}

// RenderData is the full render-engine payload.
type RenderData struct {
	Title string       `json:"title"`
	Nodes []RenderNode `json:"nodes"`
	Links []RenderLink `json:"links"`
}

// RenderData converts the model into the render-engine payload. When pos is
// non-nil, nodes are pinned at the positions it returns.
func (m *Model) RenderData(pos func(id int) (x, y float64, ok bool)) RenderData {
	rd := RenderData{
		Title: m.Title,
		Nodes: make([]RenderNode, 0, len(m.Nodes)),
		Links: make([]RenderLink, 0, len(m.Edges)),
	}
	for _, n := range m.Nodes {
		rn := RenderNode{ID: n.ID, Name: n.Label, Color: n.BaseColor, Val: n.Weight}
		if pos != nil {
			if x, y, ok := pos(n.ID); ok {
				rn.FX, rn.FY = &x, &y
			}
		}
		rd.Nodes = append(rd.Nodes, rn)
	}
	for _, e := range m.Edges {
		rd.Links = append(rd.Links, RenderLink{
			Source:   e.SourceID,
			Target:   e.TargetID,
			Name:     e.Label,
			Color:    e.Color,
			LineDash: e.LineDash(),
			URL:      e.URL,
		})
	}
	return rd
}
