package graph

import (
	"github.com/vyuha/portfolioviz/internal/portfolio"
)

// Builder turns portfolios into graph models.
type Builder struct {
	// Link builds the external URL for an edge's BBL. Nil leaves URLs empty.
	Link func(bbl string) string
}

// Build is Builder{}.Build.
func Build(p *portfolio.Portfolio) (*Model, error) {
	return Builder{}.Build(p)
}

// Build validates p and derives the graph model. It is deterministic and
// has no side effects. A portfolio with an edge pointing at an unknown node
// is rejected with a portfolio.MalformedError before anything is built.
func (b Builder) Build(p *portfolio.Portfolio) (*Model, error) {
	if err := portfolio.Validate(p); err != nil {
		return nil, err
	}

	nodes := make([]VisualNode, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		nodes = append(nodes, newVisualNode(n))
	}

	edges := make([]VisualEdge, 0, len(p.Edges))
	for _, e := range p.Edges {
		edges = append(edges, newVisualEdge(e, b.Link))
	}

	return newModel(p.Title, nodes, edges), nil
}
