package graph

import (
	"fmt"
	"io"
	"strings"

	"github.com/vyuha/portfolioviz/internal/portfolio"
)

// WriteDOT renders the model as an undirected Graphviz graph. Business
// addresses are drawn as filled boxes, names as filled ellipses, and edges
// carry their registration count.
func WriteDOT(w io.Writer, m *Model) error {
	var b strings.Builder
	fmt.Fprintf(&b, "// %s\n\ngraph {\n", commentLine(m.Title))
	for _, n := range m.Nodes {
		switch n.Kind {
		case portfolio.KindBusinessAddress:
			fmt.Fprintf(&b, "    %d [ label=%s, color=lightblue2, style=filled, shape=box ]\n", n.ID, dotQuote(n.Label))
		default:
			fmt.Fprintf(&b, "    %d [ label=%s, color=whitesmoke, style=filled ]\n", n.ID, dotQuote(n.Label))
		}
	}
	for _, e := range m.Edges {
		attrs := fmt.Sprintf("label=%s, color=%s", dotQuote(registrationCount(e.Label)), e.Color)
		if e.Dashed {
			attrs += ", style=dashed"
		}
		fmt.Fprintf(&b, "    %d -- %d [ %s ]\n", e.SourceID, e.TargetID, attrs)
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// registrationCount extracts the leading count from an edge label.
func registrationCount(label string) string {
	if i := strings.IndexByte(label, ' '); i > 0 {
		return label[:i]
	}
	return label
}

// commentLine folds s onto one line so it stays inside a // comment.
func commentLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func dotQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
