package portfolio

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Node variants
// ---------------------------------------------------------------------------

// Kind identifies which of the two node variants a PortfolioNode carries.
type Kind int

const (
	// KindName is a person or entity named in an HPD registration contact.
	KindName Kind = iota + 1
	// KindBusinessAddress is a business address named in a registration contact.
	KindBusinessAddress
)

// String returns the document key used for the variant.
func (k Kind) String() string {
	switch k {
	case KindName:
		return "Name"
	case KindBusinessAddress:
		return "BizAddr"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Variant is the tagged union held by every node: exactly one of
// Name(label) or BusinessAddress(label). It is built once while decoding.
type Variant struct {
	Kind  Kind
	Label string
}

// Name returns a Name variant.
func Name(label string) Variant {
	return Variant{Kind: KindName, Label: label}
}

// BusinessAddress returns a BusinessAddress variant.
func BusinessAddress(label string) Variant {
	return Variant{Kind: KindBusinessAddress, Label: label}
}

// IsName reports whether the variant is a Name.
func (v Variant) IsName() bool { return v.Kind == KindName }

// IsBusinessAddress reports whether the variant is a BusinessAddress.
func (v Variant) IsBusinessAddress() bool { return v.Kind == KindBusinessAddress }

// ---------------------------------------------------------------------------
// Portfolio
// ---------------------------------------------------------------------------

// Node is a single vertex of a portfolio.
type Node struct {
	ID      int
	Variant Variant
}

// Edge links a name to a business address through one or more HPD
// registration contacts. IsLocalBridge and BBL are precomputed upstream.
type Edge struct {
	From                     int
	To                       int
	RegistrationContactCount int
	IsLocalBridge            bool
	BBL                      string
}

// Portfolio is a connected set of names and business addresses.
// It is immutable once decoded.
type Portfolio struct {
	Title string
	Nodes []Node
	Edges []Edge
}

// NodeByID returns the node with the given id.
func (p *Portfolio) NodeByID(id int) (Node, bool) {
	for _, n := range p.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// StatusLine is the count summary shown once a portfolio has loaded.
func (p *Portfolio) StatusLine() string {
	return fmt.Sprintf("%d nodes, %d edges", len(p.Nodes), len(p.Edges))
}
