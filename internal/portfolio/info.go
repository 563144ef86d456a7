package portfolio

import (
	"fmt"
	"sort"
)

// Ranked pairs a node label with the number of HPD registration contacts
// on the node's incident edges.
type Ranked struct {
	ID            int    `json:"id"`
	Label         string `json:"label"`
	Registrations int    `json:"registrations"`
}

// Info summarises a portfolio for operators.
type Info struct {
	Title                string   `json:"title"`
	NodeCount            int      `json:"node_count"`
	EdgeCount            int      `json:"edge_count"`
	NameCount            int      `json:"name_count"`
	BusinessAddressCount int      `json:"business_address_count"`
	BuildingCount        int      `json:"building_count"`
	LocalBridgeCount     int      `json:"local_bridge_count"`
	TopNames             []Ranked `json:"top_names"`
	TopBusinessAddresses []Ranked `json:"top_business_addresses"`
}

// Summarize computes Info, keeping the top entries of each ranking
// (top <= 0 keeps everything).
func Summarize(p *Portfolio, top int) Info {
	info := Info{
		Title:            p.Title,
		NodeCount:        len(p.Nodes),
		EdgeCount:        len(p.Edges),
		BuildingCount:    BuildingCount(p),
		LocalBridgeCount: LocalBridgeCount(p),
	}
	for _, n := range p.Nodes {
		switch n.Variant.Kind {
		case KindName:
			info.NameCount++
		case KindBusinessAddress:
			info.BusinessAddressCount++
		}
	}
	info.TopNames = truncate(Rank(p, KindName), top)
	info.TopBusinessAddresses = truncate(Rank(p, KindBusinessAddress), top)
	return info
}

// Rank orders the nodes of the given kind by incident registration
// contacts, most first. Ties are broken by label.
func Rank(p *Portfolio, kind Kind) []Ranked {
	totals := registrationTotals(p)
	out := make([]Ranked, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		if n.Variant.Kind != kind {
			continue
		}
		out = append(out, Ranked{ID: n.ID, Label: n.Variant.Label, Registrations: totals[n.ID]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Registrations != out[j].Registrations {
			return out[i].Registrations > out[j].Registrations
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// BuildingCount is the number of distinct BBLs referenced by edges.
func BuildingCount(p *Portfolio) int {
	seen := make(map[string]struct{})
	for _, e := range p.Edges {
		if e.BBL != "" {
			seen[e.BBL] = struct{}{}
		}
	}
	return len(seen)
}

// LocalBridgeCount counts the edges flagged as local bridges.
func LocalBridgeCount(p *Portfolio) int {
	n := 0
	for _, e := range p.Edges {
		if e.IsLocalBridge {
			n++
		}
	}
	return n
}

// SuggestedTitle names a portfolio after its most-registered name, the way
// generated documents are titled. "???" stands in when there are no names.
func SuggestedTitle(p *Portfolio) string {
	names := Rank(p, KindName)
	if len(names) == 0 {
		return "???'s portfolio"
	}
	return fmt.Sprintf("%s's portfolio", names[0].Label)
}

func registrationTotals(p *Portfolio) map[int]int {
	totals := make(map[int]int, len(p.Nodes))
	for _, e := range p.Edges {
		totals[e.From] += e.RegistrationContactCount
		if e.To != e.From {
			totals[e.To] += e.RegistrationContactCount
		}
	}
	return totals
}

func truncate(r []Ranked, top int) []Ranked {
	if top > 0 && len(r) > top {
		return r[:top]
	}
	return r
}
