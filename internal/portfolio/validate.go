package portfolio

// Validate checks referential integrity: node ids are unique and every edge
// endpoint names an existing node. The first fault found is returned as a
// *MalformedError.
func Validate(p *Portfolio) error {
	ids := make(map[int]struct{}, len(p.Nodes))
	for _, n := range p.Nodes {
		if _, dup := ids[n.ID]; dup {
			return &MalformedError{EdgeIndex: -1, NodeID: n.ID, Reason: "appears more than once"}
		}
		ids[n.ID] = struct{}{}
	}
	for i, e := range p.Edges {
		if _, ok := ids[e.From]; !ok {
			return &MalformedError{EdgeIndex: i, NodeID: e.From, Reason: "references unknown node"}
		}
		if _, ok := ids[e.To]; !ok {
			return &MalformedError{EdgeIndex: i, NodeID: e.To, Reason: "references unknown node"}
		}
	}
	return nil
}
