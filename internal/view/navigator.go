package view

import (
	"time"

	"github.com/vyuha/portfolioviz/internal/layout"
)

// ---------------------------------------------------------------------------
// Render-engine capabilities
// ---------------------------------------------------------------------------

// Geometry exposes the render engine's current node coordinates.
type Geometry interface {
	Position(id int) (layout.Point, bool)
	BoundingBox(keep func(id int) bool) (layout.Box, bool)
}

// Camera accepts camera commands. A command issued while another is
// animating supersedes it.
type Camera interface {
	// ZoomToFit fits every node accepted by keep (all nodes when keep is nil).
	ZoomToFit(duration time.Duration, paddingPx int, keep func(id int) bool)
	CenterAt(p layout.Point, duration time.Duration)
}

// ---------------------------------------------------------------------------
// Actions
// ---------------------------------------------------------------------------

// ActionKind enumerates navigator decisions.
type ActionKind string

const (
	ActionNone      ActionKind = "none"
	ActionResetFit  ActionKind = "reset_fit_all"
	ActionCenter    ActionKind = "center_on_point"
	ActionFitBounds ActionKind = "fit_to_bounds"
)

// Fixed camera parameters.
const (
	DefaultDuration = 1000 * time.Millisecond
	DefaultPadding  = 50
)

// Action is a planned camera move. It is a plain value so identical inputs
// produce comparable, identical actions.
type Action struct {
	Kind       ActionKind    `json:"kind"`
	NodeIDs    []int         `json:"node_ids,omitempty"`
	Point      *layout.Point `json:"point,omitempty"`
	Bounds     *layout.Box   `json:"bounds,omitempty"`
	DurationMs int64         `json:"duration_ms,omitempty"`
	PaddingPx  int           `json:"padding_px,omitempty"`
}

// ---------------------------------------------------------------------------
// Navigator
// ---------------------------------------------------------------------------

// Navigator turns selections into camera actions.
type Navigator struct {
	Duration time.Duration
	Padding  int
}

// NewNavigator returns a navigator using the fixed default duration and
// padding.
func NewNavigator() *Navigator {
	return &Navigator{Duration: DefaultDuration, Padding: DefaultPadding}
}

// Reset plans the fit-everything view.
func (n *Navigator) Reset() Action {
	return Action{
		Kind:       ActionResetFit,
		DurationMs: n.Duration.Milliseconds(),
		PaddingPx:  n.Padding,
	}
}

// Plan chooses the camera action for a non-reset search: nothing for an
// empty selection, center-on-point for one node, fit-to-bounds over exactly
// the selected nodes for more. ids must be in a stable order.
func (n *Navigator) Plan(ids []int, geo Geometry) Action {
	switch len(ids) {
	case 0:
		return Action{Kind: ActionNone}
	case 1:
		p, ok := geo.Position(ids[0])
		if !ok {
			return Action{Kind: ActionNone}
		}
		return Action{
			Kind:       ActionCenter,
			NodeIDs:    []int{ids[0]},
			Point:      &p,
			DurationMs: n.Duration.Milliseconds(),
		}
	default:
		set := toSet(ids)
		box, ok := geo.BoundingBox(func(id int) bool {
			_, in := set[id]
			return in
		})
		if !ok {
			return Action{Kind: ActionNone}
		}
		return Action{
			Kind:       ActionFitBounds,
			NodeIDs:    append([]int(nil), ids...),
			Bounds:     &box,
			DurationMs: n.Duration.Milliseconds(),
			PaddingPx:  n.Padding,
		}
	}
}

// Apply issues a planned action on cam. ActionNone leaves the camera alone.
func (n *Navigator) Apply(a Action, cam Camera) {
	d := time.Duration(a.DurationMs) * time.Millisecond
	switch a.Kind {
	case ActionResetFit:
		cam.ZoomToFit(d, a.PaddingPx, nil)
	case ActionCenter:
		if a.Point != nil {
			cam.CenterAt(*a.Point, d)
		}
	case ActionFitBounds:
		set := toSet(a.NodeIDs)
		cam.ZoomToFit(d, a.PaddingPx, func(id int) bool {
			_, in := set[id]
			return in
		})
	}
}

func toSet(ids []int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
