package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/vyuha/portfolioviz/internal/graph"
	"github.com/vyuha/portfolioviz/internal/layout"
	"github.com/vyuha/portfolioviz/internal/query"
	"github.com/vyuha/portfolioviz/internal/view"
)

// ---------------------------------------------------------------------------
// States and outcomes
// ---------------------------------------------------------------------------

// State is the selection state of a session.
type State string

const (
	StateIdle        State = "idle"
	StateHighlighted State = "highlighted"
)

// OutcomeKind classifies a search submission.
type OutcomeKind string

const (
	OutcomeReset    OutcomeKind = "reset"
	OutcomeNoMatch  OutcomeKind = "no_match"
	OutcomeSingle   OutcomeKind = "single"
	OutcomeMultiple OutcomeKind = "multiple"
)

// Outcome describes what one search submission did.
type Outcome struct {
	Query    string      `json:"query"`
	Kind     OutcomeKind `json:"kind"`
	State    State       `json:"state"`
	Selected []int       `json:"selected"`
	Action   view.Action `json:"action"`
	Message  string      `json:"message"`
}

// Message renders the user-facing message for a match result. A reset
// restores statusLine.
func Message(r query.Result, statusLine string) string {
	switch {
	case r.Reset:
		return statusLine
	case len(r.IDs) == 0:
		return fmt.Sprintf("No nodes match %q.", r.Query)
	case len(r.IDs) == 1:
		return fmt.Sprintf("Found 1 node matching %q.", r.Query)
	default:
		return fmt.Sprintf("Found %d nodes matching %q.", len(r.IDs), r.Query)
	}
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

// Session is one interactive search context over a portfolio. Submissions
// are serialised: each runs to completion before the next starts.
type Session struct {
	ID   string
	Slug string

	model *graph.Model
	geo   view.Geometry
	cam   view.Camera
	nav   *view.Navigator

	mu         sync.Mutex
	sel        Selection
	lastActive time.Time
	streams    int // open event streams
	now        func() time.Time
}

// New creates an idle session. cam may be nil, in which case actions are
// planned but not issued.
func New(id, slug string, model *graph.Model, geo view.Geometry, cam view.Camera) *Session {
	if geo == nil {
		geo = layout.FromPositions(nil)
	}
	s := &Session{
		ID:    id,
		Slug:  slug,
		model: model,
		geo:   geo,
		cam:   cam,
		nav:   view.NewNavigator(),
		sel:   NewSelection(nil),
		now:   time.Now,
	}
	s.lastActive = s.now()
	return s
}

// Submit runs a search: match, replace the selection, plan the camera
// action and issue it.
func (s *Session) Submit(q string) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActive = s.now()

	res := query.Match(q, s.model.Nodes)
	s.sel = NewSelection(res.IDs)

	var (
		kind   OutcomeKind
		action view.Action
	)
	switch {
	case res.Reset:
		kind = OutcomeReset
		action = s.nav.Reset()
	case len(res.IDs) == 0:
		kind = OutcomeNoMatch
		action = view.Action{Kind: view.ActionNone}
	case len(res.IDs) == 1:
		kind = OutcomeSingle
		action = s.nav.Plan(res.IDs, s.geo)
	default:
		kind = OutcomeMultiple
		action = s.nav.Plan(res.IDs, s.geo)
	}

	if s.cam != nil {
		s.nav.Apply(action, s.cam)
	}

	return Outcome{
		Query:    res.Query,
		Kind:     kind,
		State:    s.stateLocked(),
		Selected: s.sel.IDs(),
		Action:   action,
		Message:  Message(res, s.model.StatusLine()),
	}
}

// State returns the current selection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	if s.sel.Empty() {
		return StateIdle
	}
	return StateHighlighted
}

// Selection returns the current selection.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// NodeColor is the render-time colour lookup: selected nodes are
// highlighted, all others keep their base colour.
func (s *Session) NodeColor(id int) graph.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodeColorLocked(id)
}

func (s *Session) nodeColorLocked(id int) graph.Color {
	if s.sel.Contains(id) {
		return graph.HighlightColor
	}
	if n, ok := s.model.Node(id); ok {
		return n.BaseColor
	}
	return ""
}

// NodeColors evaluates NodeColor for every node of the model.
func (s *Session) NodeColors() map[int]graph.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]graph.Color, len(s.model.Nodes))
	for _, n := range s.model.Nodes {
		out[n.ID] = s.nodeColorLocked(n.ID)
	}
	return out
}

// LinkDash is the render-time dash lookup for an edge.
func LinkDash(e graph.VisualEdge) []int {
	return e.LineDash()
}

// LastActive returns the time of the last submission, stream change or
// creation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Attach records an open event stream. A session with an open stream is
// never idle. The returned func detaches it and counts as activity.
func (s *Session) Attach() (detach func()) {
	s.mu.Lock()
	s.streams++
	s.lastActive = s.now()
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.streams--
			s.lastActive = s.now()
			s.mu.Unlock()
		})
	}
}

// Streaming reports whether any event stream is attached.
func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streams > 0
}

// Model returns the graph model the session searches.
func (s *Session) Model() *graph.Model { return s.model }

// SearchForm is the query input a session listens to.
type SearchForm interface {
	OnSubmit(fn func(q string))
}

// Bind registers the session as form's submit handler. report, when set,
// receives every outcome.
func (s *Session) Bind(form SearchForm, report func(Outcome)) {
	form.OnSubmit(func(q string) {
		out := s.Submit(q)
		if report != nil {
			report(out)
		}
	})
}
