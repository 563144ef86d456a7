package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyuha/portfolioviz/internal/graph"
	"github.com/vyuha/portfolioviz/internal/layout"
	"github.com/vyuha/portfolioviz/internal/portfolio"
	"github.com/vyuha/portfolioviz/internal/view"
)

type recordingCamera struct {
	mu      sync.Mutex
	zooms   int
	fitAll  int
	centers []layout.Point
}

func (c *recordingCamera) ZoomToFit(_ time.Duration, _ int, keep func(int) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zooms++
	if keep == nil {
		c.fitAll++
	}
}

func (c *recordingCamera) CenterAt(p layout.Point, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.centers = append(c.centers, p)
}

func scenarioA(t *testing.T) *graph.Model {
	t.Helper()
	m, err := graph.Build(&portfolio.Portfolio{
		Title: "Jane Doe's portfolio",
		Nodes: []portfolio.Node{
			{ID: 1, Variant: portfolio.Name("Jane Doe")},
			{ID: 2, Variant: portfolio.BusinessAddress("1 Main St")},
		},
		Edges: []portfolio.Edge{
			{From: 1, To: 2, RegistrationContactCount: 1, IsLocalBridge: true},
		},
	})
	require.NoError(t, err)
	return m
}

func streets(t *testing.T) *graph.Model {
	t.Helper()
	m, err := graph.Build(&portfolio.Portfolio{
		Title: "streets",
		Nodes: []portfolio.Node{
			{ID: 1, Variant: portfolio.BusinessAddress("1 Main St")},
			{ID: 2, Variant: portfolio.Name("Ann Smith")},
			{ID: 3, Variant: portfolio.BusinessAddress("9 Elm St")},
			{ID: 4, Variant: portfolio.Name("Bob Jones")},
		},
		Edges: []portfolio.Edge{
			{From: 2, To: 1, RegistrationContactCount: 3},
			{From: 2, To: 3, RegistrationContactCount: 1},
		},
	})
	require.NoError(t, err)
	return m
}

func geo() *layout.Layout {
	return layout.FromPositions(map[int]layout.Point{
		1: {X: 100, Y: 200},
		2: {X: 300, Y: 50},
		3: {X: 500, Y: 400},
		4: {X: 700, Y: 100},
	})
}

func TestSubmit_SingleMatchCenters(t *testing.T) {
	cam := &recordingCamera{}
	s := New("s1", "jane", scenarioA(t), geo(), cam)

	out := s.Submit("jane")
	assert.Equal(t, OutcomeSingle, out.Kind)
	assert.Equal(t, StateHighlighted, out.State)
	assert.Equal(t, []int{1}, out.Selected)
	assert.Equal(t, view.ActionCenter, out.Action.Kind)
	assert.Equal(t, `Found 1 node matching "jane".`, out.Message)
	assert.Equal(t, []layout.Point{{X: 100, Y: 200}}, cam.centers)
	assert.Zero(t, cam.zooms)
}

func TestSubmit_NoMatchClearsWithoutMoving(t *testing.T) {
	cam := &recordingCamera{}
	s := New("s1", "jane", scenarioA(t), geo(), cam)

	s.Submit("jane")
	out := s.Submit("zzz")
	assert.Equal(t, OutcomeNoMatch, out.Kind)
	assert.Equal(t, StateIdle, out.State)
	assert.Empty(t, out.Selected)
	assert.Equal(t, view.ActionNone, out.Action.Kind)
	assert.Equal(t, `No nodes match "zzz".`, out.Message)
	assert.Len(t, cam.centers, 1, "only the earlier single match moved the camera")
	assert.Zero(t, cam.zooms)
}

func TestSubmit_ManyMatchesFitBounds(t *testing.T) {
	cam := &recordingCamera{}
	s := New("s1", "streets", streets(t), geo(), cam)

	// "Ann Smith" has no "ST" run, so only the two addresses match.
	out := s.Submit("st")
	assert.Equal(t, OutcomeMultiple, out.Kind)
	assert.Equal(t, []int{1, 3}, out.Selected)
	assert.Equal(t, `Found 2 nodes matching "st".`, out.Message)
	assert.Equal(t, view.ActionFitBounds, out.Action.Kind)
	assert.Equal(t, []int{1, 3}, out.Action.NodeIDs)
	assert.Equal(t, 1, cam.zooms)
	assert.Zero(t, cam.fitAll)
}

func TestSubmit_ThreeMatchesFitExactlyThose(t *testing.T) {
	m, err := graph.Build(&portfolio.Portfolio{
		Nodes: []portfolio.Node{
			{ID: 1, Variant: portfolio.BusinessAddress("1 Main St")},
			{ID: 2, Variant: portfolio.BusinessAddress("2 Oak St")},
			{ID: 3, Variant: portfolio.BusinessAddress("9 Elm St")},
			{ID: 4, Variant: portfolio.Name("Bob Jones")},
		},
	})
	require.NoError(t, err)

	s := New("s1", "x", m, geo(), nil)
	out := s.Submit("st")
	assert.Equal(t, view.ActionFitBounds, out.Action.Kind)
	assert.Equal(t, []int{1, 2, 3}, out.Action.NodeIDs)
	require.NotNil(t, out.Action.Bounds)
	assert.Equal(t, layout.Box{X: [2]float64{100, 500}, Y: [2]float64{50, 400}}, *out.Action.Bounds)
	assert.Equal(t, `Found 3 nodes matching "st".`, out.Message)
}

func TestSubmit_BlankResetsToStatusLine(t *testing.T) {
	cam := &recordingCamera{}
	m := scenarioA(t)
	s := New("s1", "jane", m, geo(), cam)

	s.Submit("doe")
	out := s.Submit("   ")
	assert.Equal(t, OutcomeReset, out.Kind)
	assert.Equal(t, StateIdle, out.State)
	assert.Empty(t, out.Selected)
	assert.Equal(t, view.ActionResetFit, out.Action.Kind)
	assert.Equal(t, m.StatusLine(), out.Message)
	assert.Equal(t, 1, cam.fitAll)
}

func TestSubmit_Idempotent(t *testing.T) {
	s := New("s1", "streets", streets(t), geo(), nil)
	first := s.Submit("st")
	second := s.Submit("st")
	assert.Equal(t, first, second)
}

func TestNodeColorOverride(t *testing.T) {
	s := New("s1", "jane", scenarioA(t), geo(), nil)
	assert.Equal(t, graph.NameColor, s.NodeColor(1))
	assert.Equal(t, graph.BusinessAddressColor, s.NodeColor(2))

	s.Submit("main")
	assert.Equal(t, graph.NameColor, s.NodeColor(1))
	assert.Equal(t, graph.HighlightColor, s.NodeColor(2))
	assert.Equal(t, map[int]graph.Color{1: graph.NameColor, 2: graph.HighlightColor}, s.NodeColors())

	s.Submit("")
	assert.Equal(t, graph.BusinessAddressColor, s.NodeColor(2))
}

func TestLinkDash(t *testing.T) {
	m := scenarioA(t)
	assert.Equal(t, []int{2, 2}, LinkDash(m.Edges[0]))
	assert.Nil(t, LinkDash(graph.VisualEdge{}))
}

func TestSelection_Dedup(t *testing.T) {
	sel := NewSelection([]int{3, 1, 3})
	assert.Equal(t, []int{3, 1}, sel.IDs())
	assert.True(t, sel.Contains(1))
	assert.False(t, sel.Contains(2))
	assert.True(t, NewSelection(nil).Empty())
}

type chanForm struct{ fn func(string) }

func (f *chanForm) OnSubmit(fn func(string)) { f.fn = fn }

func TestBind(t *testing.T) {
	s := New("s1", "jane", scenarioA(t), geo(), nil)
	form := &chanForm{}
	var got []Outcome
	s.Bind(form, func(o Outcome) { got = append(got, o) })

	form.fn("jane")
	form.fn("zzz")
	require.Len(t, got, 2)
	assert.Equal(t, OutcomeSingle, got[0].Kind)
	assert.Equal(t, OutcomeNoMatch, got[1].Kind)
}
