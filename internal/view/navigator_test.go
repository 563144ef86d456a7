package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyuha/portfolioviz/internal/layout"
)

type zoomCall struct {
	duration time.Duration
	padding  int
	all      bool
	accepted []int
}

type fakeCamera struct {
	zooms   []zoomCall
	centers []layout.Point
}

func (c *fakeCamera) ZoomToFit(d time.Duration, padding int, keep func(int) bool) {
	call := zoomCall{duration: d, padding: padding, all: keep == nil}
	if keep != nil {
		for id := 1; id <= 10; id++ {
			if keep(id) {
				call.accepted = append(call.accepted, id)
			}
		}
	}
	c.zooms = append(c.zooms, call)
}

func (c *fakeCamera) CenterAt(p layout.Point, _ time.Duration) {
	c.centers = append(c.centers, p)
}

func geometry() *layout.Layout {
	return layout.FromPositions(map[int]layout.Point{
		1: {X: 10, Y: 10},
		2: {X: 50, Y: 80},
		3: {X: 90, Y: 30},
		4: {X: 400, Y: 400},
	})
}

func TestPlan_NoMatchesNoMove(t *testing.T) {
	nav := NewNavigator()
	a := nav.Plan(nil, geometry())
	assert.Equal(t, ActionNone, a.Kind)

	cam := &fakeCamera{}
	nav.Apply(a, cam)
	assert.Empty(t, cam.zooms)
	assert.Empty(t, cam.centers)
}

func TestPlan_SingleMatchCenters(t *testing.T) {
	nav := NewNavigator()
	a := nav.Plan([]int{2}, geometry())
	require.Equal(t, ActionCenter, a.Kind)
	require.NotNil(t, a.Point)
	assert.Equal(t, layout.Point{X: 50, Y: 80}, *a.Point)
	assert.Equal(t, []int{2}, a.NodeIDs)
	assert.Equal(t, int64(1000), a.DurationMs)

	cam := &fakeCamera{}
	nav.Apply(a, cam)
	assert.Equal(t, []layout.Point{{X: 50, Y: 80}}, cam.centers)
	assert.Empty(t, cam.zooms)
}

func TestPlan_ManyMatchesFitExactlyThose(t *testing.T) {
	nav := NewNavigator()
	a := nav.Plan([]int{1, 2, 3}, geometry())
	require.Equal(t, ActionFitBounds, a.Kind)
	assert.Equal(t, []int{1, 2, 3}, a.NodeIDs)
	require.NotNil(t, a.Bounds)
	assert.Equal(t, layout.Box{X: [2]float64{10, 90}, Y: [2]float64{10, 80}}, *a.Bounds)
	assert.Equal(t, DefaultPadding, a.PaddingPx)

	cam := &fakeCamera{}
	nav.Apply(a, cam)
	require.Len(t, cam.zooms, 1)
	assert.False(t, cam.zooms[0].all)
	assert.Equal(t, []int{1, 2, 3}, cam.zooms[0].accepted)
	assert.Equal(t, DefaultDuration, cam.zooms[0].duration)
	assert.Equal(t, DefaultPadding, cam.zooms[0].padding)
}

func TestReset_FitsAll(t *testing.T) {
	nav := NewNavigator()
	a := nav.Reset()
	assert.Equal(t, ActionResetFit, a.Kind)

	cam := &fakeCamera{}
	nav.Apply(a, cam)
	require.Len(t, cam.zooms, 1)
	assert.True(t, cam.zooms[0].all)
	assert.Equal(t, DefaultPadding, cam.zooms[0].padding)
	assert.Equal(t, DefaultDuration, cam.zooms[0].duration)
}

func TestPlan_UnknownPositionNoMove(t *testing.T) {
	nav := NewNavigator()
	assert.Equal(t, ActionNone, nav.Plan([]int{99}, geometry()).Kind)
	assert.Equal(t, ActionNone, nav.Plan([]int{98, 99}, geometry()).Kind)
}

func TestPlan_Idempotent(t *testing.T) {
	nav := NewNavigator()
	assert.Equal(t, nav.Plan([]int{1, 3}, geometry()), nav.Plan([]int{1, 3}, geometry()))
	assert.Equal(t, nav.Plan([]int{4}, geometry()), nav.Plan([]int{4}, geometry()))
}
