package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyuha/portfolioviz/internal/portfolio"
	"github.com/vyuha/portfolioviz/internal/registry"
)

const docV1 = `{"title": "Acme v1", "nodes": [{"id": 1, "value": {"Name": "Jane Doe"}}], "edges": []}`
const docV2 = `{"title": "Acme v2", "nodes": [{"id": 1, "value": {"Name": "Jane Doe"}}, {"id": 2, "value": {"BizAddr": "1 Main St"}}], "edges": [{"from": 1, "to": 2, "reg_contacts": 1}]}`

func setup(t *testing.T) (*Watcher, *registry.Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "acme.json")
	require.NoError(t, os.WriteFile(path, []byte(docV1), 0o644))

	reg := registry.New(nil)
	loader := &registry.Loader{}
	reg.Put(loader.Load(context.Background(), "acme", path))

	w := New(reg, loader, time.Hour)
	require.Equal(t, 1, w.AddLocations([]string{path, "https://example.com/remote.json", "s3://bucket/key.json"}))
	return w, reg, path
}

func title(t *testing.T, reg *registry.Registry) string {
	t.Helper()
	e, err := reg.Get("acme")
	require.NoError(t, err)
	return e.Title()
}

func TestPoll_UnchangedIsNotReloaded(t *testing.T) {
	w, reg, _ := setup(t)
	assert.Equal(t, 0, w.Poll(context.Background()))
	assert.Equal(t, "Acme v1", title(t, reg))
}

func TestPoll_ChangedIsReloaded(t *testing.T) {
	w, reg, path := setup(t)
	require.NoError(t, os.WriteFile(path, []byte(docV2), 0o644))

	assert.Equal(t, 1, w.Poll(context.Background()))
	assert.Equal(t, "Acme v2", title(t, reg))
	assert.Equal(t, 0, w.Poll(context.Background()))

	st := w.Status()
	assert.Equal(t, 1, st.Files)
	assert.Equal(t, int64(2), st.Polls)
	assert.Equal(t, int64(1), st.Reloads)
}

func TestPoll_BrokenFileSurfacesOnce(t *testing.T) {
	w, reg, path := setup(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"title": `), 0o644))

	assert.Equal(t, 1, w.Poll(context.Background()))
	e, err := reg.Get("acme")
	require.NoError(t, err)
	assert.False(t, e.OK())
	assert.ErrorIs(t, e.Err, portfolio.ErrParseFailure)

	// Still broken, same bytes: no reload storm.
	assert.Equal(t, 0, w.Poll(context.Background()))

	require.NoError(t, os.Remove(path))
	assert.Equal(t, 1, w.Poll(context.Background()))
	e, _ = reg.Get("acme")
	assert.ErrorIs(t, e.Err, portfolio.ErrLoadFailure)
	assert.Equal(t, int64(1), w.Status().ReadErrs)

	require.NoError(t, os.WriteFile(path, []byte(docV1), 0o644))
	assert.Equal(t, 1, w.Poll(context.Background()))
	assert.Equal(t, "Acme v1", title(t, reg))
}

func TestStartStop(t *testing.T) {
	reg := registry.New(nil)
	path := filepath.Join(t.TempDir(), "late.json")
	w := New(reg, &registry.Loader{}, 10*time.Millisecond)
	w.Add("late", path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.WriteFile(path, []byte(docV1), 0o644))
	require.Eventually(t, func() bool {
		e, err := reg.Get("late")
		return err == nil && e.OK()
	}, 5*time.Second, 10*time.Millisecond)

	w.Stop()
	w.Stop()
}
