package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const acmeDoc = `{
  "title": "Acme Realty",
  "nodes": [
    {"id": 1, "value": {"Name": "Jane Doe"}},
    {"id": 2, "value": {"Name": "John Doe"}},
    {"id": 3, "value": {"BizAddr": "1 Main St"}}
  ],
  "edges": [
    {"from": 1, "to": 3, "reg_contacts": 1, "is_bridge": true, "bbl": "1000010001"},
    {"from": 2, "to": 3, "reg_contacts": 12, "bbl": "3012340056"}
  ]
}`

// run executes portfolioctl with args against a scratch catalog.
func run(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--db-path", filepath.Join(dir, "catalog.db")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeDoc(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestImportAndRanking(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "docs/acme.json", acmeDoc)
	writeDoc(t, dir, "docs/nested/small.json", `{"title":"Small","nodes":[{"id":1,"value":{"Name":"Solo"}}],"edges":[]}`)

	out, err := run(t, dir, "", "import", filepath.Join(dir, "docs/**/*.json"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "acme")
	assert.Contains(t, out, "small")
	assert.Contains(t, out, "imported")

	// Re-importing identical bytes is a no-op.
	out, err = run(t, dir, "", "import", filepath.Join(dir, "docs/acme.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "unchanged")

	out, err = run(t, dir, "", "ranking")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "acme"), strings.Index(out, "small"))

	out, err = run(t, dir, "", "ranking", "--min-buildings", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme Realty")
	assert.NotContains(t, out, "Small")

	out, err = run(t, dir, "", "info", "catalog:acme")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme Realty")
}

func TestImport_FailuresExitNonZero(t *testing.T) {
	dir := t.TempDir()
	bad := writeDoc(t, dir, "bad.json", `{"title": 5}`)

	out, err := run(t, dir, "", "import", bad)
	require.Error(t, err)
	assert.Contains(t, out, "Invalid portfolio document")

	_, err = run(t, dir, "", "import", filepath.Join(dir, "none-*.json"))
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "acme.json", acmeDoc)

	out, err := run(t, dir, "", "info", path, "--top", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme Realty")
	assert.Contains(t, out, "Buildings")
	assert.Contains(t, out, "John Doe")
	assert.NotContains(t, out, "Jane Doe")
}

func TestDotAndGraph(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "acme.json", acmeDoc)

	out, err := run(t, dir, "", "dot", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "// Acme Realty\n"), out)
	assert.Contains(t, out, "graph {")
	assert.Contains(t, out, "style=dashed")
	assert.Contains(t, out, "Jane Doe")

	out, err = run(t, dir, "", "graph", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"fx"`)
	assert.Contains(t, out, `"lineDash"`)

	out, err = run(t, dir, "", "graph", path, "--layout=false")
	require.NoError(t, err)
	assert.NotContains(t, out, `"fx"`)
}

func TestSearch(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "acme.json", acmeDoc)

	out, err := run(t, dir, "", "search", path, "main", "st")
	require.NoError(t, err)
	assert.Contains(t, out, `Found 1 node matching "main st".`)
	assert.Contains(t, out, "1 Main St")

	out, err = run(t, dir, "doe\nnobody\n\n", "search", path, "--camera")
	require.NoError(t, err)
	assert.Contains(t, out, `Found 2 nodes matching "doe".`)
	assert.Contains(t, out, `No nodes match "nobody".`)
	assert.Contains(t, out, "[camera] fit matches")
	assert.Contains(t, out, "[camera] fit all nodes")
	// The reset restores the status line.
	assert.Equal(t, 2, strings.Count(out, "3 nodes, 2 edges"))
}

func TestSearch_LoadFailureHalts(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "doe\n", "search", filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.NotContains(t, out, "matching")
}
