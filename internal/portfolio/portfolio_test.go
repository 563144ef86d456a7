package portfolio

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioA = `{
  "title": "Jane Doe's portfolio",
  "nodes": [
    {"id": 1, "value": {"Name": "Jane Doe"}},
    {"id": 2, "value": {"BizAddr": "1 Main St"}}
  ],
  "edges": [
    {"from": 1, "to": 2, "reg_contacts": 1, "is_bridge": true}
  ]
}`

func TestDecode_ScenarioA(t *testing.T) {
	p, err := DecodeBytes([]byte(scenarioA), "portfolio.json")
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe's portfolio", p.Title)
	require.Len(t, p.Nodes, 2)
	assert.Equal(t, Node{ID: 1, Variant: Name("Jane Doe")}, p.Nodes[0])
	assert.Equal(t, Node{ID: 2, Variant: BusinessAddress("1 Main St")}, p.Nodes[1])
	require.Len(t, p.Edges, 1)
	assert.Equal(t, Edge{From: 1, To: 2, RegistrationContactCount: 1, IsLocalBridge: true}, p.Edges[0])
	assert.NoError(t, Validate(p))
	assert.Equal(t, "2 nodes, 1 edges", p.StatusLine())
}

func TestDecode_OptionalEdgeFieldsDefault(t *testing.T) {
	doc := `{"title":"t","nodes":[{"id":1,"value":{"Name":"A"}},{"id":2,"value":{"BizAddr":"B"}}],
		"edges":[{"from":1,"to":2,"reg_contacts":4,"bbl":" 3012340056 "}]}`
	p, err := DecodeBytes([]byte(doc), "")
	require.NoError(t, err)
	assert.False(t, p.Edges[0].IsLocalBridge)
	assert.Equal(t, "3012340056", p.Edges[0].BBL)
}

func TestDecode_ParseFailures(t *testing.T) {
	cases := map[string]string{
		"not json":           `{"title": `,
		"missing title":      `{"nodes":[],"edges":[]}`,
		"missing nodes":      `{"title":"t","edges":[]}`,
		"missing edges":      `{"title":"t","nodes":[]}`,
		"both variant keys":  `{"title":"t","nodes":[{"id":1,"value":{"Name":"a","BizAddr":"b"}}],"edges":[]}`,
		"no variant key":     `{"title":"t","nodes":[{"id":1,"value":{}}],"edges":[]}`,
		"unknown variant":    `{"title":"t","nodes":[{"id":1,"value":{"Corp":"a"}}],"edges":[]}`,
		"missing node id":    `{"title":"t","nodes":[{"value":{"Name":"a"}}],"edges":[]}`,
		"fractional id":      `{"title":"t","nodes":[{"id":1.5,"value":{"Name":"a"}}],"edges":[]}`,
		"zero reg contacts":  `{"title":"t","nodes":[{"id":1,"value":{"Name":"a"}}],"edges":[{"from":1,"to":1,"reg_contacts":0}]}`,
		"missing edge from":  `{"title":"t","nodes":[{"id":1,"value":{"Name":"a"}}],"edges":[{"to":1,"reg_contacts":2}]}`,
		"non-string label":   `{"title":"t","nodes":[{"id":1,"value":{"Name":7}}],"edges":[]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := DecodeBytes([]byte(doc), "doc.json")
			assert.Nil(t, p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParseFailure), "got %v", err)
			assert.False(t, errors.Is(err, ErrLoadFailure))
			assert.Equal(t, "PARSE_FAILURE", Code(err))
		})
	}
}

func TestDecode_ValidationMessageNamesPath(t *testing.T) {
	doc := `{"title":"t","nodes":[{"id":1,"value":{"Name":"a"}}],"edges":[{"from":1,"to":1,"reg_contacts":0}]}`
	_, err := DecodeBytes([]byte(doc), "doc.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "edges[0].reg_contacts")
}

func TestDecode_EmptyGraphIsValid(t *testing.T) {
	p, err := Decode(strings.NewReader(`{"title":"empty","nodes":[],"edges":[]}`), "")
	require.NoError(t, err)
	assert.Empty(t, p.Nodes)
	assert.Empty(t, p.Edges)
}

func TestValidate_UnknownNode(t *testing.T) {
	p := &Portfolio{
		Title: "t",
		Nodes: []Node{{ID: 1, Variant: Name("a")}},
		Edges: []Edge{{From: 1, To: 9, RegistrationContactCount: 1}},
	}
	err := Validate(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedPortfolio))
	assert.Equal(t, "MALFORMED_PORTFOLIO", Code(err))

	var merr *MalformedError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, 0, merr.EdgeIndex)
	assert.Equal(t, 9, merr.NodeID)
}

func TestValidate_DuplicateNode(t *testing.T) {
	p := &Portfolio{
		Nodes: []Node{{ID: 1, Variant: Name("a")}, {ID: 1, Variant: BusinessAddress("b")}},
	}
	err := Validate(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedPortfolio))
	assert.Contains(t, err.Error(), "more than once")
}

func TestLoadError(t *testing.T) {
	err := error(&LoadError{Location: "portfolio.json", StatusCode: 404})
	assert.Equal(t, "Got HTTP 404 when trying to retrieve portfolio.json", err.Error())
	assert.True(t, errors.Is(err, ErrLoadFailure))
	assert.Equal(t, "LOAD_FAILURE", Code(err))
	assert.Equal(t, "", Code(errors.New("other")))
}

func TestMarshalJSON_RoundTripsDocument(t *testing.T) {
	p, err := DecodeBytes([]byte(scenarioA), "")
	require.NoError(t, err)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	again, err := DecodeBytes(data, "")
	require.NoError(t, err)
	assert.Equal(t, p, again)
}

func TestSummarize(t *testing.T) {
	p := &Portfolio{
		Title: "Boss's portfolio",
		Nodes: []Node{
			{ID: 1, Variant: Name("BOSS")},
			{ID: 2, Variant: Name("UNDERLING")},
			{ID: 3, Variant: BusinessAddress("1 MAIN ST")},
			{ID: 4, Variant: BusinessAddress("2 SIDE ST")},
		},
		Edges: []Edge{
			{From: 1, To: 3, RegistrationContactCount: 12, BBL: "1000010001"},
			{From: 1, To: 4, RegistrationContactCount: 3, BBL: "1000010002"},
			{From: 2, To: 4, RegistrationContactCount: 1, IsLocalBridge: true, BBL: "1000010002"},
		},
	}

	info := Summarize(p, 1)
	assert.Equal(t, 4, info.NodeCount)
	assert.Equal(t, 3, info.EdgeCount)
	assert.Equal(t, 2, info.NameCount)
	assert.Equal(t, 2, info.BusinessAddressCount)
	assert.Equal(t, 2, info.BuildingCount)
	assert.Equal(t, 1, info.LocalBridgeCount)
	assert.Equal(t, []Ranked{{ID: 1, Label: "BOSS", Registrations: 15}}, info.TopNames)
	assert.Equal(t, []Ranked{{ID: 3, Label: "1 MAIN ST", Registrations: 12}}, info.TopBusinessAddresses)

	all := Rank(p, KindBusinessAddress)
	require.Len(t, all, 2)
	assert.Equal(t, "2 SIDE ST", all[1].Label)
	assert.Equal(t, 4, all[1].Registrations)

	assert.Equal(t, "BOSS's portfolio", SuggestedTitle(p))
	assert.Equal(t, "???'s portfolio", SuggestedTitle(&Portfolio{}))
}
