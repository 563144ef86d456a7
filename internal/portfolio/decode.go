package portfolio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the shared schema validator. Field names in messages use the
// document's JSON keys.
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ---------------------------------------------------------------------------
// Wire format
// ---------------------------------------------------------------------------

type wireDocument struct {
	Title *string    `json:"title" validate:"required"`
	Nodes []wireNode `json:"nodes" validate:"required,dive"`
	Edges []wireEdge `json:"edges" validate:"required,dive"`
}

type wireNode struct {
	ID    *int              `json:"id" validate:"required"`
	Value map[string]string `json:"value" validate:"required,len=1"`
}

type wireEdge struct {
	From        *int   `json:"from" validate:"required"`
	To          *int   `json:"to" validate:"required"`
	RegContacts int    `json:"reg_contacts" validate:"min=1"`
	IsBridge    bool   `json:"is_bridge"`
	BBL         string `json:"bbl"`
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// Decode reads a portfolio document from r. location names the document in
// error messages. Any schema violation yields a *ParseError. Referential
// integrity is not checked here; see Validate.
func Decode(r io.Reader, location string) (*Portfolio, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Location: location, Err: err}
	}
	return DecodeBytes(data, location)
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte, location string) (*Portfolio, error) {
	var doc wireDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Location: location, Err: err}
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, &ParseError{Location: location, Err: formatValidationError(err)}
	}

	p := &Portfolio{
		Title: *doc.Title,
		Nodes: make([]Node, 0, len(doc.Nodes)),
		Edges: make([]Edge, 0, len(doc.Edges)),
	}

	for i, wn := range doc.Nodes {
		v, err := variantFromValue(wn.Value)
		if err != nil {
			return nil, &ParseError{Location: location, Err: fmt.Errorf("nodes[%d].value: %w", i, err)}
		}
		p.Nodes = append(p.Nodes, Node{ID: *wn.ID, Variant: v})
	}

	for _, we := range doc.Edges {
		p.Edges = append(p.Edges, Edge{
			From:                     *we.From,
			To:                       *we.To,
			RegistrationContactCount: we.RegContacts,
			IsLocalBridge:            we.IsBridge,
			BBL:                      strings.TrimSpace(we.BBL),
		})
	}
	return p, nil
}

// variantFromValue turns the single-key value object into a Variant.
func variantFromValue(value map[string]string) (Variant, error) {
	if len(value) != 1 {
		return Variant{}, fmt.Errorf("expected exactly one of Name or BizAddr, got %d keys", len(value))
	}
	for key, label := range value {
		switch key {
		case KindName.String():
			return Name(label), nil
		case KindBusinessAddress.String():
			return BusinessAddress(label), nil
		default:
			return Variant{}, fmt.Errorf("unknown node variant %q", key)
		}
	}
	return Variant{}, errors.New("empty node value")
}

// formatValidationError converts validator errors into a compact message
// that names the offending document path, e.g. "edges[2].reg_contacts: min=1".
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		path := fe.Namespace()
		if i := strings.Index(path, "."); i >= 0 {
			path = path[i+1:]
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fmt.Sprintf("%s: %s", path, rule))
	}
	return errors.New(strings.Join(parts, "; "))
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// MarshalJSON writes the portfolio back in document form.
func (p *Portfolio) MarshalJSON() ([]byte, error) {
	type node struct {
		ID    int               `json:"id"`
		Value map[string]string `json:"value"`
	}
	type edge struct {
		From        int    `json:"from"`
		To          int    `json:"to"`
		RegContacts int    `json:"reg_contacts"`
		IsBridge    bool   `json:"is_bridge,omitempty"`
		BBL         string `json:"bbl,omitempty"`
	}
	doc := struct {
		Title string `json:"title"`
		Nodes []node `json:"nodes"`
		Edges []edge `json:"edges"`
	}{
		Title: p.Title,
		Nodes: make([]node, 0, len(p.Nodes)),
		Edges: make([]edge, 0, len(p.Edges)),
	}
	for _, n := range p.Nodes {
		doc.Nodes = append(doc.Nodes, node{
			ID:    n.ID,
			Value: map[string]string{n.Variant.Kind.String(): n.Variant.Label},
		})
	}
	for _, e := range p.Edges {
		doc.Edges = append(doc.Edges, edge{
			From:        e.From,
			To:          e.To,
			RegContacts: e.RegistrationContactCount,
			IsBridge:    e.IsLocalBridge,
			BBL:         e.BBL,
		})
	}
	return json.Marshal(doc)
}
