package portfolio

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Every error produced while obtaining a portfolio wraps
// exactly one of them.
var (
	ErrLoadFailure        = errors.New("portfolio: load failure")
	ErrParseFailure       = errors.New("portfolio: parse failure")
	ErrMalformedPortfolio = errors.New("portfolio: malformed portfolio")
)

// LoadError reports a non-success retrieval of a portfolio document.
// StatusCode is the HTTP status when the source is HTTP, zero otherwise.
type LoadError struct {
	Location   string
	StatusCode int
	Err        error
}

func (e *LoadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Got HTTP %d when trying to retrieve %s", e.StatusCode, e.Location)
	}
	if e.Err != nil {
		return fmt.Sprintf("Unable to retrieve %s: %v", e.Location, e.Err)
	}
	return fmt.Sprintf("Unable to retrieve %s", e.Location)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrLoadFailure) hold.
func (e *LoadError) Is(target error) bool { return target == ErrLoadFailure }

// ParseError reports a document that is not valid per the portfolio schema.
type ParseError struct {
	Location string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("Invalid portfolio document: %v", e.Err)
	}
	return fmt.Sprintf("Invalid portfolio document %s: %v", e.Location, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrParseFailure) hold.
func (e *ParseError) Is(target error) bool { return target == ErrParseFailure }

// MalformedError reports a data-integrity fault: an edge endpoint that is
// not a node of the portfolio, or a node id used twice.
type MalformedError struct {
	EdgeIndex int // -1 when the fault is a duplicate node id
	NodeID    int
	Reason    string
}

func (e *MalformedError) Error() string {
	if e.EdgeIndex < 0 {
		return fmt.Sprintf("Malformed portfolio: node id %d %s", e.NodeID, e.Reason)
	}
	return fmt.Sprintf("Malformed portfolio: edge %d %s %d", e.EdgeIndex, e.Reason, e.NodeID)
}

// Is makes errors.Is(err, ErrMalformedPortfolio) hold.
func (e *MalformedError) Is(target error) bool { return target == ErrMalformedPortfolio }

// Code returns the API error code for err, or "" when err is none of the
// portfolio failure kinds.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrLoadFailure):
		return "LOAD_FAILURE"
	case errors.Is(err, ErrParseFailure):
		return "PARSE_FAILURE"
	case errors.Is(err, ErrMalformedPortfolio):
		return "MALFORMED_PORTFOLIO"
	}
	return ""
}
