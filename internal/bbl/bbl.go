// Package bbl parses New York City Borough-Block-Lot identifiers and builds
// the external property-lookup links attached to portfolio edges.
//
// See https://en.wikipedia.org/wiki/Borough,_Block_and_Lot
package bbl

import (
	"fmt"
	"strconv"
	"strings"
)

// Boro is one of the five boroughs.
type Boro uint8

const (
	Manhattan    Boro = 1
	Bronx        Boro = 2
	Brooklyn     Boro = 3
	Queens       Boro = 4
	StatenIsland Boro = 5
)

func (b Boro) String() string {
	switch b {
	case Manhattan:
		return "Manhattan"
	case Bronx:
		return "Bronx"
	case Brooklyn:
		return "Brooklyn"
	case Queens:
		return "Queens"
	case StatenIsland:
		return "Staten Island"
	default:
		return fmt.Sprintf("Boro(%d)", uint8(b))
	}
}

// BBL identifies a tax lot.
type BBL struct {
	Boro  Boro
	Block uint32
	Lot   uint16
}

// FromNumbers builds a BBL, rejecting unknown borough ids.
func FromNumbers(boro uint8, block uint32, lot uint16) (BBL, error) {
	if boro < uint8(Manhattan) || boro > uint8(StatenIsland) {
		return BBL{}, fmt.Errorf("bbl: invalid boro id %d", boro)
	}
	if block > 99999 {
		return BBL{}, fmt.Errorf("bbl: block %d out of range", block)
	}
	if lot > 9999 {
		return BBL{}, fmt.Errorf("bbl: lot %d out of range", lot)
	}
	return BBL{Boro: Boro(boro), Block: block, Lot: lot}, nil
}

// Parse reads the canonical ten-digit form: 1 boro digit, 5 block digits,
// 4 lot digits.
func Parse(s string) (BBL, error) {
	s = strings.TrimSpace(s)
	if len(s) != 10 {
		return BBL{}, fmt.Errorf("bbl: %q is not 10 digits", s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return BBL{}, fmt.Errorf("bbl: %q contains a non-digit", s)
		}
	}
	boro, _ := strconv.ParseUint(s[0:1], 10, 8)
	block, _ := strconv.ParseUint(s[1:6], 10, 32)
	lot, _ := strconv.ParseUint(s[6:10], 10, 16)
	return FromNumbers(uint8(boro), uint32(block), uint16(lot))
}

// String returns the canonical ten-digit form.
func (b BBL) String() string {
	return fmt.Sprintf("%d%05d%04d", b.Boro, b.Block, b.Lot)
}

// ---------------------------------------------------------------------------
// Links
// ---------------------------------------------------------------------------

// DefaultLinkBase is the property-lookup site edges link to.
const DefaultLinkBase = "https://whoownswhat.justfix.org/bbl/"

// Linker builds external URLs for BBL keys.
type Linker struct {
	Base string
}

// URL returns the external link for key, or "" when key is not a valid BBL.
func (l Linker) URL(key string) string {
	if key == "" {
		return ""
	}
	b, err := Parse(key)
	if err != nil {
		return ""
	}
	base := l.Base
	if base == "" {
		base = DefaultLinkBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + b.String()
}
