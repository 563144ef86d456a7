// ===========================================================================
// scripts/generate_demo_portfolios: Generate synthetic portfolio documents
//
// Usage:
//   go run ./scripts/generate_demo_portfolios \
//       --out ./demo-portfolios \
//       --count 12 \
//       --db-path ./portfolioviz.db
//
// Every document is reproducible from --seed. With --db-path the documents
// are also imported into the catalog.
// ===========================================================================
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/vyuha/portfolioviz/internal/portfolio"
	"github.com/vyuha/portfolioviz/internal/storage"
)

// ---------------------------------------------------------------------------
// Flags
// ---------------------------------------------------------------------------

var (
	outDir  = flag.String("out", "./demo-portfolios", "Directory for generated JSON documents")
	count   = flag.Int("count", 12, "Number of portfolios to generate")
	maxSize = flag.Int("max-buildings", 40, "Upper bound on buildings per portfolio")
	dbPath  = flag.String("db-path", "", "Also import into this catalog database")
	seed    = flag.Int64("seed", 42, "Random seed for reproducibility")
)

// ---------------------------------------------------------------------------
// Vocabulary
// ---------------------------------------------------------------------------

var firstNames = []string{
	"JANE", "JOHN", "MARIA", "DAVID", "SARAH", "MOSHE", "LI", "ANA", "ROBERT", "PRIYA",
}

var lastNames = []string{
	"DOE", "SMITH", "GOLDBERG", "RODRIGUEZ", "CHEN", "KAPLAN", "OKAFOR", "BERG", "PATEL", "NGUYEN",
}

var streets = []string{
	"BROADWAY", "MAIN ST", "FLATBUSH AVE", "GRAND CONCOURSE", "QUEENS BLVD",
	"ATLANTIC AVE", "LEXINGTON AVE", "VICTORY BLVD", "NOSTRAND AVE", "JEROME AVE",
}

var cities = []string{
	"NEW YORK NY", "BROOKLYN NY", "BRONX NY", "FLUSHING NY", "STATEN ISLAND NY",
}

// ---------------------------------------------------------------------------
// Document shape (the JSON format read by portfolio.Decode)
// ---------------------------------------------------------------------------

type document struct {
	Title string         `json:"title"`
	Nodes []documentNode `json:"nodes"`
	Edges []documentEdge `json:"edges"`
}

type documentNode struct {
	ID    int               `json:"id"`
	Value map[string]string `json:"value"`
}

type documentEdge struct {
	From        int    `json:"from"`
	To          int    `json:"to"`
	RegContacts int    `json:"reg_contacts"`
	IsBridge    bool   `json:"is_bridge"`
	BBL         string `json:"bbl"`
}

func main() {
	flag.Parse()

	if *count < 1 || *maxSize < 1 {
		fmt.Fprintln(os.Stderr, "ERROR: --count and --max-buildings must be positive")
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	ctx := context.Background()

	log.Println("══════════════════════════════════════════")
	log.Println("  PORTFOLIOVIZ — Demo Portfolio Generator")
	log.Println("══════════════════════════════════════════")
	log.Printf("  Out:   %s", *outDir)
	log.Printf("  Count: %d", *count)
	log.Println()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("  ✗ Failed to create %s: %v", *outDir, err)
	}

	var store *storage.Storage
	if *dbPath != "" {
		var err error
		store, err = storage.New(*dbPath)
		if err != nil {
			log.Fatalf("  ✗ Failed to open database: %v", err)
		}
		defer store.Close()
	}

	for i := 0; i < *count; i++ {
		doc := generate(rng, 1+rng.Intn(*maxSize))
		raw, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			log.Fatalf("  ✗ Encode failed: %v", err)
		}

		// Round-trip through the real decoder so a generator bug can't ship
		// a document the server would reject.
		p, err := portfolio.DecodeBytes(raw, doc.Title)
		if err == nil {
			err = portfolio.Validate(p)
		}
		if err != nil {
			log.Fatalf("  ✗ Generated document is invalid: %v", err)
		}

		slug := storage.Slug(doc.Title)
		path := filepath.Join(*outDir, slug+".json")
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			log.Fatalf("  ✗ Write %s: %v", path, err)
		}

		info := portfolio.Summarize(p, 0)
		if store != nil {
			rec := &storage.PortfolioRecord{
				Slug:          slug,
				Title:         p.Title,
				Source:        path,
				NodeCount:     info.NodeCount,
				EdgeCount:     info.EdgeCount,
				BuildingCount: info.BuildingCount,
			}
			if _, err := store.SavePortfolio(ctx, rec, raw); err != nil {
				log.Fatalf("  ✗ Import %s: %v", slug, err)
			}
		}
		log.Printf("  ✓ %-36s %3d nodes %3d edges %3d buildings",
			slug, info.NodeCount, info.EdgeCount, info.BuildingCount)
	}

	log.Println()
	log.Println("  Done.")
}

// generate builds one connected portfolio with roughly buildings distinct
// BBLs. Names and addresses are linked by registrations; the first edge
// into each new node is what keeps the graph connected.
func generate(rng *rand.Rand, buildings int) document {
	owner := pick(rng, firstNames) + " " + pick(rng, lastNames)
	doc := document{Title: fmt.Sprintf("%s's portfolio", owner)}

	nextID := 1
	addNode := func(kind, label string) int {
		id := nextID
		nextID++
		doc.Nodes = append(doc.Nodes, documentNode{ID: id, Value: map[string]string{kind: label}})
		return id
	}

	seenNames := map[string]bool{owner: true}
	seenAddrs := map[string]bool{}
	names := []int{addNode("Name", owner)}
	var addrs []int

	for b := 0; b < buildings; b++ {
		bbl := fmt.Sprintf("%d%05d%04d", 1+rng.Intn(5), 1+rng.Intn(99999), 1+rng.Intn(9999))

		// Reuse an address most of the time; portfolios share offices.
		var addr int
		if len(addrs) == 0 || rng.Intn(3) == 0 {
			label := fmt.Sprintf("%d %s, %s", 1+rng.Intn(2000), pick(rng, streets), pick(rng, cities))
			if seenAddrs[label] {
				continue
			}
			seenAddrs[label] = true
			addr = addNode("BizAddr", label)
			addrs = append(addrs, addr)
		} else {
			addr = addrs[rng.Intn(len(addrs))]
		}

		name := names[rng.Intn(len(names))]
		if rng.Intn(4) == 0 {
			label := pick(rng, firstNames) + " " + pick(rng, lastNames)
			if !seenNames[label] {
				seenNames[label] = true
				name = addNode("Name", label)
				names = append(names, name)
			}
		}

		regs := 1
		if rng.Intn(5) == 0 {
			regs = 2 + rng.Intn(15)
		}
		doc.Edges = append(doc.Edges, documentEdge{
			From:        name,
			To:          addr,
			RegContacts: regs,
			IsBridge:    rng.Intn(6) == 0,
			BBL:         bbl,
		})
	}
	return doc
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.Intn(len(from))]
}
