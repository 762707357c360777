// Command validate performs integrity checks across the mock report
// fixtures: the raw reports JSON and the normalized points JSON derived from
// it. It verifies record counts, field presence, normalization correctness,
// and cross-fixture consistency.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -raw-json data/mock/reports.json \
//	  -points-json data/mock/geopoints.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/Monocled004/HarborNet/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rawJSON := flag.String("raw-json", "", "path to the raw reports JSON fixture")
	pointsJSON := flag.String("points-json", "", "path to the normalized points JSON fixture")
	flag.Parse()

	if *rawJSON == "" || *pointsJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*rawJSON, *pointsJSON))
}

func run(rawPath, pointsPath string) int {
	fmt.Println("=== Report Fixture Integrity Validation ===")
	fmt.Println()

	rawRecords, err := loadJSON[domain.RawRecord](rawPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw fixture: %v\n", err)
		return 1
	}

	points, err := loadJSON[domain.GeoPoint](pointsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load points fixture: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRawFixture(rawRecords),
		validateNormalization(rawRecords, points),
		validatePointBounds(points),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS  %s\n", p.name)
			continue
		}
		allPassed = false
		fmt.Printf("FAIL  %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("      - %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	fmt.Println("\nAll phases passed.")
	return 0
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// validateRawFixture checks the raw fixture is self-consistent: non-empty,
// unique IDs, recognized statuses, classifiable categories.
func validateRawFixture(records []domain.RawRecord) *phase {
	p := &phase{name: "raw fixture integrity"}

	if len(records) == 0 {
		p.errorf("fixture is empty")
		return p
	}

	seen := make(map[int]bool, len(records))
	for _, r := range records {
		if seen[r.ID] {
			p.errorf("duplicate id %d", r.ID)
		}
		seen[r.ID] = true

		if r.Status != "verified" && r.Status != "unverified" {
			p.errorf("record %d: unknown status %q", r.ID, r.Status)
		}
		if r.Category == "" {
			p.errorf("record %d: empty category", r.ID)
		}
	}
	return p
}

// validateNormalization re-runs normalization on the raw fixture and checks
// the points fixture matches it exactly.
func validateNormalization(records []domain.RawRecord, points []domain.GeoPoint) *phase {
	p := &phase{name: "normalization correctness"}

	derived := domain.NormalizeRecords(records)
	if len(derived) != len(points) {
		p.errorf("point count mismatch: fixture has %d, normalization yields %d", len(points), len(derived))
		return p
	}

	for i := range derived {
		if derived[i].Category != points[i].Category {
			p.errorf("point %d: category %s, want %s", i, points[i].Category, derived[i].Category)
		}
		if math.Abs(derived[i].Lat-points[i].Lat) > 1e-9 || math.Abs(derived[i].Lng-points[i].Lng) > 1e-9 {
			p.errorf("point %d: coordinates drifted", i)
		}
		if derived[i].Verified != points[i].Verified {
			p.errorf("point %d: verified flag mismatch", i)
		}
	}

	wantCounts := domain.CountByCategory(derived)
	gotCounts := domain.CountByCategory(points)
	for _, cat := range domain.Categories() {
		if wantCounts[cat] != gotCounts[cat] {
			p.errorf("category %s: fixture has %d points, normalization yields %d", cat, gotCounts[cat], wantCounts[cat])
		}
	}
	return p
}

// validatePointBounds checks every normalized point satisfies the engine's
// own invariants: coordinates in range, weight at least one.
func validatePointBounds(points []domain.GeoPoint) *phase {
	p := &phase{name: "point invariants"}

	for i, pt := range points {
		if pt.Lat < -90 || pt.Lat > 90 || pt.Lng < -180 || pt.Lng > 180 {
			p.errorf("point %d: coordinates out of range (%g, %g)", i, pt.Lat, pt.Lng)
		}
		if math.IsNaN(pt.Lat) || math.IsNaN(pt.Lng) {
			p.errorf("point %d: NaN coordinate", i)
		}
		if pt.Weight < 1 {
			p.errorf("point %d: weight %g below minimum", i, pt.Weight)
		}
	}
	return p
}
