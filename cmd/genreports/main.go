// Command genreports generates mock hazard report fixtures in the shape the
// collaborator backend serves, plus the normalized point set the engine
// derives from them. It runs the actual normalization code so the derived
// fixture matches real engine behavior.
//
// Usage:
//
//	go run ./cmd/genreports \
//	  -count 200 \
//	  -raw-out data/mock/reports.json \
//	  -points-out data/mock/geopoints.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/Monocled004/HarborNet/internal/domain"
)

// Report volumes cluster around well-known coastal hotspots.
type hotspot struct {
	name string
	lat  float64
	lng  float64
}

var hotspots = []hotspot{
	{"Chennai", 13.0827, 80.2707},
	{"Kochi", 9.9312, 76.2673},
	{"Visakhapatnam", 17.6868, 83.2185},
	{"Mumbai", 19.0760, 72.8777},
	{"Puri", 19.8135, 85.8312},
	{"Mangaluru", 12.9141, 74.8560},
	{"Kanyakumari", 8.0883, 77.5385},
	{"Paradip", 20.3165, 86.6085},
}

// Labels include the legacy spellings the classifier must absorb.
var categoryLabels = []string{
	"Flooding", "flooding", "FLOODING",
	"Tsunami", "Tsunami Alert",
	"High Waves", "HIGH WAVES",
	"Coastal Damage", "coastal damage",
	"Other", "something odd",
}

var uploaders = []string{"coastwatch", "fisherman_raju", "ndrf_field", "harbor_master", "beach_patrol"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	count := flag.Int("count", 200, "number of reports to generate")
	seed := flag.Int64("seed", 42, "random seed for reproducible fixtures")
	rawOut := flag.String("raw-out", "", "output path for the raw reports JSON fixture")
	pointsOut := flag.String("points-out", "", "output path for the normalized points JSON fixture")
	flag.Parse()

	if *rawOut == "" || *pointsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -raw-out, -points-out")
	}

	rng := rand.New(rand.NewSource(*seed))
	rawRecords := generate(rng, *count)

	// Round-trip through JSON so the fixture exercises the same decode path
	// the live fetcher uses, string and null coordinates included.
	data, err := json.Marshal(rawRecords)
	if err != nil {
		return fmt.Errorf("marshal raw records: %w", err)
	}
	var decoded []domain.RawRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("decode raw records: %w", err)
	}
	points := domain.NormalizeRecords(decoded)

	if err := writeJSON(*rawOut, rawRecords); err != nil {
		return fmt.Errorf("writing raw fixture: %w", err)
	}
	log.Printf("wrote raw fixture: %s (%d records)", *rawOut, len(rawRecords))

	if err := writeJSON(*pointsOut, points); err != nil {
		return fmt.Errorf("writing points fixture: %w", err)
	}
	log.Printf("wrote points fixture: %s (%d points)", *pointsOut, len(points))

	printStats(rawRecords, points)
	return nil
}

// generate produces raw report documents at the wire level so some records
// can carry string or null coordinates the way the backend actually does.
func generate(rng *rand.Rand, count int) []map[string]any {
	baseDate := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	records := make([]map[string]any, 0, count)

	for i := 0; i < count; i++ {
		spot := hotspots[rng.Intn(len(hotspots))]
		lat := spot.lat + rng.Float64()*0.4 - 0.2
		lng := spot.lng + rng.Float64()*0.4 - 0.2

		rec := map[string]any{
			"id":          i + 1,
			"uploader_id": 1 + rng.Intn(40),
			"uploader":    uploaders[rng.Intn(len(uploaders))],
			"category":    categoryLabels[rng.Intn(len(categoryLabels))],
			"status":      pick(rng, "verified", "unverified"),
			"description": fmt.Sprintf("Report near %s", spot.name),
			"image_path":  fmt.Sprintf("uploads/report_%d.jpg", i+1),
			"date":        baseDate.AddDate(0, 0, rng.Intn(30)).Format("2006-01-02"),
			"volume":      float64(rng.Intn(5)),
		}

		switch roll := rng.Float64(); {
		case roll < 0.05:
			// Missing coordinates.
			rec["latitude"] = nil
			rec["longitude"] = nil
		case roll < 0.15:
			// Numeric strings, as older backend rows serialize them.
			rec["latitude"] = fmt.Sprintf("%.6f", lat)
			rec["longitude"] = fmt.Sprintf("%.6f", lng)
		default:
			rec["latitude"] = lat
			rec["longitude"] = lng
		}

		records = append(records, rec)
	}
	return records
}

func pick(rng *rand.Rand, choices ...string) string {
	return choices[rng.Intn(len(choices))]
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(raw []map[string]any, points []domain.GeoPoint) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Raw records: %d\n", len(raw))
	fmt.Printf("Normalized points: %d (dropped %d)\n", len(points), len(raw)-len(points))

	var verified int
	for _, p := range points {
		if p.Verified {
			verified++
		}
	}
	fmt.Printf("Verified: %d, Unverified: %d\n", verified, len(points)-verified)

	counts := domain.CountByCategory(points)
	fmt.Print("By category: ")
	for _, cat := range domain.Categories() {
		fmt.Printf("%s=%d ", cat.String(), counts[cat])
	}
	fmt.Println()
}
