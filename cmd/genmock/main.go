// Command genmock generates region update fixtures from the regional dataset.
// Each round drifts every region's index and school count a little, the way a
// monthly re-survey would, and stamps the updates one month apart.
//
// Usage:
//
//	go run ./cmd/genmock -rounds 3 -out data/mock/region_updates.json
//	go run ./cmd/genmock -rounds 3 -publish -brokers localhost:9092
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	kafkaadapter "github.com/couchcryptid/safety-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/safety-dashboard/internal/config"
	"github.com/couchcryptid/safety-dashboard/internal/domain"
)

// baseDate is the first survey month after the embedded dataset.
var baseDate = time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	datasetPath := flag.String("dataset", "", "dataset YAML file (default: embedded dataset)")
	out := flag.String("out", "", "output path for the JSON fixture")
	rounds := flag.Int("rounds", 1, "number of monthly update rounds")
	seed := flag.Uint64("seed", 1, "random seed")
	publish := flag.Bool("publish", false, "publish the updates to Kafka")
	brokers := flag.String("brokers", "localhost:9092", "comma-separated Kafka brokers")
	topic := flag.String("topic", "region-safety-updates", "Kafka topic")
	flag.Parse()

	if *out == "" && !*publish {
		flag.Usage()
		return fmt.Errorf("nothing to do: set -out and/or -publish")
	}
	if *rounds <= 0 {
		return fmt.Errorf("-rounds must be positive, got %d", *rounds)
	}

	ds, err := loadDataset(*datasetPath)
	if err != nil {
		return err
	}

	// A fake clock keeps the fixture stamps reproducible.
	clock := clockwork.NewFakeClockAt(baseDate)
	rng := rand.New(rand.NewPCG(*seed, *seed))
	updates := generate(ds.Regions, *rounds, clock, rng)
	log.Printf("generated %d updates for %d regions over %d rounds", len(updates), len(ds.Regions), *rounds)

	if *out != "" {
		if err := writeJSON(*out, updates); err != nil {
			return fmt.Errorf("writing fixture: %w", err)
		}
		log.Printf("wrote fixture: %s", *out)
	}

	if *publish {
		cfg := &config.Config{
			KafkaBrokers:      strings.Split(*brokers, ","),
			KafkaUpdatesTopic: *topic,
		}
		w := kafkaadapter.NewWriter(cfg, slog.Default())
		defer w.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := w.Publish(ctx, updates); err != nil {
			return err
		}
		log.Printf("published %d updates to %s", len(updates), *topic)
	}

	printStats(ds.Regions, updates)
	return nil
}

func loadDataset(path string) (domain.Dataset, error) {
	if path == "" {
		return domain.DefaultDataset()
	}
	return domain.LoadDatasetFile(path)
}

// generate returns rounds*len(regions) updates. Indices drift by up to ±3
// points and school counts by up to ±2%, clamped to valid ranges.
func generate(regions []domain.Region, rounds int, clock *clockwork.FakeClock, rng *rand.Rand) []domain.RegionUpdate {
	current := make([]domain.Region, len(regions))
	copy(current, regions)

	updates := make([]domain.RegionUpdate, 0, rounds*len(regions))
	for range rounds {
		now := clock.Now()
		asOf := now.Format("2006.01")
		for i, r := range current {
			index := math.Round((r.Index+(rng.Float64()*6-3))*10) / 10
			index = min(max(index, 0), domain.MaxIndex)
			schools := max(0, r.Schools+int(math.Round(float64(r.Schools)*(rng.Float64()*0.04-0.02))))

			u := domain.RegionUpdate{
				Code:      r.Code,
				Index:     index,
				Grade:     domain.GradeFor(index),
				Schools:   schools,
				AsOf:      asOf,
				UpdatedAt: now,
			}
			current[i] = u.Apply(r)
			updates = append(updates, u)
		}
		clock.Advance(now.AddDate(0, 1, 0).Sub(now))
	}
	return updates
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

func printStats(regions []domain.Region, updates []domain.RegionUpdate) {
	final := make([]domain.Region, len(regions))
	copy(final, regions)
	byCode := make(map[string]int, len(regions))
	for i, r := range regions {
		byCode[r.Code] = i
	}
	gradeChanges := 0
	for _, u := range updates {
		i := byCode[u.Code]
		if u.Grade != final[i].Grade {
			gradeChanges++
		}
		final[i] = u.Apply(final[i])
	}

	s := domain.Summarize(final, nil, updates[len(updates)-1].AsOf)
	p := message.NewPrinter(language.Korean)
	fmt.Println("\n=== Stats for updating test assertions ===")
	p.Printf("Updates: %d\n", len(updates))
	p.Printf("Grade changes: %d\n", gradeChanges)
	p.Printf("Final summary: schools=%d average=%.1f (%s) s_grade=%d (%.1f%%) as_of=%s\n",
		s.Schools, s.AverageIndex, s.AverageGrade, s.SGradeSchools, s.SGradeShare, s.AsOf)
}
