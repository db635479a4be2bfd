package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"table-booking/internal/model"
)

// Writes two gzipped JSON-lines catalog files. The second file overrides
// EV-SUNDAY-LUNCH from the first, so loading both in order exercises the merge.
func main() {
	dataDir := "data/events"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	base := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 14)
	at := func(days, hour int) time.Time {
		return base.AddDate(0, 0, days).Add(time.Duration(hour) * time.Hour)
	}

	files := map[string][]model.Event{
		"events.jsonl.gz": {
			{Ref: "EV-CHEFS-TABLE", Label: "Chef's table", Tier: "standard", Date: at(0, 19), PriceCents: 8500},
			{Ref: "EV-CHEFS-TABLE-VIP", Label: "Chef's table", Tier: "vip", Date: at(0, 19), PriceCents: 12500},
			{Ref: "EV-WINE-TASTING", Label: "Wine tasting", Date: at(3, 18), PriceCents: 0, EmailOnly: true},
			{Ref: "EV-SUNDAY-LUNCH", Label: "Sunday lunch", Date: at(6, 12), PriceCents: 3500},
		},
		"events-override.jsonl.gz": {
			{Ref: "EV-SUNDAY-LUNCH", Label: "Sunday lunch", Tier: "family", Date: at(6, 13), PriceCents: 3000},
			{Ref: "EV-COOKING-CLASS", Label: "Cooking class", Date: at(10, 10), PriceCents: 4000, EmailOnly: true},
		},
	}

	for filename, events := range files {
		filePath := filepath.Join(dataDir, filename)

		if err := createEventFile(filePath, events); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d events\n", filePath, len(events))
	}

	fmt.Println("\nSample event files created successfully!")
	fmt.Println("Load them in order with:")
	fmt.Printf("  EVENT_FILES=%s,%s\n",
		filepath.Join(dataDir, "events.jsonl.gz"),
		filepath.Join(dataDir, "events-override.jsonl.gz"))
}

func createEventFile(filePath string, events []model.Event) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	enc := json.NewEncoder(gzipWriter)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("failed to write event %s: %w", ev.Ref, err)
		}
	}

	return nil
}
