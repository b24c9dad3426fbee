package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"main/internal/ingest"
	"main/internal/mdg"
	"main/internal/recorder"
	"main/internal/schema"
)

func main() {
	if err := run(); err != nil {
		log.Printf("tickgen: %v", err)
		os.Exit(1)
	}
}

func run() error {
	out := flag.String("out", "", "Output file (.csv or .jsonl) or directory for -ticklog")
	ticklog := flag.Bool("ticklog", false, "Write a binary tick log instead of a text feed")
	count := flag.Int("count", 100_000, "Number of ticks to generate")
	contract := flag.String("contract", "H25", "Contract month code")
	basePrice := flag.String("base-price", "4500.00", "Starting price as a decimal string")
	minTick := flag.String("min-tick", "0.25", "Minimum price increment as a decimal string")
	scale := flag.Int("scale", 2, "Price scale (decimal digits)")
	seed := flag.Int64("seed", 1, "Generator seed")
	interval := flag.Duration("interval", time.Millisecond, "Synthetic inter-tick interval")
	levels := flag.Int("levels", 5, "Book levels per side")
	maxVolume := flag.Int("max-volume", 100, "Per-level volume bound, exclusive")
	flag.Parse()

	if *out == "" {
		return errors.New("missing output; use -out")
	}
	if *count <= 0 {
		return fmt.Errorf("count must be > 0: %d", *count)
	}

	priceScale := schema.Scale(*scale)
	base, err := ingest.ParsePrice(*basePrice, priceScale)
	if err != nil {
		return fmt.Errorf("bad base price: %w", err)
	}
	tick, err := ingest.ParsePrice(*minTick, priceScale)
	if err != nil {
		return fmt.Errorf("bad min tick: %w", err)
	}

	gen, err := mdg.NewGenerator(mdg.Config{
		Contract:   *contract,
		BasePrice:  base,
		MinTick:    tick,
		Levels:     *levels,
		StartNs:    time.Now().UTC().UnixNano(),
		IntervalNs: interval.Nanoseconds(),
		MaxVolume:  int32(*maxVolume),
		Seed:       *seed,
	})
	if err != nil {
		return err
	}

	if *ticklog {
		return writeTickLog(gen, *out, *count)
	}
	return writeFeed(gen, *out, priceScale, *count)
}

func writeFeed(gen *mdg.Generator, path string, scale schema.Scale, count int) error {
	var (
		writer interface {
			WriteTick(schema.Tick) error
			Close() error
		}
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		writer, err = ingest.CreateCSV(path, scale)
	case ".jsonl":
		writer, err = ingest.CreateJSONL(path, scale)
	default:
		return fmt.Errorf("unsupported feed format: %s", path)
	}
	if err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		if err := writer.WriteTick(gen.Next()); err != nil {
			_ = writer.Close()
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}
	log.Printf("wrote %d ticks: %s", count, path)
	return nil
}

func writeTickLog(gen *mdg.Generator, dir string, count int) error {
	w, err := recorder.NewWriter(recorder.DefaultConfig(dir))
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		if err := w.AppendTick(gen.Next()); err != nil {
			_ = w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	log.Printf("wrote %d ticks to tick log: %s", count, dir)
	return nil
}
