package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"main/internal/book"
	"main/internal/codec"
	"main/internal/recorder"
	"main/internal/schema"
)

func main() {
	if err := run(); err != nil {
		log.Printf("replay: %v", err)
		os.Exit(1)
	}
}

func run() error {
	dir := flag.String("dir", "testdata/ticks", "Tick log directory")
	prefix := flag.String("prefix", "", "Tick log file prefix (default: ticks)")
	speed := flag.Float64("speed", 0, "Playback speed (1=real-time, 0=no pacing)")
	noChecksum := flag.Bool("no-checksum", false, "Disable checksum validation")
	maxPayload := flag.Int("max-payload", 0, "Max payload size in bytes (0=unlimited)")
	rebuild := flag.Bool("rebuild", false, "Rebuild the order book while replaying")
	verbose := flag.Bool("v", false, "Print every record")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pb, err := recorder.NewPlayback(recorder.PlaybackConfig{
		Dir:             *dir,
		FilePrefix:      *prefix,
		Speed:           *speed,
		DisableChecksum: *noChecksum,
		MaxPayloadSize:  *maxPayload,
	})
	if err != nil {
		return err
	}

	counts := make(map[schema.EventType]int)
	var recon *book.Reconstructor
	var index int
	err = pb.Run(ctx, func(header schema.EventHeader, payload []byte) error {
		index++
		counts[header.Type]++
		if *verbose {
			fmt.Printf("%06d seq=%d type=%s ts_event=%d len=%d\n", index, header.Seq, eventTypeName(header.Type), header.TsEvent, len(payload))
		}
		if header.Type != schema.EventTick {
			return nil
		}
		tick, ok := codec.DecodeTick(payload)
		if !ok {
			return fmt.Errorf("decode tick failed at seq %d", header.Seq)
		}
		if *verbose {
			fmt.Printf("  tick contract=%s type=%s price=%d volume=%d\n", tick.Contract(), tick.Type, tick.Price, tick.Volume)
		}
		if *rebuild {
			if recon == nil {
				recon = book.NewReconstructor(book.New(tick.Contract()))
			}
			if err := recon.Process(tick); err != nil {
				return fmt.Errorf("apply tick seq %d: %w", header.Seq, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("replay completed: records=%d counts=%v", index, counts)
	if recon != nil {
		printBook(recon)
	}
	return nil
}

func printBook(recon *book.Reconstructor) {
	snap := recon.Book().Snapshot()
	stats := recon.Stats()
	log.Printf("book %s: updates=%d trades=%d quotes=%d informational=%d",
		snap.Contract, stats.TotalUpdates, stats.Trades, stats.QuoteUpdates, stats.Informational)

	bid, hasBid := snap.BestBid()
	ask, hasAsk := snap.BestAsk()
	if hasBid {
		log.Printf("best bid: %d x %d", bid.Price, bid.Quantity)
	}
	if hasAsk {
		log.Printf("best ask: %d x %d", ask.Price, ask.Quantity)
	}
	if spread, ok := snap.Spread(); ok {
		log.Printf("spread=%d min=%d max=%d", spread, stats.MinSpread, stats.MaxSpread)
	}
	bids, asks := len(snap.Bids), len(snap.Asks)
	log.Printf("depth: bids=%d asks=%d bid_volume=%d ask_volume=%d", bids, asks, snap.TotalBidVolume(), snap.TotalAskVolume())
}

func eventTypeName(t schema.EventType) string {
	switch t {
	case schema.EventTick:
		return "Tick"
	case schema.EventFill:
		return "Fill"
	case schema.EventEquity:
		return "Equity"
	case schema.EventCheckpoint:
		return "Checkpoint"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}
