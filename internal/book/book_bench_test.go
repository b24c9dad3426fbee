package book

import (
	"testing"

	"main/internal/schema"
)

// benchFeed cycles adds, updates, and removes across ten levels per side
// around a fixed mid, with a trade every tenth tick.
func benchFeed(n int) []schema.Tick {
	ticks := make([]schema.Tick, 0, n)
	for i := 1; i <= n; i++ {
		ts := int64(i) * 1_000
		if i%10 == 0 {
			ticks = append(ticks, schema.NewTick(schema.LevelL1, schema.MDTTrade, ts, 450_000, 2, "H25"))
			continue
		}
		depth := uint8(1 + i%10)
		offset := schema.Price(int64(depth)) * 25
		op := schema.OpAdd
		volume := int32(5 + i%20)
		switch i % 7 {
		case 0:
			op = schema.OpUpdate
		case 1:
			op = schema.OpRemove
			volume = 0
		}
		if i%2 == 0 {
			ticks = append(ticks, schema.NewTick(schema.LevelL2, schema.MDTAskQuote, ts, 450_025+offset, volume, "H25").
				WithL2(op, depth))
		} else {
			ticks = append(ticks, schema.NewTick(schema.LevelL2, schema.MDTBidQuote, ts, 450_000-offset, volume, "H25").
				WithL2(op, depth))
		}
	}
	return ticks
}

func BenchmarkReconstructorProcess1K(b *testing.B) {
	feed := benchFeed(1_000)
	r := NewReconstructor(New("H25"))
	b.ReportAllocs()
	for b.Loop() {
		for i := range feed {
			if err := r.Process(feed[i]); err != nil {
				b.Fatalf("Process: %v", err)
			}
		}
	}
}

func BenchmarkSnapshot(b *testing.B) {
	r := NewReconstructor(New("H25"))
	for _, tk := range benchFeed(500) {
		if err := r.Process(tk); err != nil {
			b.Fatalf("Process: %v", err)
		}
	}
	b.ReportAllocs()
	for b.Loop() {
		s := r.Book().Snapshot()
		_ = s
	}
}
