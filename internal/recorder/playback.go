package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"main/internal/schema"
)

// PlaybackConfig controls tick log playback behavior.
type PlaybackConfig struct {
	Dir        string
	FilePrefix string

	// Speed scales inter-event pacing by the recorded event timestamps.
	// Zero replays as fast as possible; 1 replays in recorded time.
	Speed float64

	DisableChecksum bool
	MaxPayloadSize  int
}

// Validate checks if the config is usable.
func (c PlaybackConfig) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("invalid playback config: Dir is empty")
	}
	if c.Speed < 0 {
		return fmt.Errorf("invalid playback config: Speed must be >= 0")
	}
	if c.MaxPayloadSize < 0 {
		return fmt.Errorf("invalid playback config: MaxPayloadSize must be >= 0")
	}
	return nil
}

// Clock allows deterministic playback control in tests.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Playback replays tick log records in file order.
type Playback struct {
	cfg   PlaybackConfig
	clock Clock
}

// NewPlayback validates the config and creates a playback engine.
func NewPlayback(cfg PlaybackConfig) (*Playback, error) {
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = defaultFilePrefix
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Playback{cfg: cfg, clock: realClock{}}, nil
}

// WithClock swaps the clock implementation.
func (p *Playback) WithClock(clock Clock) *Playback {
	if clock != nil {
		p.clock = clock
	}
	return p
}

// Run replays records and calls the handler for each event. The payload is
// only valid for the duration of the call.
func (p *Playback) Run(ctx context.Context, handler func(schema.EventHeader, []byte) error) error {
	if handler == nil {
		return errors.New("playback handler is nil")
	}
	files, err := SegmentFiles(p.cfg.Dir, p.cfg.FilePrefix)
	if err != nil {
		return err
	}

	var prevTS int64
	for _, path := range files {
		if err := p.playFile(ctx, path, handler, &prevTS); err != nil {
			return err
		}
	}
	return nil
}

func (p *Playback) playFile(ctx context.Context, path string, handler func(schema.EventHeader, []byte) error, prevTS *int64) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	r := NewReader(file, ReaderOptions{
		DisableChecksum: p.cfg.DisableChecksum,
		MaxPayloadSize:  p.cfg.MaxPayloadSize,
	})
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		header, payload, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("playback %s: %w", path, err)
		}

		if p.cfg.Speed > 0 && *prevTS > 0 && header.TsEvent > *prevTS {
			gap := time.Duration(float64(header.TsEvent-*prevTS) / p.cfg.Speed)
			if err := p.clock.Sleep(ctx, gap); err != nil {
				return err
			}
		}
		if header.TsEvent > 0 {
			*prevTS = header.TsEvent
		}

		if err := handler(header, payload); err != nil {
			return err
		}
	}
}
