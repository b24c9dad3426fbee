package recorder

import "fmt"

const (
	defaultSegmentMaxBytes int64 = 1 << 30
	defaultBufferSize            = 256 * 1024
	defaultFilePrefix            = "ticks"
)

// Config controls tick log writer behavior.
type Config struct {
	Dir             string
	SegmentMaxBytes int64
	BufferSize      int
	FilePrefix      string

	// SyncEvery fsyncs after this many records. Zero syncs only on
	// rotation and close.
	SyncEvery int
}

// DefaultConfig returns a baseline configuration for the tick log.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:             dir,
		SegmentMaxBytes: defaultSegmentMaxBytes,
		BufferSize:      defaultBufferSize,
		FilePrefix:      defaultFilePrefix,
	}
}

func (c Config) withDefaults() Config {
	if c.SegmentMaxBytes == 0 {
		c.SegmentMaxBytes = defaultSegmentMaxBytes
	}
	if c.BufferSize == 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.FilePrefix == "" {
		c.FilePrefix = defaultFilePrefix
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("invalid recorder config: Dir is empty")
	}
	if c.SegmentMaxBytes <= 0 {
		return fmt.Errorf("invalid recorder config: SegmentMaxBytes must be > 0")
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("invalid recorder config: BufferSize must be > 0")
	}
	if c.SyncEvery < 0 {
		return fmt.Errorf("invalid recorder config: SyncEvery must be >= 0")
	}
	return nil
}
