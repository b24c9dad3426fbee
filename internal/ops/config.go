package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"main/internal/backtest"
	"main/internal/recorder"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/validate"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Registry   RegistryConfig   `json:"registry"`
	Validation ValidationConfig `json:"validation"`
	Backtest   backtest.Config  `json:"backtest"`
	Risk       risk.Config      `json:"risk"`
	Pipeline   PipelineConfig   `json:"pipeline"`
	Journal    JournalConfig    `json:"journal"`
	Database   DatabaseConfig   `json:"database"`
}

// RegistryConfig defines the instrument universe.
type RegistryConfig struct {
	Instruments []InstrumentConfig `json:"instruments"`
}

// InstrumentConfig describes one contract entry.
type InstrumentConfig struct {
	Contract      string           `json:"contract"`
	Scale         schema.ScaleSpec `json:"scale"`
	MinTick       schema.Price     `json:"minTick"`
	PriceBandLow  schema.Price     `json:"priceBandLow"`
	PriceBandHigh schema.Price     `json:"priceBandHigh"`
}

// ValidationConfig selects the validation level and its knobs.
type ValidationConfig struct {
	Level                string       `json:"level"`
	Workers              int          `json:"workers"`
	DefaultPriceBandLow  schema.Price `json:"defaultPriceBandLow"`
	DefaultPriceBandHigh schema.Price `json:"defaultPriceBandHigh"`
	MaxGapNs             int64        `json:"maxGapNs"`
}

// PipelineConfig tunes the ingest pipeline.
type PipelineConfig struct {
	BatchSize     int  `json:"batchSize"`
	HaltOnInvalid bool `json:"haltOnInvalid"`
}

// JournalConfig enables and tunes the tick journal.
type JournalConfig struct {
	Enabled         bool   `json:"enabled"`
	Dir             string `json:"dir"`
	SegmentMaxBytes int64  `json:"segmentMaxBytes"`
	BufferSize      int    `json:"bufferSize"`
	FilePrefix      string `json:"filePrefix"`
	SyncEvery       int    `json:"syncEvery"`
}

// DatabaseConfig points at the result store. An empty DSN disables it.
type DatabaseConfig struct {
	DSN string `json:"dsn"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Registry   *schema.Registry
	Validation validate.Config
	Backtest   backtest.Config
	Risk       risk.Config
	Pipeline   PipelineConfig
	Journal    JournalConfig
	Database   DatabaseConfig
}

// WriterConfig maps the journal section onto the recorder, filling
// recorder defaults for fields the file leaves unset.
func (c JournalConfig) WriterConfig() recorder.Config {
	cfg := recorder.DefaultConfig(c.Dir)
	if c.SegmentMaxBytes != 0 {
		cfg.SegmentMaxBytes = c.SegmentMaxBytes
	}
	if c.BufferSize != 0 {
		cfg.BufferSize = c.BufferSize
	}
	if c.FilePrefix != "" {
		cfg.FilePrefix = c.FilePrefix
	}
	cfg.SyncEvery = c.SyncEvery
	return cfg
}

// Load reads a JSON config file and resolves every section.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	registry, err := buildRegistry(cfg.Registry)
	if err != nil {
		return Loaded{}, err
	}
	vcfg, err := resolveValidation(cfg.Validation)
	if err != nil {
		return Loaded{}, err
	}
	if cfg.Journal.Enabled {
		if err := cfg.Journal.WriterConfig().Validate(); err != nil {
			return Loaded{}, fmt.Errorf("invalid journal config: %w", err)
		}
	}
	return Loaded{
		Registry:   registry,
		Validation: vcfg,
		Backtest:   cfg.Backtest,
		Risk:       cfg.Risk,
		Pipeline:   cfg.Pipeline,
		Journal:    cfg.Journal,
		Database:   cfg.Database,
	}, nil
}

// LoadRegistry reads a JSON config file and only builds the registry.
func LoadRegistry(path string) (*schema.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return buildRegistry(cfg.Registry)
}

func buildRegistry(cfg RegistryConfig) (*schema.Registry, error) {
	reg := schema.NewRegistry()
	for _, inst := range cfg.Instruments {
		if err := validateScale(inst.Scale); err != nil {
			return nil, fmt.Errorf("invalid scale for %s: %w", inst.Contract, err)
		}
		if inst.PriceBandLow < 0 || inst.PriceBandHigh < 0 || inst.PriceBandLow > inst.PriceBandHigh {
			return nil, fmt.Errorf("invalid price band for %s: [%d, %d]", inst.Contract, inst.PriceBandLow, inst.PriceBandHigh)
		}
		if _, err := reg.AddInstrument(schema.Instrument{
			Contract:      inst.Contract,
			Scale:         inst.Scale,
			MinTick:       inst.MinTick,
			PriceBandLow:  inst.PriceBandLow,
			PriceBandHigh: inst.PriceBandHigh,
		}); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func validateScale(scale schema.ScaleSpec) error {
	if scale.PriceScale < 0 || scale.NotionalScale < 0 {
		return fmt.Errorf("scale must be >= 0")
	}
	return nil
}

func resolveValidation(cfg ValidationConfig) (validate.Config, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return validate.Config{}, err
	}
	if cfg.Workers < 0 {
		return validate.Config{}, fmt.Errorf("validation workers must be >= 0: %d", cfg.Workers)
	}
	return validate.Config{
		Level:                level,
		Workers:              cfg.Workers,
		DefaultPriceBandLow:  cfg.DefaultPriceBandLow,
		DefaultPriceBandHigh: cfg.DefaultPriceBandHigh,
		MaxGapNs:             cfg.MaxGapNs,
	}, nil
}

func parseLevel(name string) (validate.Level, error) {
	switch strings.ToLower(name) {
	case "none":
		return validate.LevelNone, nil
	case "basic":
		return validate.LevelBasic, nil
	case "", "standard":
		return validate.LevelStandard, nil
	case "strict":
		return validate.LevelStrict, nil
	default:
		return 0, fmt.Errorf("unknown validation level: %s", name)
	}
}
