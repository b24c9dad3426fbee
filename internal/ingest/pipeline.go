package ingest

import (
	"context"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/obs"
	"main/internal/recorder"
	"main/internal/schema"
	"main/internal/validate"
)

// Source yields decoded ticks in bounded batches. A nil batch with nil
// error marks the end of the feed.
type Source interface {
	NextBatch(max int) ([]schema.Tick, error)
}

// PipelineConfig wires a decode source to a downstream consumer.
type PipelineConfig struct {
	// BatchSize bounds each pull; cancellation is checked per batch.
	BatchSize int

	// HaltOnInvalid stops the feed on the first invalid tick instead of
	// dropping it.
	HaltOnInvalid bool
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 10_000
	}
	return c
}

// Pipeline pulls ticks from a source, validates them, optionally journals
// them, and hands valid batches to the consumer in feed order.
type Pipeline struct {
	cfg       PipelineConfig
	src       Source
	validator *validate.Validator
	journal   *recorder.Writer
	metrics   *obs.Metrics
}

// NewPipeline builds a pipeline. journal may be nil to skip journaling;
// metrics may be nil.
func NewPipeline(cfg PipelineConfig, src Source, v *validate.Validator, journal *recorder.Writer, metrics *obs.Metrics) *Pipeline {
	if metrics == nil {
		metrics = obs.NewMetrics()
	}
	return &Pipeline{
		cfg:       cfg.withDefaults(),
		src:       src,
		validator: v,
		journal:   journal,
		metrics:   metrics,
	}
}

// Run drives the feed to completion, calling consume once per batch of
// valid ticks. Cancellation is honored between batches only.
func (p *Pipeline) Run(ctx context.Context, consume func([]schema.Tick) error) error {
	index := 0
	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "ingest canceled at tick %d", index)
		}

		batch, err := p.src.NextBatch(p.cfg.BatchSize)
		if err != nil {
			return errors.Wrapf(err, "ingest at tick %d", index)
		}
		if len(batch) == 0 {
			return nil
		}

		outcomes := p.validator.ValidateBatchParallel(batch)
		valid := batch[:0:len(batch)]
		for i := range batch {
			if !outcomes[i].Valid {
				p.metrics.AddTicksRejected(1)
				if p.cfg.HaltOnInvalid {
					return errors.Errorf("invalid tick %d, contract %s, ts %d: %v",
						index+i, batch[i].Contract(), batch[i].TimestampNs, outcomes[i].Errors)
				}
				logs.Errorf("drop invalid tick %d: %v", index+i, outcomes[i].Errors)
				continue
			}
			valid = append(valid, batch[i])
		}

		if p.journal != nil {
			for i := range valid {
				if err := p.journal.AppendTick(valid[i]); err != nil {
					return errors.Wrapf(err, "journal tick %d", index+i)
				}
			}
		}

		p.metrics.AddTicksIngested(len(valid))
		index += len(batch)

		if len(valid) > 0 {
			if err := consume(valid); err != nil {
				return errors.Wrapf(err, "consume batch ending at tick %d", index)
			}
		}
	}
}

// Metrics returns the pipeline counters.
func (p *Pipeline) Metrics() *obs.Metrics {
	return p.metrics
}
