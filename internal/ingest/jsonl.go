package ingest

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"

	"main/internal/schema"
)

// jsonTick mirrors one line of a JSON-lines tick feed. Price comes in as a
// decimal string and is re-parsed to the scaled integer, so no float ever
// touches it.
type jsonTick struct {
	TimestampNs int64           `json:"ts"`
	Level       string          `json:"level"`
	Type        string          `json:"type"`
	Price       decimal.Decimal `json:"price"`
	Volume      int32           `json:"volume"`
	Contract    string          `json:"contract"`
	Operation   string          `json:"op,omitempty"`
	Depth       uint8           `json:"depth,omitempty"`
}

// JSONLSource decodes ticks from a JSON-lines file in bounded batches.
type JSONLSource struct {
	file    *os.File
	scanner *bufio.Scanner
	scale   schema.Scale
	line    int
	done    bool
}

// OpenJSONL opens a JSON-lines tick file. Prices are parsed at the given
// scale.
func OpenJSONL(path string, scale schema.Scale) (*JSONLSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open tick jsonl %s", path)
	}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &JSONLSource{file: file, scanner: scanner, scale: scale}, nil
}

// NextBatch returns up to max decoded ticks, nil at end of file.
func (s *JSONLSource) NextBatch(max int) ([]schema.Tick, error) {
	if s.done {
		return nil, nil
	}
	if max <= 0 {
		max = 1
	}

	batch := make([]schema.Tick, 0, max)
	for len(batch) < max {
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil && err != io.EOF {
				return nil, errors.Wrapf(ErrCorruptSource, "%s line %d: %v", s.file.Name(), s.line+1, err)
			}
			s.done = true
			break
		}
		s.line++
		raw := s.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var jt jsonTick
		if err := json.Unmarshal(raw, &jt); err != nil {
			return nil, errors.Wrapf(ErrCorruptSource, "%s line %d: %v", s.file.Name(), s.line, err)
		}
		tick, err := s.decode(jt)
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d", s.file.Name(), s.line)
		}
		batch = append(batch, tick)
	}
	if len(batch) == 0 {
		return nil, nil
	}
	return batch, nil
}

// Close releases the underlying file.
func (s *JSONLSource) Close() error {
	return s.file.Close()
}

func (s *JSONLSource) decode(jt jsonTick) (schema.Tick, error) {
	level, err := parseLevel(jt.Level)
	if err != nil {
		return schema.Tick{}, errors.Wrap(ErrCorruptSource, err.Error())
	}
	mdt, err := parseMarketDataType(jt.Type)
	if err != nil {
		return schema.Tick{}, errors.Wrap(ErrCorruptSource, err.Error())
	}
	price, err := ParsePrice(jt.Price.String(), s.scale)
	if err != nil {
		return schema.Tick{}, errors.Wrap(ErrCorruptSource, err.Error())
	}

	tick := schema.NewTick(level, mdt, jt.TimestampNs, price, jt.Volume, jt.Contract)
	if level == schema.LevelL2 {
		op, err := parseOperation(jt.Operation)
		if err != nil {
			return schema.Tick{}, errors.Wrap(ErrCorruptSource, err.Error())
		}
		depth := jt.Depth
		if depth == 0 {
			depth = 1
		}
		tick = tick.WithL2(op, depth)
	}
	return tick, nil
}
