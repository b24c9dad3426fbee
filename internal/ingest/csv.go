package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/yanun0323/errors"

	"main/internal/schema"
)

// csvColumns is the required header of a tick CSV file.
var csvColumns = []string{"timestamp_ns", "level", "type", "price", "volume", "contract", "operation", "depth"}

// CSVSource decodes ticks from a CSV file in bounded batches, so peak
// memory follows batch size rather than file size.
type CSVSource struct {
	file   *os.File
	reader *csv.Reader
	scale  schema.Scale
	line   int
	done   bool
}

// OpenCSV opens a tick CSV file and verifies its header. Prices are parsed
// at the given scale.
func OpenCSV(path string, scale schema.Scale) (*CSVSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open tick csv %s", path)
	}
	r := csv.NewReader(file)
	r.FieldsPerRecord = len(csvColumns)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		file.Close()
		return nil, errors.Wrapf(ErrCorruptSource, "%s: missing header: %v", path, err)
	}
	for i, want := range csvColumns {
		if header[i] != want {
			file.Close()
			return nil, errors.Wrapf(ErrCorruptSource, "%s: header column %d is %q, want %q", path, i, header[i], want)
		}
	}
	return &CSVSource{file: file, reader: r, scale: scale, line: 1}, nil
}

// NextBatch returns up to max decoded ticks, nil at end of file.
func (s *CSVSource) NextBatch(max int) ([]schema.Tick, error) {
	if s.done {
		return nil, nil
	}
	if max <= 0 {
		max = 1
	}

	batch := make([]schema.Tick, 0, max)
	for len(batch) < max {
		record, err := s.reader.Read()
		if err == io.EOF {
			s.done = true
			break
		}
		s.line++
		if err != nil {
			return nil, errors.Wrapf(ErrCorruptSource, "%s line %d: %v", s.file.Name(), s.line, err)
		}
		tick, err := s.decode(record)
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
func (s *CSVSource) Close() error {
	return s.file.Close()
}

func (s *CSVSource) decode(record []string) (schema.Tick, error) {
	ts, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return schema.Tick{}, errors.Wrap(ErrCorruptSource, "timestamp "+record[0])
	}
	level, err := parseLevel(record[1])
	if err != nil {
		return schema.Tick{}, errors.Wrap(ErrCorruptSource, err.Error())
	}
	mdt, err := parseMarketDataType(record[2])
	if err != nil {
		return schema.Tick{}, errors.Wrap(ErrCorruptSource, err.Error())
	}
	price, err := ParsePrice(record[3], s.scale)
	if err != nil {
		return schema.Tick{}, errors.Wrap(ErrCorruptSource, err.Error())
	}
	volume, err := strconv.ParseInt(record[4], 10, 32)
	if err != nil {
		return schema.Tick{}, errors.Wrap(ErrCorruptSource, "volume "+record[4])
	}

	tick := schema.NewTick(level, mdt, ts, price, int32(volume), record[5])
	if level == schema.LevelL2 {
		op, err := parseOperation(record[6])
		if err != nil {
			return schema.Tick{}, errors.Wrap(ErrCorruptSource, err.Error())
		}
		depth := uint64(1)
		if record[7] != "" {
			depth, err = strconv.ParseUint(record[7], 10, 8)
			if err != nil {
				return schema.Tick{}, errors.Wrap(ErrCorruptSource, "depth "+record[7])
			}
		}
		tick = tick.WithL2(op, uint8(depth))
	}
	return tick, nil
}
