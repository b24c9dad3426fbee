package ingest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/yanun0323/errors"

	"main/internal/schema"
)

// FormatPrice renders a scaled integer back into the decimal string the
// feed formats carry, the exact inverse of ParsePrice.
func FormatPrice(p schema.Price, scale schema.Scale) string {
	v := int64(p)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	if scale <= 0 {
		return sign + strconv.FormatInt(v, 10)
	}
	div := int64(1)
	for i := schema.Scale(0); i < scale; i++ {
		div *= 10
	}
	whole := v / div
	frac := v % div
	return sign + strconv.FormatInt(whole, 10) + "." + leftPadZeros(strconv.FormatInt(frac, 10), int(scale))
}

func leftPadZeros(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func mdtName(t schema.MarketDataType) string {
	for name, mdt := range mdtByName {
		if mdt == t {
			return name
		}
	}
	return ""
}

func levelName(l schema.DataLevel) string {
	switch l {
	case schema.LevelL1:
		return "L1"
	case schema.LevelL2:
		return "L2"
	default:
		return ""
	}
}

func operationName(op schema.BookOperation) string {
	switch op {
	case schema.OpAdd:
		return "add"
	case schema.OpUpdate:
		return "update"
	case schema.OpRemove:
		return "remove"
	default:
		return ""
	}
}

// CSVWriter emits ticks in the feed's CSV layout.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	scale  schema.Scale
}

// CreateCSV creates a tick CSV file and writes its header.
func CreateCSV(path string, scale schema.Scale) (*CSVWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create tick csv %s", path)
	}
	writer := csv.NewWriter(file)
	if err := writer.Write(csvColumns); err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, "write csv header")
	}
	return &CSVWriter{file: file, writer: writer, scale: scale}, nil
}

// WriteTick appends one tick row.
func (w *CSVWriter) WriteTick(t schema.Tick) error {
	name := mdtName(t.Type)
	if name == "" {
		return errors.Errorf("unencodable market data type %d", t.Type)
	}
	depth := ""
	if t.Level == schema.LevelL2 {
		depth = strconv.Itoa(int(t.Depth))
	}
	row := []string{
		strconv.FormatInt(t.TimestampNs, 10),
		levelName(t.Level),
		name,
		FormatPrice(t.Price, w.scale),
		strconv.FormatInt(int64(t.Volume), 10),
		t.Contract(),
		operationName(t.Operation),
		depth,
	}
	return errors.Wrap(w.writer.Write(row), "write csv row")
}

// Close flushes and closes the file.
func (w *CSVWriter) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		_ = w.file.Close()
		return errors.Wrap(err, "flush tick csv")
	}
	return w.file.Close()
}

// JSONLWriter emits ticks in the feed's JSON-lines layout.
type JSONLWriter struct {
	file   *os.File
	writer *bufio.Writer
	scale  schema.Scale
}

// CreateJSONL creates a JSON-lines tick file.
func CreateJSONL(path string, scale schema.Scale) (*JSONLWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create tick jsonl %s", path)
	}
	return &JSONLWriter{file: file, writer: bufio.NewWriter(file), scale: scale}, nil
}

// jsonTickOut mirrors jsonTick on the write side. Price goes out as a
// decimal string, which the read side re-parses to the scaled integer.
type jsonTickOut struct {
	TimestampNs int64  `json:"ts"`
	Level       string `json:"level"`
	Type        string `json:"type"`
	Price       string `json:"price"`
	Volume      int32  `json:"volume"`
	Contract    string `json:"contract"`
	Operation   string `json:"op,omitempty"`
	Depth       uint8  `json:"depth,omitempty"`
}

// WriteTick appends one tick line.
func (w *JSONLWriter) WriteTick(t schema.Tick) error {
	name := mdtName(t.Type)
	if name == "" {
		return errors.Errorf("unencodable market data type %d", t.Type)
	}
	jt := jsonTickOut{
		TimestampNs: t.TimestampNs,
		Level:       levelName(t.Level),
		Type:        name,
		Price:       FormatPrice(t.Price, w.scale),
		Volume:      t.Volume,
		Contract:    t.Contract(),
		Operation:   operationName(t.Operation),
	}
	if t.Level == schema.LevelL2 {
		jt.Depth = t.Depth
	}
	line, err := json.Marshal(jt)
	if err != nil {
		return errors.Wrap(err, "encode tick line")
	}
	if _, err := w.writer.Write(line); err != nil {
		return errors.Wrap(err, "write tick line")
	}
	return errors.Wrap(w.writer.WriteByte('\n'), "write tick line")
}

// Close flushes and closes the file.
func (w *JSONLWriter) Close() error {
	if err := w.writer.Flush(); err != nil {
		_ = w.file.Close()
		return errors.Wrap(err, "flush tick jsonl")
	}
	return w.file.Close()
}
