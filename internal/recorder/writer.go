package recorder

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"main/internal/codec"
	"main/internal/schema"
)

var (
	ErrClosed          = errors.New("tick log writer closed")
	ErrPayloadTooLarge = errors.New("tick log payload too large")
)

const maxPayloadLen = uint64(^uint32(0))

// Writer appends records to tick log segments. It is synchronous and owned
// by the single goroutine that drives the run; buffering is handled by the
// segment's bufio layer.
type Writer struct {
	cfg Config

	file  *os.File
	buf   *bufio.Writer
	size  int64
	segID uint64

	headerBuf   [recordHeaderSize]byte
	checksumBuf [recordChecksumSize]byte
	payloadBuf  []byte

	seq       uint64
	sinceSync int
	closed    bool
}

// NewWriter creates a tick log writer and ensures the directory exists.
func NewWriter(cfg Config) (*Writer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	return &Writer{cfg: cfg, payloadBuf: make([]byte, 0, codec.FillPayloadSize)}, nil
}

// AppendTick journals one tick.
func (w *Writer) AppendTick(t schema.Tick) error {
	w.payloadBuf = codec.EncodeTick(w.payloadBuf[:0], t)
	return w.append(schema.EventTick, t.TimestampNs, w.payloadBuf)
}

// AppendFill journals one executed fill.
func (w *Writer) AppendFill(f codec.Fill) error {
	w.payloadBuf = codec.EncodeFill(w.payloadBuf[:0], f)
	return w.append(schema.EventFill, f.TimestampNs, w.payloadBuf)
}

// AppendEquity journals one equity observation.
func (w *Writer) AppendEquity(e codec.Equity) error {
	w.payloadBuf = codec.EncodeEquity(w.payloadBuf[:0], e)
	return w.append(schema.EventEquity, e.TimestampNs, w.payloadBuf)
}

// Append journals an arbitrary event payload.
func (w *Writer) Append(eventType schema.EventType, tsEvent int64, payload []byte) error {
	return w.append(eventType, tsEvent, payload)
}

func (w *Writer) append(eventType schema.EventType, tsEvent int64, payload []byte) error {
	if w.closed {
		return ErrClosed
	}
	if uint64(len(payload)) > maxPayloadLen {
		return ErrPayloadTooLarge
	}

	now := time.Now().UTC()
	recordSize := int64(recordHeaderSize + len(payload) + recordChecksumSize)
	if w.shouldRotate(recordSize) {
		if err := w.rotate(now); err != nil {
			return err
		}
	}

	w.seq++
	header := schema.NewHeader(eventType, w.seq, tsEvent, now.UnixNano())

	encodeHeader(w.headerBuf[:], header, len(payload))
	sum := checksum(w.headerBuf[:], payload)
	binary.LittleEndian.PutUint32(w.checksumBuf[:], sum)

	if _, err := w.buf.Write(w.headerBuf[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.buf.Write(payload); err != nil {
			return err
		}
	}
	if _, err := w.buf.Write(w.checksumBuf[:]); err != nil {
		return err
	}
	w.size += recordSize

	if w.cfg.SyncEvery > 0 {
		w.sinceSync++
		if w.sinceSync >= w.cfg.SyncEvery {
			w.sinceSync = 0
			return w.Sync()
		}
	}
	return nil
}

// Flush pushes buffered bytes to the OS.
func (w *Writer) Flush() error {
	if w.buf == nil {
		return nil
	}
	return w.buf.Flush()
}

// Sync flushes and fsyncs the current segment.
func (w *Writer) Sync() error {
	if w.file == nil {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close flushes, syncs, and closes the current segment.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.closeSegment()
}

func (w *Writer) shouldRotate(nextSize int64) bool {
	if w.file == nil {
		return true
	}
	return w.cfg.SegmentMaxBytes > 0 && w.size+nextSize > w.cfg.SegmentMaxBytes
}

func (w *Writer) rotate(now time.Time) error {
	if err := w.closeSegment(); err != nil {
		return err
	}
	ts := now.Format("20060102-150405")
	for {
		w.segID++
		name := fmt.Sprintf("%s-%s-%06d.tkl", w.cfg.FilePrefix, ts, w.segID)
		path := filepath.Join(w.cfg.Dir, name)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return err
		}
		w.file = file
		w.buf = bufio.NewWriterSize(file, w.cfg.BufferSize)
		w.size = 0
		return nil
	}
}

func (w *Writer) closeSegment() error {
	if w.file == nil {
		return nil
	}
	file := w.file
	w.file = nil
	if err := w.buf.Flush(); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
