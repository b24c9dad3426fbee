package recorder

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"main/internal/codec"
	"main/internal/schema"
)

var (
	ErrChecksumMismatch = errors.New("tick log checksum mismatch")
	ErrBadPayload       = errors.New("tick log payload does not decode")
)

// ReaderOptions controls record decoding.
type ReaderOptions struct {
	DisableChecksum bool
	MaxPayloadSize  int
}

// Reader decodes tick log records sequentially from one segment.
type Reader struct {
	r         *bufio.Reader
	opts      ReaderOptions
	headerBuf []byte
	payload   []byte
}

// NewReader wraps an io.Reader with tick log decoding.
func NewReader(r io.Reader, opts ReaderOptions) *Reader {
	return &Reader{
		r:         bufio.NewReader(r),
		opts:      opts,
		headerBuf: make([]byte, recordHeaderSize),
	}
}

// Next returns the next record header and payload.
// The payload is only valid until the next call to Next.
func (r *Reader) Next() (schema.EventHeader, []byte, error) {
	var header schema.EventHeader

	n, err := io.ReadFull(r.r, r.headerBuf)
	if err != nil {
		if err == io.EOF && n == 0 {
			return header, nil, io.EOF
		}
		return header, nil, err
	}

	header, payloadLen, err := decodeRecordHeader(r.headerBuf)
	if err != nil {
		return header, nil, err
	}
	if r.opts.MaxPayloadSize > 0 && payloadLen > uint32(r.opts.MaxPayloadSize) {
		return header, nil, ErrPayloadTooLarge
	}

	if payloadLen > 0 {
		if cap(r.payload) < int(payloadLen) {
			r.payload = make([]byte, payloadLen)
		}
		r.payload = r.payload[:payloadLen]
		if _, err := io.ReadFull(r.r, r.payload); err != nil {
			return header, nil, err
		}
	} else {
		r.payload = r.payload[:0]
	}

	var checksumBuf [recordChecksumSize]byte
	if _, err := io.ReadFull(r.r, checksumBuf[:]); err != nil {
		return header, nil, err
	}

	if !r.opts.DisableChecksum {
		expected := binary.LittleEndian.Uint32(checksumBuf[:])
		sum := checksum(r.headerBuf, r.payload)
		if sum != expected {
			return header, nil, ErrChecksumMismatch
		}
	}

	return header, r.payload, nil
}

// SegmentFiles lists the log segments under dir with the given prefix, in
// write order.
func SegmentFiles(dir, prefix string) ([]string, error) {
	if prefix == "" {
		prefix = defaultFilePrefix
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, ".tkl") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// ReadTicks loads every journaled tick under dir in write order. Non-tick
// records are skipped.
func ReadTicks(dir, prefix string, opts ReaderOptions) ([]schema.Tick, error) {
	files, err := SegmentFiles(dir, prefix)
	if err != nil {
		return nil, err
	}

	var ticks []schema.Tick
	for _, path := range files {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		r := NewReader(file, opts)
		for {
			header, payload, err := r.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				file.Close()
				return nil, err
			}
			if header.Type != schema.EventTick {
				continue
			}
			tick, ok := codec.DecodeTick(payload)
			if !ok {
				file.Close()
				return nil, ErrBadPayload
			}
			ticks = append(ticks, tick)
		}
		file.Close()
	}
	return ticks, nil
}
