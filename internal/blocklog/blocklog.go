// Package blocklog implements the node's append-only block storage: a
// flat file of back-to-back length-and-checksum-framed records, with
// random-access reads by byte offset and a forward reindex pass that
// tolerates a truncated tail frame.
package blocklog

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"os"
	"sync"
)

const frameHeaderSize = 8

var crcTable = crc32.MakeTable(crc32.Castagnoli)

var (
	// ErrCorruptFrame is returned by ReadAt/Reindex when a frame's CRC does
	// not match its body, or the frame runs past the end of the file, and
	// by Reindex (without auto-trim) when two consecutive frames do not
	// carry consecutive heights.
	ErrCorruptFrame = errors.New("blocklog: corrupt frame")
	// ErrHeightGap names a non-monotonic block height. Reindex reports a
	// height gap as ErrCorruptFrame and does not return this value.
	ErrHeightGap = errors.New("blocklog: non-monotonic block height")
)

// Log is a single-writer, multi-reader append log. Callers serialize
// writes themselves (the ledger engine's mutex); Log only guards its own
// file-offset bookkeeping.
type Log struct {
	mu   sync.Mutex
	f    *os.File
	size int64
}

// Open opens (creating if absent) the log file at path.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Log{f: f, size: info.Size()}, nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	return l.f.Close()
}

// Size returns the current length of the log in bytes.
func (l *Log) Size() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Append writes one framed record and fsyncs before returning, so a
// caller that records the returned offset in the index is guaranteed the
// frame is durable. Returns the byte offset the frame was written at.
func (l *Log) Append(body []byte) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	offset := l.size
	var header [frameHeaderSize]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(len(body)))
	binary.BigEndian.PutUint32(header[4:8], crc32.Checksum(body, crcTable))

	if _, err := l.f.WriteAt(header[:], offset); err != nil {
		return 0, err
	}
	if _, err := l.f.WriteAt(body, offset+frameHeaderSize); err != nil {
		return 0, err
	}
	if err := l.f.Sync(); err != nil {
		return 0, err
	}
	l.size = offset + frameHeaderSize + int64(len(body))
	return offset, nil
}

// ReadAt decodes the frame starting at offset, verifying its checksum.
func (l *Log) ReadAt(offset int64) ([]byte, error) {
	header := make([]byte, frameHeaderSize)
	if _, err := l.f.ReadAt(header, offset); err != nil {
		return nil, ErrCorruptFrame
	}
	n := binary.BigEndian.Uint32(header[0:4])
	wantCRC := binary.BigEndian.Uint32(header[4:8])

	body := make([]byte, n)
	if _, err := l.f.ReadAt(body, offset+frameHeaderSize); err != nil {
		return nil, ErrCorruptFrame
	}
	if crc32.Checksum(body, crcTable) != wantCRC {
		return nil, ErrCorruptFrame
	}
	return body, nil
}

// truncateTo shrinks the log to exactly n bytes, used by Reindex to drop
// a trailing partial or corrupt frame.
func (l *Log) truncateTo(n int64) error {
	if err := l.f.Truncate(n); err != nil {
		return err
	}
	l.size = n
	return nil
}

// OnFrame is called once per well-formed frame found during Reindex, in
// file order, with the frame's byte offset and raw body. It returns the
// block height the body decodes to, so Reindex can check monotonicity
// without itself understanding the block wire format.
type OnFrame func(offset int64, body []byte) (height uint64, err error)

// Reindex walks the log front-to-back, invoking onFrame for every
// well-formed, height-monotonic frame. A short/corrupt trailing frame or
// a height gap is handled by truncating the log to the last known-good
// frame when autoTrim is set, and by returning an error otherwise. EOF
// after zero or more good frames is always a successful return.
func (l *Log) Reindex(autoTrim bool, onFrame OnFrame) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var offset int64
	haveHeight := false
	var lastHeight uint64

	for offset < l.size {
		header := make([]byte, frameHeaderSize)
		if _, err := l.f.ReadAt(header, offset); err != nil {
			return l.handleBadFrame(offset, autoTrim)
		}
		n := int64(binary.BigEndian.Uint32(header[0:4]))
		wantCRC := binary.BigEndian.Uint32(header[4:8])

		if offset+frameHeaderSize+n > l.size {
			return l.handleBadFrame(offset, autoTrim)
		}
		body := make([]byte, n)
		if _, err := l.f.ReadAt(body, offset+frameHeaderSize); err != nil {
			return l.handleBadFrame(offset, autoTrim)
		}
		if crc32.Checksum(body, crcTable) != wantCRC {
			return l.handleBadFrame(offset, autoTrim)
		}

		height, err := onFrame(offset, body)
		if err != nil {
			return err
		}
		if haveHeight && height != lastHeight+1 {
			return l.handleBadFrame(offset, autoTrim)
		}
		haveHeight = true
		lastHeight = height
		offset += frameHeaderSize + n
	}
	return nil
}

func (l *Log) handleBadFrame(offset int64, autoTrim bool) error {
	if autoTrim {
		return l.truncateTo(offset)
	}
	return ErrCorruptFrame
}
