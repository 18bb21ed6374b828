// Package codec implements the chain's canonical binary wire format: the
// single encoding every persisted or transmitted record uses. Integers are
// big-endian fixed-width, byte strings are length-prefixed, and sum types
// carry an explicit discriminant that unknown-version readers reject.
// Canonicality matters here because txids and merkle roots hash this exact
// byte sequence.
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// ErrTrailingBytes is returned by Reader.Finish when bytes remain unread.
var ErrTrailingBytes = errors.New("codec: trailing bytes after decode")

// ErrUnknownDiscriminant is returned when a sum type tag is not recognised.
var ErrUnknownDiscriminant = errors.New("codec: unknown discriminant")

// Writer accumulates a canonical binary encoding.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *Writer) WriteUint8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *Writer) WriteUint16(v uint16) {
	binary.Write(&w.buf, binary.BigEndian, v)
}

func (w *Writer) WriteUint32(v uint32) {
	binary.Write(&w.buf, binary.BigEndian, v)
}

func (w *Writer) WriteUint64(v uint64) {
	binary.Write(&w.buf, binary.BigEndian, v)
}

func (w *Writer) WriteInt64(v int64) {
	w.WriteUint64(uint64(v))
}

// WriteRaw appends bytes verbatim, with no length prefix. Used for
// fixed-size fields (public keys, digests, signatures) whose length is
// implied by the type.
func (w *Writer) WriteRaw(b []byte) {
	w.buf.Write(b)
}

// WriteBytes appends a 4-byte big-endian length prefix followed by b.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteUint32(uint32(len(b)))
	w.buf.Write(b)
}

// WriteBool writes a single byte: 1 for true, 0 for false.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

// Reader decodes a canonical binary encoding.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps data for sequential decoding.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining reports how many bytes are left to read.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Pos reports the current read offset, for error reporting by callers that
// parse a structured prefix (e.g. the script header table).
func (r *Reader) Pos() int {
	return r.pos
}

// Finish returns ErrTrailingBytes if bytes remain after decoding.
func (r *Reader) Finish() error {
	if r.Remaining() != 0 {
		return ErrTrailingBytes
	}
	return nil
}

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadRaw reads exactly n bytes verbatim and returns a copy.
func (r *Reader) ReadRaw(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// ReadBytes reads a 4-byte length prefix followed by that many bytes.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	return r.ReadRaw(int(n))
}

func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadUint8()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}
