// Package wire implements the primitive field codec for the rule-set
// binary format.
//
// All integers are unsigned little-endian. Field identifiers occupy a
// fixed-width block, right-padded with NUL bytes. Variable-length blobs
// carry a 4-byte little-endian length prefix. Everything higher up the
// stack (variant payloads, composite framing, the envelope) is built from
// these primitives.
//
// Writers never fail on integers or raw bytes; the only encode-time error
// is an identifier exceeding its fixed width. Readers fail with
// types.ErrTruncatedInput whenever fewer bytes remain than a field
// requires, and never consume past a failed read.
package wire

import (
	"bytes"
	"encoding/binary"

	"github.com/solatis/gatekeeper/internal/types"
)

// Writer accumulates a wire encoding in an append-only buffer.
// The zero value is ready to use.
type Writer struct {
	buf []byte
}

// U32 appends a 4-byte little-endian unsigned integer.
func (w *Writer) U32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// U64 appends an 8-byte little-endian unsigned integer.
func (w *Writer) U64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// Fixed appends raw bytes with no framing.
func (w *Writer) Fixed(b []byte) {
	w.buf = append(w.buf, b...)
}

// PaddedString appends s as raw UTF-8 bytes NUL-padded to width.
// Returns types.ErrIdentifierTooLong if s does not fit.
func (w *Writer) PaddedString(s string, width int) error {
	if len(s) > width {
		return types.ErrIdentifierTooLong
	}
	w.buf = append(w.buf, s...)
	for i := len(s); i < width; i++ {
		w.buf = append(w.buf, 0)
	}
	return nil
}

// VarBytes appends a 4-byte little-endian length prefix followed by b.
func (w *Writer) VarBytes(b []byte) {
	w.U32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// Bytes returns the accumulated encoding. The slice aliases the writer's
// buffer; callers must not write to the Writer afterwards.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Reader consumes a wire encoding from a byte slice, tracking its offset.
// A failed read leaves the offset unchanged.
type Reader struct {
	data []byte
	off  int
}

// NewReader returns a Reader positioned at the start of data.
// The Reader aliases data and never mutates it.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// U32 reads a 4-byte little-endian unsigned integer.
func (r *Reader) U32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, types.ErrTruncatedInput
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

// U64 reads an 8-byte little-endian unsigned integer.
func (r *Reader) U64() (uint64, error) {
	if r.Remaining() < 8 {
		return 0, types.ErrTruncatedInput
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v, nil
}

// Fixed reads exactly n bytes. The returned slice aliases the input.
func (r *Reader) Fixed(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, types.ErrTruncatedInput
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

// PaddedString reads a width-byte block and returns the text before the
// first NUL byte. A block with no NUL decodes as the full width.
func (r *Reader) PaddedString(width int) (string, error) {
	b, err := r.Fixed(width)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i]), nil
	}
	return string(b), nil
}

// VarBytes reads a 4-byte length prefix followed by that many raw bytes.
// The returned slice aliases the input.
func (r *Reader) VarBytes() ([]byte, error) {
	start := r.off
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	b, err := r.Fixed(int(n))
	if err != nil {
		r.off = start
		return nil, err
	}
	return b, nil
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}
