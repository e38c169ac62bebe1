package wasmtest

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/wippyai/wasm-linker/wasm"
)

// Writer accumulates binary format primitives.
type Writer struct {
	buf bytes.Buffer
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Byte writes a single byte.
func (w *Writer) Byte(b ...byte) *Writer {
	w.buf.Write(b)
	return w
}

// WriteBytes writes a byte slice verbatim.
func (w *Writer) WriteBytes(data []byte) *Writer {
	w.buf.Write(data)
	return w
}

// U32 writes an unsigned LEB128 value.
func (w *Writer) U32(v uint32) *Writer {
	w.buf.Write(wasm.AppendUnsigned(nil, uint64(v)))
	return w
}

// S32 writes a signed LEB128 value.
func (w *Writer) S32(v int32) *Writer {
	w.buf.Write(wasm.AppendSigned(nil, int64(v)))
	return w
}

// S64 writes a signed LEB128 value.
func (w *Writer) S64(v int64) *Writer {
	w.buf.Write(wasm.AppendSigned(nil, v))
	return w
}

// F32 writes the raw little-endian bits of v.
func (w *Writer) F32(v float32) *Writer {
	w.buf.Write(binary.LittleEndian.AppendUint32(nil, math.Float32bits(v)))
	return w
}

// F64 writes the raw little-endian bits of v.
func (w *Writer) F64(v float64) *Writer {
	w.buf.Write(binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)))
	return w
}

// U32LE writes a fixed 4-byte little-endian value.
func (w *Writer) U32LE(v uint32) *Writer {
	w.buf.Write(binary.LittleEndian.AppendUint32(nil, v))
	return w
}

// Name writes a length-prefixed string.
func (w *Writer) Name(s string) *Writer {
	w.U32(uint32(len(s)))
	w.buf.WriteString(s)
	return w
}

// Vec writes a length-prefixed byte string.
func (w *Writer) Vec(b []byte) *Writer {
	w.U32(uint32(len(b)))
	w.buf.Write(b)
	return w
}
