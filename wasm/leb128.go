package wasm

import "github.com/wippyai/wasm-linker/errors"

// LEB128 encoding/decoding utilities for WebAssembly binary format.
//
// Decoders take the maximum bit width of the encoded value (1 for varuint1,
// 7 for varint7, 32, 64, ...) and reject encodings that are longer than the
// width allows, that carry bits beyond it, or that run past the buffer.

// DecodeUnsigned decodes an unsigned LEB128 value of at most width bits from b.
// It returns the value and the number of bytes consumed.
func DecodeUnsigned(b []byte, width uint) (uint64, int, error) {
	maxLen := int((width + 6) / 7)
	var result uint64
	var shift uint
	for i := 0; i < maxLen; i++ {
		if i >= len(b) {
			return 0, 0, errors.Truncated(i, 1, 0)
		}
		c := b[i]
		result |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			if width < 64 && result>>width != 0 {
				return 0, 0, errors.Overflow(0, width)
			}
			if width == 64 && i == 9 && c > 1 {
				return 0, 0, errors.Overflow(0, width)
			}
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, errors.Overflow(0, width)
}

// DecodeSigned decodes a signed LEB128 value of at most width bits from b.
// It returns the sign-extended value and the number of bytes consumed.
func DecodeSigned(b []byte, width uint) (int64, int, error) {
	maxLen := int((width + 6) / 7)
	var result int64
	var shift uint
	for i := 0; i < maxLen; i++ {
		if i >= len(b) {
			return 0, 0, errors.Truncated(i, 1, 0)
		}
		c := b[i]
		result |= int64(c&0x7f) << shift
		shift += 7
		if c&0x80 != 0 {
			continue
		}
		// Sign extend
		if shift < 64 && c&0x40 != 0 {
			result |= -1 << shift
		}
		if width < 64 {
			lo, hi := int64(-1)<<(width-1), int64(1)<<(width-1)-1
			if result < lo || result > hi {
				return 0, 0, errors.Overflow(0, width)
			}
		} else if i == 9 && c != 0x00 && c != 0x7f {
			return 0, 0, errors.Overflow(0, width)
		}
		return result, i + 1, nil
	}
	return 0, 0, errors.Overflow(0, width)
}

// AppendUnsigned appends the unsigned LEB128 encoding of v to dst.
func AppendUnsigned(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// AppendSigned appends the signed LEB128 encoding of v to dst.
func AppendSigned(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}
