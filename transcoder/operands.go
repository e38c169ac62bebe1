package transcoder

import (
	"strconv"

	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/wasm"
)

// TranscodeOperands rewrites the immediates of every instruction in code as
// fixed-width little-endian fields and replaces module-local indices with
// program-wide ones taken from r. Opcode bytes are copied unchanged.
//
// Output immediate layout:
//
//	block, loop, if      signature byte
//	br, br_if            u32 depth
//	br_table             u32 count, count u32 depths, u32 default
//	call                 u32 function
//	call_indirect        u32 signature, u32 table
//	local.get/set/tee    u32 local
//	global.get/set       u32 global
//	loads, stores        u32 alignment, u32 offset
//	memory.size/grow     u32 memory
//	i32.const, f32.const 4 bytes
//	i64.const, f64.const 8 bytes
//
// Opcodes outside the MVP set are copied with no immediates.
func TranscodeOperands(code []byte, r *Remap) ([]byte, error) {
	return appendOperands(make([]byte, 0, len(code)*2), code, r)
}

func appendOperands(dst, code []byte, r *Remap) ([]byte, error) {
	if r == nil {
		r = &Remap{}
	}
	c := wasm.NewCursor(code)
	// The function body is an implicit block closed by the final end.
	depth := 1

	for c.Remaining() > 0 {
		if depth == 0 {
			return dst, errors.Internal(errors.PhaseTranscode, errors.KindUnbalancedBlocks, c.Position(),
				"instructions after the final end")
		}
		start := c.Position()
		op, _ := c.ReadByte()
		dst = append(dst, op)

		var err error
		switch wasm.Immediates(op) {
		case wasm.ImmNone:
			if op == wasm.OpEnd {
				depth--
			}
		case wasm.ImmBlockType:
			dst, err = appendBlockType(dst, c)
			depth++
		case wasm.ImmLabel, wasm.ImmLocal:
			dst, err = appendIndex(dst, c, nil, "")
		case wasm.ImmBrTable:
			dst, err = appendBrTable(dst, c)
		case wasm.ImmFunc:
			dst, err = appendIndex(dst, c, r.Functions, "function")
		case wasm.ImmCallIndirect:
			if dst, err = appendIndex(dst, c, r.Signatures, "type"); err == nil {
				dst, err = appendIndex(dst, c, r.Tables, "table")
			}
		case wasm.ImmGlobal:
			dst, err = appendIndex(dst, c, r.Globals, "global")
		case wasm.ImmMemarg:
			if dst, err = appendIndex(dst, c, nil, ""); err == nil {
				dst, err = appendIndex(dst, c, nil, "")
			}
		case wasm.ImmMemory:
			dst, err = appendIndex(dst, c, r.Memories, "memory")
		case wasm.ImmI32:
			var v int32
			if v, err = c.ReadS32(); err == nil {
				dst = appendU32(dst, uint32(v))
			}
		case wasm.ImmI64:
			var v int64
			if v, err = c.ReadS64(); err == nil {
				dst = appendU64(dst, uint64(v))
			}
		case wasm.ImmF32:
			dst, err = appendRaw(dst, c, 4)
		case wasm.ImmF64:
			dst, err = appendRaw(dst, c, 8)
		}
		if err != nil {
			return dst, annotate(err, op, start)
		}
	}

	if depth != 0 || len(dst) == 0 || dst[len(dst)-1] != wasm.OpEnd {
		return dst, errors.Internal(errors.PhaseTranscode, errors.KindUnbalancedBlocks, c.Position(),
			"function body does not close with end")
	}
	return dst, nil
}

// appendIndex reads a LEB128 u32 and appends it. When what names an index
// space the value is translated through table first.
func appendIndex(dst []byte, c *wasm.Cursor, table []uint32, what string) ([]byte, error) {
	v, err := c.ReadU32()
	if err != nil {
		return dst, err
	}
	if what != "" {
		if v, err = remap(table, what, v); err != nil {
			return dst, err
		}
	}
	return appendU32(dst, v), nil
}

func appendBlockType(dst []byte, c *wasm.Cursor) ([]byte, error) {
	v, err := c.ReadSigned(7)
	if err != nil {
		return dst, err
	}
	sig := byte(v) & 0x7f
	if sig != wasm.BlockTypeVoid && !wasm.IsValueType(sig) {
		return dst, errors.InvalidValueType(errors.PhaseTranscode, v)
	}
	return append(dst, sig), nil
}

func appendBrTable(dst []byte, c *wasm.Cursor) ([]byte, error) {
	n, err := c.ReadU32()
	if err != nil {
		return dst, err
	}
	// Each depth takes at least one byte.
	if int(n) >= c.Remaining() {
		return dst, errors.Truncated(c.Position(), int(n)+1, c.Remaining())
	}
	dst = appendU32(dst, n)
	for i := uint32(0); i <= n; i++ {
		if dst, err = appendIndex(dst, c, nil, ""); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

func appendRaw(dst []byte, c *wasm.Cursor, n int) ([]byte, error) {
	b, err := c.ReadBytes(n)
	if err != nil {
		return dst, err
	}
	return append(dst, b...), nil
}

// annotate records the failing instruction on errors raised while reading
// its immediates.
func annotate(err error, op wasm.Opcode, offset int) error {
	var e *errors.Error
	if !errors.As(err, &e) || len(e.Path) > 0 {
		return err
	}
	c := *e
	c.Path = []string{wasm.OpcodeName(op) + "@" + strconv.Itoa(offset)}
	return &c
}
