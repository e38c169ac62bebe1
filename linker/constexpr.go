package linker

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/wasm"
)

// constValue is the result of a constant expression. When the expression
// reads a global that has no value yet, ref points at it and bits is unset.
type constValue struct {
	ref  *Global
	bits uint64
	typ  wasm.ValueType
}

// evalConstExpr reads one constant expression: a single const or
// global.get instruction followed by end.
func (l *linker) evalConstExpr(c *wasm.Cursor, m *module) (constValue, error) {
	start := c.Position()
	op, err := c.ReadByte()
	if err != nil {
		return constValue{}, err
	}

	var v constValue
	switch op {
	case wasm.OpI32Const:
		x, err := c.ReadS32()
		if err != nil {
			return constValue{}, err
		}
		v = constValue{typ: wasm.ValueTypeI32, bits: api.EncodeI32(x)}
	case wasm.OpI64Const:
		x, err := c.ReadS64()
		if err != nil {
			return constValue{}, err
		}
		v = constValue{typ: wasm.ValueTypeI64, bits: api.EncodeI64(x)}
	case wasm.OpF32Const:
		// raw bits, NaN payloads included
		x, err := c.ReadU32LE()
		if err != nil {
			return constValue{}, err
		}
		v = constValue{typ: wasm.ValueTypeF32, bits: uint64(x)}
	case wasm.OpF64Const:
		x, err := c.ReadU64LE()
		if err != nil {
			return constValue{}, err
		}
		v = constValue{typ: wasm.ValueTypeF64, bits: x}
	case wasm.OpGlobalGet:
		idx, err := c.ReadU32()
		if err != nil {
			return constValue{}, err
		}
		g, err := l.constGlobal(m, idx)
		if err != nil {
			return constValue{}, err
		}
		v.typ = g.Type.ValType
		if bits, ok := g.Bits(); ok {
			v.bits = bits
		} else {
			v.ref = g
		}
	default:
		return constValue{}, errors.MalformedInitializer("%s at offset %d is not a constant instruction",
			wasm.OpcodeName(op), start)
	}

	end, err := c.ReadByte()
	if err != nil {
		return constValue{}, err
	}
	if end != wasm.OpEnd {
		return constValue{}, errors.MalformedInitializer("constant expression at offset %d has more than one instruction", start)
	}
	return v, nil
}

// constGlobal resolves the operand of global.get in a constant expression.
func (l *linker) constGlobal(m *module, idx uint32) (*Global, error) {
	if l.opts.StrictGlobalInitializers {
		if idx >= m.imports[wasm.KindGlobal] {
			return nil, errors.MalformedInitializer("global %d is not imported", idx)
		}
	}
	g, err := m.global(idx)
	if err != nil {
		return nil, err
	}
	if l.opts.StrictGlobalInitializers && g.Type.Mutable {
		return nil, errors.MalformedInitializer("global %d is mutable", idx)
	}
	return g, nil
}

// evalOffset evaluates a segment offset. The value must be an i32 known at
// the time the segment is read.
func (l *linker) evalOffset(c *wasm.Cursor, m *module) (uint32, error) {
	v, err := l.evalConstExpr(c, m)
	if err != nil {
		return 0, err
	}
	if v.typ != wasm.ValueTypeI32 {
		return 0, errors.MalformedInitializer("segment offset has type %s", wasm.ValueTypeName(v.typ))
	}
	if v.ref != nil {
		return 0, errors.MalformedInitializer("segment offset reads a global that has no value yet")
	}
	return uint32(api.DecodeI32(v.bits)), nil
}
