package wasm

import (
	"strings"

	"github.com/wippyai/wasm-linker/errors"
)

// FuncType is a function signature.
type FuncType struct {
	Params  []ValueType
	Results []ValueType
}

// SignatureKey is the structural identity of a FuncType. Two signatures with
// equal keys are the same signature.
type SignatureKey string

// Key returns the structural key of the signature.
func (f FuncType) Key() SignatureKey {
	b := make([]byte, 0, len(f.Params)+len(f.Results)+1)
	b = append(b, f.Params...)
	b = append(b, ':')
	b = append(b, f.Results...)
	return SignatureKey(b)
}

// Signature rebuilds a FuncType from its structural key.
func (k SignatureKey) Signature() FuncType {
	params, results, _ := strings.Cut(string(k), ":")
	return FuncType{Params: []ValueType(params), Results: []ValueType(results)}
}

// String renders the signature in text format style: (i32 i64) -> (f32).
func (f FuncType) String() string {
	var b strings.Builder
	writeTypes := func(ts []ValueType) {
		b.WriteByte('(')
		for i, t := range ts {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(ValueTypeName(t))
		}
		b.WriteByte(')')
	}
	writeTypes(f.Params)
	b.WriteString(" -> ")
	writeTypes(f.Results)
	return b.String()
}

// Limits are the resizable limits of a table or memory.
// Max is meaningful only when HasMax is set.
type Limits struct {
	Min    uint32
	Max    uint32
	HasMax bool
}

// TableType describes a table: its element type and limits.
type TableType struct {
	ElemType byte
	Limits   Limits
}

// MemoryType describes a linear memory. Sizes are page counts.
type MemoryType = Limits

// GlobalType describes a global variable.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// ReadValueType reads a signed 7-bit value type.
func ReadValueType(c *Cursor) (ValueType, error) {
	v, err := c.ReadSigned(7)
	if err != nil {
		return 0, err
	}
	t := typeCode(v)
	if !IsValueType(t) {
		return 0, errors.InvalidValueType(errors.PhaseDecode, v)
	}
	return t, nil
}

// ReadFuncType reads a function signature, including its form byte.
func ReadFuncType(c *Cursor) (FuncType, error) {
	form, err := c.ReadSigned(7)
	if err != nil {
		return FuncType{}, err
	}
	if typeCode(form) != FuncTypeForm {
		return FuncType{}, errors.New(errors.PhaseDecode, errors.KindInvalidValueType).
			Detail("expected func form 0x60, got %#x", typeCode(form)).
			Value(form).
			Build()
	}

	paramCount, err := c.ReadU32()
	if err != nil {
		return FuncType{}, err
	}
	if int(paramCount) > c.Remaining() {
		return FuncType{}, errors.Truncated(c.Position(), int(paramCount), c.Remaining())
	}
	params := make([]ValueType, paramCount)
	for i := range params {
		if params[i], err = ReadValueType(c); err != nil {
			return FuncType{}, err
		}
	}

	// MVP signatures return at most one value.
	resultCount, err := c.ReadUnsigned(1)
	if err != nil {
		return FuncType{}, err
	}
	results := make([]ValueType, resultCount)
	for i := range results {
		if results[i], err = ReadValueType(c); err != nil {
			return FuncType{}, err
		}
	}
	return FuncType{Params: params, Results: results}, nil
}

// ReadLimits reads resizable limits.
func ReadLimits(c *Cursor) (Limits, error) {
	flags, err := c.ReadUnsigned(1)
	if err != nil {
		return Limits{}, err
	}
	min, err := c.ReadU32()
	if err != nil {
		return Limits{}, err
	}
	l := Limits{Min: min}
	if flags == 1 {
		if l.Max, err = c.ReadU32(); err != nil {
			return Limits{}, err
		}
		l.HasMax = true
		if l.Max < l.Min {
			return Limits{}, errors.New(errors.PhaseDecode, errors.KindInvalidLimits).
				Detail("maximum %d is below initial %d", l.Max, l.Min).
				Build()
		}
	}
	return l, nil
}

// ReadTableType reads a table's element type and limits.
func ReadTableType(c *Cursor) (TableType, error) {
	v, err := c.ReadSigned(7)
	if err != nil {
		return TableType{}, err
	}
	if typeCode(v) != ElemTypeAnyFunc {
		return TableType{}, errors.New(errors.PhaseDecode, errors.KindInvalidValueType).
			Detail("table element type %#x is not anyfunc", typeCode(v)).
			Value(v).
			Build()
	}
	limits, err := ReadLimits(c)
	if err != nil {
		return TableType{}, err
	}
	return TableType{ElemType: ElemTypeAnyFunc, Limits: limits}, nil
}

// ReadMemoryType reads a memory's limits.
func ReadMemoryType(c *Cursor) (MemoryType, error) {
	return ReadLimits(c)
}

// ReadGlobalType reads a global's value type and mutability.
func ReadGlobalType(c *Cursor) (GlobalType, error) {
	t, err := ReadValueType(c)
	if err != nil {
		return GlobalType{}, err
	}
	mut, err := c.ReadUnsigned(1)
	if err != nil {
		return GlobalType{}, err
	}
	return GlobalType{ValType: t, Mutable: mut == 1}, nil
}

// ReadExternalKind reads an import/export kind byte.
func ReadExternalKind(c *Cursor) (ExternalKind, error) {
	k, err := c.ReadByte()
	if err != nil {
		return 0, err
	}
	if k >= NumKinds {
		return 0, errors.InvalidExternalKind(errors.PhaseDecode, k)
	}
	return k, nil
}
