package transcoder

import (
	"encoding/binary"

	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/wasm"
)

// LabelSize is the width of a label field in linearized code.
const LabelSize = 4

// fixedSizes are the immediate widths of transcoded instructions, excluding
// block signatures, labels and br_table.
var fixedSizes = [...]int{
	wasm.ImmNone:         0,
	wasm.ImmBlockType:    1,
	wasm.ImmLabel:        4,
	wasm.ImmBrTable:      -1,
	wasm.ImmFunc:         4,
	wasm.ImmCallIndirect: 8,
	wasm.ImmLocal:        4,
	wasm.ImmGlobal:       4,
	wasm.ImmMemarg:       8,
	wasm.ImmMemory:       4,
	wasm.ImmI32:          4,
	wasm.ImmI64:          8,
	wasm.ImmF32:          4,
	wasm.ImmF64:          8,
}

// immediateSize returns the byte length of the transcoded immediates of op
// whose encoding starts at rest. br_table reads its count from rest.
func immediateSize(op wasm.Opcode, rest []byte) (int, error) {
	kind := wasm.Immediates(op)
	if kind != wasm.ImmBrTable {
		return fixedSizes[kind], nil
	}
	if len(rest) < 4 {
		return 0, errors.New(errors.PhaseLinearize, errors.KindTruncatedInput).
			Detail("br_table count needs 4 bytes, %d remaining", len(rest)).
			Build()
	}
	n := uint64(binary.LittleEndian.Uint32(rest))
	size := 4 + 4*(n+1)
	if size > uint64(len(rest)) {
		return 0, errors.New(errors.PhaseLinearize, errors.KindTruncatedInput).
			Detail("br_table with %d targets needs %d bytes, %d remaining", n, size, len(rest)).
			Build()
	}
	return int(size), nil
}
