package transcoder

import (
	"encoding/binary"

	"github.com/wippyai/wasm-linker/errors"
)

// Remap holds one module's translation tables from module-local indices to
// program-wide indices. Signatures maps type section indices to interned
// signature ids.
type Remap struct {
	Signatures []uint32
	Functions  []uint32
	Tables     []uint32
	Memories   []uint32
	Globals    []uint32
}

// Finalize runs both passes over one function body: operand transcoding
// followed by control flow linearization. code must be the raw instruction
// bytes that follow the locals declarations, ending with the end opcode.
func Finalize(code []byte, r *Remap) ([]byte, error) {
	buf := getBuf()
	defer putBuf(buf)

	ops, err := appendOperands((*buf)[:0], code, r)
	*buf = ops
	if err != nil {
		return nil, err
	}
	return Linearize(ops)
}

func appendU32(dst []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, v)
}

func appendU64(dst []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, v)
}

func remap(table []uint32, what string, idx uint32) (uint32, error) {
	if uint64(idx) >= uint64(len(table)) {
		return 0, errors.OutOfRange(errors.PhaseTranscode, what, idx, len(table))
	}
	return table[idx], nil
}
