package transcoder

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/wasm"
)

// Instruction is one decoded instruction of linearized code.
type Instruction struct {
	// Immediates holds the fixed-width fields in order. Block signatures and
	// label fields are included; 64-bit constants occupy one entry.
	Immediates []uint64
	// Offset is the position of the opcode byte.
	Offset int
	// Target is the resolved jump target of block, loop, if and else, or -1.
	Target int
	Opcode wasm.Opcode
}

// Walk decodes linearized code and calls fn for each instruction in order.
// Walking stops at the first error returned by fn.
func Walk(code []byte, fn func(Instruction) error) error {
	pos := 0
	for pos < len(code) {
		in := Instruction{Offset: pos, Opcode: code[pos], Target: -1}
		pos++

		switch in.Opcode {
		case wasm.OpBlock, wasm.OpIf, wasm.OpLoop:
			if pos+1+LabelSize > len(code) {
				return walkTruncated(in, len(code)-pos)
			}
			sig := code[pos]
			labelPos := pos + 1
			d := int(binary.LittleEndian.Uint32(code[labelPos:]))
			in.Immediates = []uint64{uint64(sig), uint64(d)}
			if in.Opcode == wasm.OpLoop {
				in.Target = labelPos - d
			} else {
				in.Target = labelPos + d
			}
			pos += 1 + LabelSize

		case wasm.OpElse:
			if pos+LabelSize > len(code) {
				return walkTruncated(in, len(code)-pos)
			}
			d := int(binary.LittleEndian.Uint32(code[pos:]))
			in.Immediates = []uint64{uint64(d)}
			in.Target = pos + d
			pos += LabelSize

		default:
			n, err := immediateSize(in.Opcode, code[pos:])
			if err != nil {
				return err
			}
			if pos+n > len(code) {
				return walkTruncated(in, len(code)-pos)
			}
			in.Immediates = decodeFields(wasm.Immediates(in.Opcode), code[pos:pos+n])
			pos += n
		}

		if err := fn(in); err != nil {
			return err
		}
	}
	return nil
}

func decodeFields(kind wasm.ImmKind, b []byte) []uint64 {
	if len(b) == 0 {
		return nil
	}
	if kind == wasm.ImmI64 || kind == wasm.ImmF64 {
		return []uint64{binary.LittleEndian.Uint64(b)}
	}
	fields := make([]uint64, 0, len(b)/4)
	for i := 0; i+4 <= len(b); i += 4 {
		fields = append(fields, uint64(binary.LittleEndian.Uint32(b[i:])))
	}
	return fields
}

func walkTruncated(in Instruction, have int) error {
	return errors.New(errors.PhaseLinearize, errors.KindTruncatedInput).
		Path(fmt.Sprintf("%s@%d", opName(in.Opcode), in.Offset)).
		Detail("immediates cut short, %d byte(s) remaining", have).
		Build()
}

// Disassemble renders linearized code as text, one instruction per line,
// indented by nesting depth. Jump targets are printed as @offset.
func Disassemble(code []byte) (string, error) {
	var b strings.Builder
	depth := 0
	err := Walk(code, func(in Instruction) error {
		switch in.Opcode {
		case wasm.OpEnd, wasm.OpElse:
			if depth > 0 {
				depth--
			}
		}
		fmt.Fprintf(&b, "%6d  %s%s", in.Offset, strings.Repeat("  ", depth), opName(in.Opcode))
		if ops := formatImmediates(in); ops != "" {
			b.WriteByte(' ')
			b.WriteString(ops)
		}
		b.WriteByte('\n')
		switch in.Opcode {
		case wasm.OpBlock, wasm.OpLoop, wasm.OpIf, wasm.OpElse:
			depth++
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func formatImmediates(in Instruction) string {
	imm := in.Immediates
	switch wasm.Immediates(in.Opcode) {
	case wasm.ImmBlockType:
		return fmt.Sprintf("%s @%d", blockTypeName(byte(imm[0])), in.Target)
	case wasm.ImmI32:
		return fmt.Sprint(int32(uint32(imm[0])))
	case wasm.ImmI64:
		return fmt.Sprint(int64(imm[0]))
	case wasm.ImmF32:
		return fmt.Sprint(math.Float32frombits(uint32(imm[0])))
	case wasm.ImmF64:
		return fmt.Sprint(math.Float64frombits(imm[0]))
	case wasm.ImmMemarg:
		return fmt.Sprintf("align=%d offset=%d", imm[0], imm[1])
	case wasm.ImmCallIndirect:
		return fmt.Sprintf("type=%d table=%d", imm[0], imm[1])
	case wasm.ImmBrTable:
		parts := make([]string, 0, len(imm)-1)
		for _, d := range imm[1:] {
			parts = append(parts, fmt.Sprint(d))
		}
		return strings.Join(parts, " ")
	}
	if in.Opcode == wasm.OpElse {
		return fmt.Sprintf("@%d", in.Target)
	}
	if len(imm) == 1 {
		return fmt.Sprint(imm[0])
	}
	return ""
}

func blockTypeName(sig byte) string {
	if sig == wasm.BlockTypeVoid {
		return "void"
	}
	return wasm.ValueTypeName(sig)
}

func opName(op wasm.Opcode) string {
	if name := wasm.OpcodeName(op); name != "" {
		return name
	}
	return fmt.Sprintf("0x%02x", op)
}
