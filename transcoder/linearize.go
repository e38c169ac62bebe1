package transcoder

import (
	"encoding/binary"
	"fmt"

	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/wasm"
)

// label is an entry of the linearizer's control stack.
type label struct {
	pos   int // offset of the label field in the output
	op    wasm.Opcode
	bound bool
}

// Linearize resolves structured control flow in transcoded code into label
// fields holding jump distances.
//
// block and if get a label field after their signature byte, bound at the
// matching end to the offset just past it. else pops the if label, binds it
// to the first instruction of the else branch, and opens its own label which
// the end binds. A forward label at offset a holding d targets a+d.
//
// loop gets a label bound immediately: at offset a it holds d = a-p where p
// is the offset of the loop opcode, so the backward target is a-d.
//
// The input is not modified. Instructions other than block, loop, if and
// else keep their immediates and are copied through.
func Linearize(code []byte) ([]byte, error) {
	out := make([]byte, 0, len(code)+len(code)/2)
	var stack []label

	pos := 0
	for pos < len(code) {
		opPos := len(out)
		op := code[pos]
		pos++
		out = append(out, op)

		switch op {
		case wasm.OpBlock, wasm.OpIf, wasm.OpLoop:
			if pos >= len(code) {
				return nil, linearizeError(errors.KindTruncatedInput, pos, "missing block signature")
			}
			out = append(out, code[pos])
			pos++

			l := label{pos: len(out), op: op}
			if op == wasm.OpLoop {
				out = appendU32(out, uint32(l.pos-opPos))
				l.bound = true
			} else {
				out = appendU32(out, 0)
			}
			stack = append(stack, l)

		case wasm.OpElse:
			if len(stack) == 0 || stack[len(stack)-1].op != wasm.OpIf {
				return nil, linearizeError(errors.KindUnbalancedBlocks, pos-1, "else without if")
			}
			ifLabel := stack[len(stack)-1]
			elseLabel := label{pos: len(out), op: op}
			out = appendU32(out, 0)
			if err := bind(out, ifLabel.pos, len(out)); err != nil {
				return nil, err
			}
			stack[len(stack)-1] = elseLabel

		case wasm.OpEnd:
			if len(stack) == 0 {
				if pos != len(code) {
					return nil, linearizeError(errors.KindUnbalancedBlocks, pos, "instructions after the final end")
				}
				return out, nil
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !top.bound {
				if err := bind(out, top.pos, len(out)); err != nil {
					return nil, err
				}
			}

		default:
			n, err := immediateSize(op, code[pos:])
			if err != nil {
				return nil, err
			}
			if pos+n > len(code) {
				return nil, linearizeError(errors.KindTruncatedInput, pos,
					fmt.Sprintf("%s needs %d immediate bytes", wasm.OpcodeName(op), n))
			}
			out = append(out, code[pos:pos+n]...)
			pos += n
		}
	}

	if len(stack) == 0 {
		return nil, linearizeError(errors.KindUnbalancedBlocks, pos, "missing final end")
	}
	return nil, linearizeError(errors.KindUnbalancedBlocks, pos,
		fmt.Sprintf("%d block(s) open at end of code", len(stack)))
}

// bind writes the distance from the label field at labelPos to target.
// A label can be bound once, and only to a position inside the buffer.
func bind(out []byte, labelPos, target int) error {
	if labelPos < 0 || labelPos+LabelSize > len(out) || target <= labelPos || target > len(out) {
		return linearizeError(errors.KindDoubleLabelBind, labelPos,
			fmt.Sprintf("target %d out of range (buffer %d bytes)", target, len(out)))
	}
	field := out[labelPos : labelPos+LabelSize]
	if binary.LittleEndian.Uint32(field) != 0 {
		return linearizeError(errors.KindDoubleLabelBind, labelPos, "label already bound")
	}
	binary.LittleEndian.PutUint32(field, uint32(target-labelPos))
	return nil
}

func linearizeError(kind errors.Kind, offset int, detail string) *errors.Error {
	return errors.Internal(errors.PhaseLinearize, kind, offset, detail)
}
