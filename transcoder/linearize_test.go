package transcoder

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/wasm"
)

func TestFinalize_BlockLabelPointsPastEnd(t *testing.T) {
	// block void; i32.const 5; end; end
	code := []byte{0x02, 0x40, 0x41, 0x05, 0x0b, 0x0b}

	got, err := Finalize(code, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{
		0x02, 0x40, 0x0a, 0x00, 0x00, 0x00,
		0x41, 0x05, 0x00, 0x00, 0x00,
		0x0b,
		0x0b,
	}, got)

	const labelPos, innerEnd = 2, 11
	require.Equal(t, wasm.OpEnd, got[innerEnd])
	d := int(binary.LittleEndian.Uint32(got[labelPos:]))
	require.Equal(t, innerEnd+1, labelPos+d)
}

func TestFinalize_LoopLabelPointsBack(t *testing.T) {
	// nop; loop void; br 0; end; end
	code := []byte{0x01, 0x03, 0x40, 0x0c, 0x00, 0x0b, 0x0b}

	got, err := Finalize(code, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{
		0x01,
		0x03, 0x40, 0x02, 0x00, 0x00, 0x00,
		0x0c, 0x00, 0x00, 0x00, 0x00,
		0x0b,
		0x0b,
	}, got)

	const loopPos = 1
	var loop Instruction
	require.NoError(t, Walk(got, func(in Instruction) error {
		if in.Opcode == wasm.OpLoop {
			loop = in
		}
		return nil
	}))
	require.Equal(t, loopPos, loop.Offset)
	require.Equal(t, loopPos, loop.Target)
}

func TestFinalize_IfElse(t *testing.T) {
	// if void; nop; else; nop; end; end
	code := []byte{0x04, 0x40, 0x01, 0x05, 0x01, 0x0b, 0x0b}

	got, err := Finalize(code, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{
		0x04, 0x40, 0x0a, 0x00, 0x00, 0x00,
		0x01,
		0x05, 0x06, 0x00, 0x00, 0x00,
		0x01,
		0x0b,
		0x0b,
	}, got)

	var targets []int
	require.NoError(t, Walk(got, func(in Instruction) error {
		if in.Target >= 0 {
			targets = append(targets, in.Target)
		}
		return nil
	}))
	// if jumps to the first instruction of the else branch, else jumps past end
	require.Equal(t, []int{12, 14}, targets)
}

func TestFinalize_NestedBlocks(t *testing.T) {
	// block; loop; block; end; end; if; end; end; end
	code := []byte{
		0x02, 0x40,
		0x03, 0x40,
		0x02, 0x40,
		0x0b,
		0x0b,
		0x41, 0x00,
		0x04, 0x40,
		0x0b,
		0x0b,
		0x0b,
	}

	got, err := Finalize(code, nil)
	require.NoError(t, err)

	ends := map[int]bool{}
	var opens []Instruction
	require.NoError(t, Walk(got, func(in Instruction) error {
		switch in.Opcode {
		case wasm.OpEnd:
			ends[in.Offset] = true
		case wasm.OpBlock, wasm.OpIf:
			opens = append(opens, in)
		case wasm.OpLoop:
			require.Equal(t, in.Offset, in.Target)
		}
		return nil
	}))
	require.Len(t, opens, 3)
	for _, in := range opens {
		require.True(t, ends[in.Target-1], "label of %s@%d must land after an end", wasm.OpcodeName(in.Opcode), in.Offset)
	}
	require.Equal(t, len(got)-1, opens[0].Target, "outer block ends before the function end")
}

func TestLinearize_Errors(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want error
	}{
		{"else without if", []byte{0x02, 0x40, 0x05, 0x0b, 0x0b}, errors.ErrUnbalancedBlocks},
		{"else at top level", []byte{0x05, 0x0b}, errors.ErrUnbalancedBlocks},
		{"missing final end", []byte{0x02, 0x40, 0x0b}, errors.ErrUnbalancedBlocks},
		{"open block", []byte{0x02, 0x40}, errors.ErrUnbalancedBlocks},
		{"code after final end", []byte{0x0b, 0x01}, errors.ErrUnbalancedBlocks},
		{"missing signature", []byte{0x02}, errors.ErrTruncatedInput},
		{"short immediate", []byte{0x10, 0x00, 0x00}, errors.ErrTruncatedInput},
		{"short br_table", []byte{0x0e, 0x02, 0x00, 0x00, 0x00, 0x00}, errors.ErrTruncatedInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Linearize(tt.code)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLinearize_DoesNotModifyInput(t *testing.T) {
	code := []byte{0x02, 0x40, 0x0b, 0x0b}
	orig := append([]byte(nil), code...)
	_, err := Linearize(code)
	require.NoError(t, err)
	require.Equal(t, orig, code)
}

func TestBind(t *testing.T) {
	out := make([]byte, 8)
	require.NoError(t, bind(out, 0, 6))
	require.Equal(t, uint32(6), binary.LittleEndian.Uint32(out))

	require.ErrorIs(t, bind(out, 0, 7), errors.ErrDoubleLabelBind, "rebinding")
	require.ErrorIs(t, bind(out, 6, 8), errors.ErrDoubleLabelBind, "field past buffer")
	require.ErrorIs(t, bind(out, 4, 9), errors.ErrDoubleLabelBind, "target past buffer")
	require.ErrorIs(t, bind(out, 4, 4), errors.ErrDoubleLabelBind, "target at field")
}

func TestFinalize_ResultDoesNotAliasPool(t *testing.T) {
	a, err := Finalize([]byte{0x41, 0x01, 0x0b}, nil)
	require.NoError(t, err)
	snapshot := append([]byte(nil), a...)

	_, err = Finalize([]byte{0x41, 0x7f, 0x41, 0x7f, 0x0b}, nil)
	require.NoError(t, err)
	require.Equal(t, snapshot, a)
}
