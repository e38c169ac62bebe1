package transcoder

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-linker/errors"
	"github.com/wippyai/wasm-linker/wasm"
)

func TestWalk_BrTableConsumesAllFields(t *testing.T) {
	code := []byte{
		0x02, 0x40,
		0x0e, 0x03, 0x00, 0x01, 0x00, 0x01,
		0x0b,
		0x0b,
	}
	linked, err := Finalize(code, nil)
	require.NoError(t, err)

	var ins []Instruction
	require.NoError(t, Walk(linked, func(in Instruction) error {
		ins = append(ins, in)
		return nil
	}))
	require.Len(t, ins, 4)

	br := ins[1]
	require.Equal(t, wasm.OpBrTable, br.Opcode)
	require.Equal(t, []uint64{3, 0, 1, 0, 1}, br.Immediates)
	// opcode byte plus (3+2) u32 fields
	require.Equal(t, br.Offset+1+(3+2)*4, ins[2].Offset)
	require.Equal(t, ins[2].Offset+1, ins[0].Target)
}

func TestWalk_StopsOnCallbackError(t *testing.T) {
	linked, err := Finalize([]byte{0x01, 0x01, 0x01, 0x0b}, nil)
	require.NoError(t, err)

	stop := fmt.Errorf("stop")
	n := 0
	err = Walk(linked, func(Instruction) error {
		n++
		if n == 2 {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 2, n)
}

func TestWalk_Truncated(t *testing.T) {
	tests := [][]byte{
		{0x02, 0x40, 0x00},
		{0x05, 0x00},
		{0x42, 0x00, 0x00, 0x00},
	}
	for _, code := range tests {
		err := Walk(code, func(Instruction) error { return nil })
		require.ErrorIs(t, err, errors.ErrTruncatedInput, "%x", code)
	}
}

func TestDisassemble(t *testing.T) {
	code := []byte{
		0x02, 0x40,
		0x41, 0x7f,
		0x42, 0x7f,
		0x43, 0x00, 0x00, 0xc0, 0x3f,
		0x1a, 0x1a, 0x1a,
		0x28, 0x02, 0x10,
		0x10, 0x00,
		0x0b,
		0x0b,
	}
	linked, err := Finalize(code, &Remap{Functions: []uint32{4}})
	require.NoError(t, err)

	text, err := Disassemble(linked)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	require.Len(t, lines, 11)
	require.Contains(t, lines[0], "block void @")
	require.Equal(t, "     6    i32.const -1", lines[1])
	require.Contains(t, lines[2], "i64.const -1")
	require.Contains(t, lines[3], "f32.const 1.5")
	require.Contains(t, lines[7], "i32.load align=2 offset=16")
	require.Contains(t, lines[8], "call 4")
	require.Equal(t, "    42  end", lines[9])
	require.Equal(t, "    43  end", lines[10])
}
