package wasmtest

import "github.com/wippyai/wasm-linker/wasm"

// I32Const returns the constant expression "i32.const v; end".
func I32Const(v int32) []byte {
	w := &Writer{}
	return w.Byte(wasm.OpI32Const).S32(v).Byte(wasm.OpEnd).Bytes()
}

// I64Const returns the constant expression "i64.const v; end".
func I64Const(v int64) []byte {
	w := &Writer{}
	return w.Byte(wasm.OpI64Const).S64(v).Byte(wasm.OpEnd).Bytes()
}

// F32Const returns the constant expression "f32.const v; end".
func F32Const(v float32) []byte {
	w := &Writer{}
	return w.Byte(wasm.OpF32Const).F32(v).Byte(wasm.OpEnd).Bytes()
}

// F64Const returns the constant expression "f64.const v; end".
func F64Const(v float64) []byte {
	w := &Writer{}
	return w.Byte(wasm.OpF64Const).F64(v).Byte(wasm.OpEnd).Bytes()
}

// GlobalGet returns the constant expression "global.get idx; end".
func GlobalGet(idx uint32) []byte {
	w := &Writer{}
	return w.Byte(wasm.OpGlobalGet).U32(idx).Byte(wasm.OpEnd).Bytes()
}

// Code joins instruction fragments into one byte string.
func Code(parts ...[]byte) []byte {
	w := &Writer{}
	for _, p := range parts {
		w.WriteBytes(p)
	}
	return w.Bytes()
}

// Op returns an opcode followed by unsigned LEB128 immediates.
func Op(op wasm.Opcode, imms ...uint32) []byte {
	w := &Writer{}
	w.Byte(op)
	for _, imm := range imms {
		w.U32(imm)
	}
	return w.Bytes()
}
