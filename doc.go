// Package wasmlinker links WebAssembly MVP modules into one program whose
// function bodies are ready for a simple interpreter.
//
// Every module is loaded, its imports are bound to the exports of the other
// modules by name, and the function, table, memory and global index spaces
// are merged into program-wide ones. Function bodies are then rewritten so
// that every index immediate refers to the merged spaces and every block,
// loop and if carries an explicit jump target.
//
// # Architecture Overview
//
//	wasmlinker/          Root package: module file discovery and LinkFiles
//	├── linker/          Entities, constant expressions, segments, Link and Program
//	├── transcoder/      Operand rewriting, control flow linearization, disassembly
//	├── wasm/            Binary cursor, LEB128, type readers, section loader
//	│   └── wasmtest/    Module builder for tests
//	├── errors/          Structured error types for debugging
//	└── cmd/wasmlink/    Command line front end
//
// # Quick Start
//
//	files, warnings, err := wasmlinker.Discover("main.wasm", []wasmlinker.Import{
//		{Path: "libc.wasm", Name: "env"},
//	}, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, w := range warnings {
//		log.Println(w)
//	}
//
//	prog, err := wasmlinker.LinkFiles(files, linker.DefaultOptions())
//	if err != nil {
//		log.Fatal(err)
//	}
//	start := prog.StartFunction()
//
// # Error Handling
//
// Errors raised while loading and linking are *errors.Error values carrying
// the phase, kind, module, section and path of the failure:
//
//	if errors.Is(err, errors.ErrSegmentOverlap) {
//		var e *errors.Error
//		errors.As(err, &e)
//		fmt.Println(e.Module, e.Section)
//	}
package wasmlinker
