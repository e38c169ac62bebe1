// Package errors provides structured error types for the wasm-linker library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the module and section being processed, a field path and a
// cause chain, so a failed link can be diagnosed without re-running it.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLink, errors.KindImportTypeMismatch).
//		Module("main").
//		Section("Import").
//		Path("env", "memory").
//		Detail("declared memory limits differ from the exported ones").
//		Build()
//
// Every Kind has a sentinel that matches regardless of phase:
//
//	if errors.Is(err, errors.ErrSegmentOverlap) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
