// Package transcoder rewrites function bodies into the form executed by the
// interpreter.
//
// Two passes run over each body:
//
//	raw code ──▶ TranscodeOperands ──▶ Linearize ──▶ linked code
//	             fixed-width fields     jump labels
//	             program-wide indices
//
// TranscodeOperands re-encodes every immediate as a little-endian field of
// fixed width and translates function, type, table, memory and global
// indices through a Remap. Branch depths and local indices are copied as
// values.
//
// Linearize inserts a 4-byte label field after each block, loop and if
// signature and after each else, and binds it once the jump target is known.
// Forward labels hold the distance from the field to the target; loop labels
// hold the distance back to the loop opcode.
//
// Finalize runs both passes using a pooled intermediate buffer:
//
//	linked, err := transcoder.Finalize(body, &transcoder.Remap{
//	    Signatures: sigs,
//	    Functions:  funcs,
//	    Globals:    globals,
//	})
//
// Walk and Disassemble decode linked code for inspection.
package transcoder
