// Package logging consolidates the warning/error logging call sites the
// teacher repo scattered across memory, PPU, and cartridge code into one
// place, using the standard log package throughout (no structured-logging
// library appears anywhere in the reference pack).
package logging

import "log"

// Warnf logs a recoverable condition — an open-bus read, a re-inserted
// cartridge — tagged with a category so call sites stay terse.
func Warnf(category, format string, args ...any) {
	log.Printf("[%s] "+format, append([]any{category}, args...)...)
}

// Fatalf logs an unrecoverable condition (HLT opcode, invalid opcode under
// strict mode, ROM load failure) and terminates the process.
func Fatalf(category, format string, args ...any) {
	log.Fatalf("[%s] "+format, append([]any{category}, args...)...)
}
