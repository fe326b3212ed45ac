// Package primitives provides the foundational data structures for the counter
// engine: the instruction wire format, the fixed-width state record, the storage
// slot abstraction and the error kinds shared by every tier.
//
// This package uses ONLY the Go standard library plus github.com/google/uuid for
// transition identifiers. It must never import another internal package.
//
// Core invariants:
//   - Commands are immutable values, decoded once and consumed immediately
//   - The state record is exactly RecordSize bytes, little-endian
//   - Slot bytes are owned by the host; this package never reallocates them
package primitives
