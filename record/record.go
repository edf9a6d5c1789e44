// Package record defines the capability contract the store package
// requires of a payload type, and provides the BED-flavored record this
// repository ships by default.
//
// The store never inspects payload bytes except through this contract: a
// Record knows how to serialize itself, and a Slice is a view of a record
// over a byte slice, built without copying by the store's Decoder. Where
// Rust expresses this with a generic trait pair bound by a lifetime, Go
// expresses it with two plain interfaces; the borrowed form's lifetime is
// enforced by convention rather than by the type system
// (store.Store.MapOverlapping hands it to a callback, and
// store.Store.GetOverlappingBatch returns views that stay valid only while
// the store is open).
package record

// Record is the owned, heap-allocated form of a stored payload.
type Record interface {
	Start() uint32
	End() uint32
	// ToBytes serializes the record for appending to a data file. The
	// returned bytes do not include the 8-byte length prefix; the store
	// adds that.
	ToBytes() []byte
}

// Slice is a zero-copy view over a byte range of a memory-mapped data
// file. Implementations must not retain the backing slice beyond the
// lifetime of the mapping it came from.
type Slice interface {
	Start() uint32
	End() uint32
	// ToOwned copies the view into an owned Record.
	ToOwned() Record
}
