package record

import (
	"encoding/binary"
	"fmt"
)

// Bed is the owned form of a BED-style record: a half-open [Start, End)
// interval plus the verbatim bytes of every tab-separated field after the
// third BED column. The core makes no claim about Rest's encoding; it is
// preserved byte-for-byte on the way in and out.
type Bed struct {
	Begin uint32
	Stop  uint32
	Rest  []byte
}

// Start implements Record.
func (b *Bed) Start() uint32 { return b.Begin }

// End implements Record.
func (b *Bed) End() uint32 { return b.Stop }

// ToBytes implements Record: start and end are little-endian u32, followed
// by Rest verbatim.
func (b *Bed) ToBytes() []byte {
	buf := make([]byte, 8+len(b.Rest))
	binary.LittleEndian.PutUint32(buf[0:4], b.Begin)
	binary.LittleEndian.PutUint32(buf[4:8], b.Stop)
	copy(buf[8:], b.Rest)
	return buf
}

// String implements fmt.Stringer in the bare tab-separated form tabix
// tools emit.
func (b *Bed) String() string {
	if len(b.Rest) == 0 {
		return fmt.Sprintf("%d\t%d", b.Begin, b.Stop)
	}
	return fmt.Sprintf("%d\t%d\t%s", b.Begin, b.Stop, b.Rest)
}

// BedSlice is the zero-copy view of a Bed record over a memory-mapped byte
// range. Its Rest field aliases the mapping; callers must not retain it
// past the mapping's lifetime (see store.Store.MapOverlapping).
type BedSlice struct {
	Begin uint32
	Stop  uint32
	Rest  []byte
}

// SliceFromBytes constructs a BedSlice viewing bytes in place. It panics if
// bytes is shorter than the 8-byte start/end prefix, which indicates a
// corrupted data file rather than a caller error to recover from.
func SliceFromBytes(bytes []byte) BedSlice {
	if len(bytes) < 8 {
		panic("record: bed slice requires at least 8 bytes for start/end")
	}
	return BedSlice{
		Begin: binary.LittleEndian.Uint32(bytes[0:4]),
		Stop:  binary.LittleEndian.Uint32(bytes[4:8]),
		Rest:  bytes[8:],
	}
}

// Start implements Slice.
func (s BedSlice) Start() uint32 { return s.Begin }

// End implements Slice.
func (s BedSlice) End() uint32 { return s.Stop }

// ToOwned implements Slice by copying Rest.
func (s BedSlice) ToOwned() Record {
	rest := make([]byte, len(s.Rest))
	copy(rest, s.Rest)
	return &Bed{Begin: s.Begin, Stop: s.Stop, Rest: rest}
}

// String implements fmt.Stringer.
func (s BedSlice) String() string {
	if len(s.Rest) == 0 {
		return fmt.Sprintf("%d\t%d", s.Begin, s.Stop)
	}
	return fmt.Sprintf("%d\t%d\t%s", s.Begin, s.Stop, s.Rest)
}
