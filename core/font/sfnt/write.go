package sfnt

import (
	"errors"

	"github.com/npillmayer/fontpack/core"
)

// ErrEmptyContainer flags an attempt to serialize a container without tables.
var ErrEmptyContainer = errors.New("container holds no tables")

// Size returns the number of bytes Encode will produce for c: the 12-byte
// offset table, 16 bytes of directory per table, and every payload padded
// to a 4-byte boundary.
func Size(c *Container) uint32 {
	size := uint32(12 + 16*c.NumTables())
	for _, rec := range c.Records() {
		size += Pad4Size(uint32(len(rec.Data)))
	}
	return size
}

// Encode serializes a container back into SFNT binary form. Tables are laid
// out in record order, each starting on a 4-byte boundary as the spec
// demands, with zero padding between them. The directory checksums are the
// ones stored in the records; the table bytes are written unchanged, so
// there is nothing to recompute.
func Encode(c *Container) ([]byte, error) {
	numTables := c.NumTables()
	if numTables == 0 {
		return nil, core.WrapError(ErrEmptyContainer, core.EINVALID,
			"cannot serialize SFNT without tables")
	}
	w := NewBinWriter(int(Size(c)))
	searchRange, entrySelector, rangeShift := searchFields(uint16(numTables))
	w.WriteU32(c.Flavor)
	w.WriteU16(uint16(numTables))
	w.WriteU16(searchRange)
	w.WriteU16(entrySelector)
	w.WriteU16(rangeShift)
	// Directory first: offsets are fully determined by the table lengths,
	// so they can be computed before any payload is written.
	offset := uint32(12 + 16*numTables)
	for _, rec := range c.Records() {
		w.WriteTag(rec.Tag)
		w.WriteU32(rec.Checksum)
		w.WriteU32(offset)
		w.WriteU32(uint32(len(rec.Data)))
		offset += Pad4Size(uint32(len(rec.Data)))
	}
	for _, rec := range c.Records() {
		w.Write(rec.Data)
		w.Pad4()
	}
	tracer().Debugf("serialized SFNT of %d tables, %d bytes", numTables, w.Len())
	return w.Bytes(), nil
}
