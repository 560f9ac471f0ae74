package sfnt

// --- Tag -------------------------------------------------------------------

// Tag is defined by the spec as:
// Array of four uint8s (length = 32 bits) used to identify a table,
// design-variation axis, script, language system, feature, or baseline.
type Tag uint32

// MakeTag creates a tag from the first 4 bytes of b.
func MakeTag(b []byte) Tag {
	if b == nil || len(b) < 4 {
		return Tag(0)
	}
	return Tag(u32(b))
}

// T returns the tag for a 4-letter table name, e.g. T("cmap").
func T(s string) Tag {
	return MakeTag([]byte(s))
}

func (t Tag) String() string {
	bytes := []byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	}
	return string(bytes)
}

// Flavor values distinguish TrueType-outline fonts from CFF-outline fonts.
// Other flavors (e.g. 'ttcf' collections) are not supported by the codec.
const (
	FlavorTrueType uint32 = 0x00010000 // TrueType outlines
	FlavorAppleTT  uint32 = 0x74727565 // 'true', Mac legacy
	FlavorOTTO     uint32 = 0x4f54544f // 'OTTO', CFF outlines
	flavorTTC      uint32 = 0x74746366 // 'ttcf', font collection
)

// --- Table records ---------------------------------------------------------

// TableRecord is one font table: its 4-byte tag, the directory checksum and
// the raw, uncompressed table bytes. Data is always the original table
// content; compressed representations are an encoding artifact of the WOFF
// wire format and never stored here. Every record owns its Data exclusively.
type TableRecord struct {
	Tag      Tag
	Checksum uint32
	Data     []byte
}

// NewTableRecord creates a table record owning a copy of data, with the
// checksum computed from the bytes.
func NewTableRecord(tag Tag, data []byte) TableRecord {
	d := make([]byte, len(data))
	copy(d, data)
	return TableRecord{Tag: tag, Checksum: Checksum(d), Data: d}
}

// Checksum is the SFNT table checksum: the sum (mod 2^32) of the table bytes
// read as big-endian uint32 words, the table zero-padded to a 4-byte
// boundary first. From the spec: "Table checksums are the unsigned sum of
// the uint32 units of a given table."
func Checksum(data []byte) uint32 {
	var sum uint32
	n := len(data) &^ 3
	for i := 0; i < n; i += 4 {
		sum += u32(data[i:])
	}
	if n < len(data) {
		var last [4]byte
		copy(last[:], data[n:])
		sum += u32(last[:])
	}
	return sum
}

// --- Container -------------------------------------------------------------

// Container is the in-memory model of an SFNT font: the flavor tag plus the
// ordered list of table records. Table order is preserved end-to-end; the
// directory of real-world fonts is not reliably sorted by tag, so the codec
// never re-sorts on round-trip.
type Container struct {
	Flavor  uint32
	records []TableRecord
}

// New creates an empty container of the given flavor.
func New(flavor uint32) *Container {
	return &Container{Flavor: flavor}
}

// NumTables returns the number of table records.
func (c *Container) NumTables() int {
	return len(c.records)
}

// Add appends a table record, keeping insertion order.
func (c *Container) Add(rec TableRecord) {
	c.records = append(c.records, rec)
}

// Records returns the table records in directory order.
func (c *Container) Records() []TableRecord {
	return c.records
}

// Table returns the record with the given tag, if present.
func (c *Container) Table(tag Tag) (TableRecord, bool) {
	for _, rec := range c.records {
		if rec.Tag == tag {
			return rec, true
		}
	}
	return TableRecord{}, false
}

// Directory search fields, derived from the table count. From the spec:
// searchRange = (maximum power of 2 <= numTables) * 16,
// entrySelector = log2 of that power of 2, rangeShift the remainder.
// They only ever exist as outputs of these functions, never as state.
// The arithmetic runs in int: numTables comes from untrusted directories
// and the doubling (as well as the *16) wraps in uint16, which for
// numTables >= 32768 never ends. The wire fields stay uint16 and truncate.
func searchFields(numTables uint16) (searchRange, entrySelector, rangeShift uint16) {
	if numTables == 0 {
		return 0, 0, 0
	}
	sr, es := 1, 0
	for sr*2 <= int(numTables) {
		sr *= 2
		es++
	}
	sr *= 16
	return uint16(sr), uint16(es), uint16(int(numTables)*16 - sr)
}

// SearchRange returns the derived binary-search range of the directory.
func (c *Container) SearchRange() uint16 {
	sr, _, _ := searchFields(uint16(len(c.records)))
	return sr
}

// EntrySelector returns the derived binary-search depth of the directory.
func (c *Container) EntrySelector() uint16 {
	_, es, _ := searchFields(uint16(len(c.records)))
	return es
}

// RangeShift returns the derived binary-search remainder of the directory.
func (c *Container) RangeShift() uint16 {
	_, _, rs := searchFields(uint16(len(c.records)))
	return rs
}
