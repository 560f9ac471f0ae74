package sfnt

import "fmt"

// Parse parses an SFNT container from a byte slice into a Container model.
// Table data is copied out of buf; the returned container does not alias the
// input and buf may be reused by the caller afterwards.
//
// Directory checksums are carried over at face value and not verified
// against the table bytes.
func Parse(buf []byte) (*Container, error) {
	// https://www.microsoft.com/typography/otspec/otff.htm: Offset Table is 12 bytes.
	src := BinSegm(buf)
	header, err := src.View(0, 12)
	if err != nil {
		return nil, errFontFormat("offset table truncated")
	}
	flavor := u32(header)
	switch flavor {
	case FlavorTrueType, FlavorAppleTT, FlavorOTTO:
		// supported
	case flavorTTC:
		return nil, errFontFormat("font collections not supported")
	default:
		return nil, errFontFormat(fmt.Sprintf("font type not supported: %x", flavor))
	}
	numTables := int(u16(header[4:]))
	tracer().Debugf("SFNT flavor = %s, %d tables", Tag(flavor).String(), numTables)
	// "The Offset Table is followed immediately by the Table Record entries",
	// 16 bytes each. Real-world fonts are not reliably sorted by tag, so the
	// directory is taken in the order it appears.
	dir, err := src.View(12, 16*numTables)
	if err != nil {
		return nil, errFontFormat("table record entries truncated")
	}
	c := New(flavor)
	for b := dir; len(b) > 0; b = b[16:] {
		tag := MakeTag(b)
		checksum := u32(b[4:8])
		off, size := u32(b[8:12]), u32(b[12:16])
		rec := TableRecord{Tag: tag, Checksum: checksum, Data: []byte{}}
		if size > 0 {
			data, err := src.View(int(off), int(size))
			if err != nil {
				return nil, errFontFormat(fmt.Sprintf("table %s exceeds font data", tag))
			}
			rec.Data = make([]byte, size)
			copy(rec.Data, data)
		}
		c.Add(rec)
	}
	return c, nil
}
