package woff

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"github.com/npillmayer/fontpack/core"
	"github.com/npillmayer/fontpack/core/font/sfnt"
)

// Failure classes of WOFF decoding. Decode wraps them with core error
// codes; match with errors.Is.
var (
	ErrBadSignature    = errors.New("not a WOFF file: signature mismatch")
	ErrTruncatedHeader = errors.New("WOFF header or directory truncated")
	ErrTruncatedTable  = errors.New("WOFF table payload truncated")
	ErrDecompression   = errors.New("WOFF table failed to decompress")
)

// Decode parses a WOFF envelope into an SFNT container, inflating the
// per-table zlib streams. Directory order is preserved; the spec does not
// require entries to be sorted by tag and real-world files differ.
//
// The origChecksum fields are carried into the model at face value, not
// verified against the decompressed bytes.
func Decode(buf []byte) (*sfnt.Container, error) {
	src := sfnt.BinSegm(buf)
	if len(buf) < 4 || sfnt.MakeTag(buf) != sfnt.T("wOFF") {
		return nil, core.WrapError(ErrBadSignature, core.EINVALID,
			"expected 'wOFF' signature at offset 0")
	}
	// The fixed header is 44 bytes and must be fully present before any
	// directory entry is touched.
	header, err := src.View(0, headerSize)
	if err != nil {
		return nil, core.WrapError(ErrTruncatedHeader, core.EINVALID,
			"WOFF header needs %d bytes, have %d", headerSize, len(buf))
	}
	flavor, _ := header.U32(4)
	numTables, _ := header.U16(12)
	tracer().Debugf("WOFF flavor = %s, %d tables", sfnt.Tag(flavor).String(), numTables)
	dir, err := src.View(headerSize, dirEntrySize*int(numTables))
	if err != nil {
		return nil, core.WrapError(ErrTruncatedHeader, core.EINVALID,
			"WOFF table directory truncated")
	}
	c := sfnt.New(flavor)
	for i := 0; i < int(numTables); i++ {
		entry, _ := dir.View(i*dirEntrySize, dirEntrySize)
		tag := sfnt.MakeTag(entry)
		offset, _ := entry.U32(4)
		compLength, _ := entry.U32(8)
		origLength, _ := entry.U32(12)
		origChecksum, _ := entry.U32(16)
		if compLength > origLength {
			return nil, errFontFormat(fmt.Sprintf(
				"table %s: compressed length %d exceeds original length %d",
				tag, compLength, origLength))
		}
		data, err := tablePayload(src, tag, offset, compLength, origLength)
		if err != nil {
			return nil, err
		}
		c.Add(sfnt.TableRecord{Tag: tag, Checksum: origChecksum, Data: data})
	}
	return c, nil
}

// tablePayload extracts one table's bytes, inflating if stored compressed.
// Whether a table is compressed is decided solely by compLength < origLength;
// equality means verbatim storage (inflating verbatim data would spuriously
// fail). The payload bytes are never self-describing in this respect.
func tablePayload(src sfnt.BinSegm, tag sfnt.Tag, offset, compLength, origLength uint32) ([]byte, error) {
	if origLength == 0 {
		return []byte{}, nil
	}
	// no zlib stream is empty, so this entry cannot inflate to anything
	if compLength == 0 {
		return nil, errFontFormat(fmt.Sprintf(
			"table %s: zero compressed length for %d original bytes", tag, origLength))
	}
	raw, err := src.View(int(offset), int(compLength))
	if err != nil {
		return nil, core.WrapError(ErrTruncatedTable, core.EINVALID,
			"table %s at offset %d: %d bytes not within file", tag, offset, compLength)
	}
	if compLength == origLength { // stored uncompressed
		data := make([]byte, origLength)
		copy(data, raw)
		return data, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, core.WrapError(ErrDecompression, core.EINVALID,
			"table %s: %v", tag, err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, core.WrapError(ErrDecompression, core.EINVALID,
			"table %s: %v", tag, err)
	}
	if uint32(len(data)) != origLength {
		return nil, core.WrapError(ErrDecompression, core.EINVALID,
			"table %s: inflated to %d bytes, directory says %d", tag, len(data), origLength)
	}
	return data, nil
}
