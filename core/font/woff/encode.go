package woff

import (
	"bytes"
	"compress/zlib"

	"github.com/npillmayer/fontpack/core"
	"github.com/npillmayer/fontpack/core/font/sfnt"
)

// ErrEmptyContainer flags an attempt to encode a container without tables.
// It is the shared sentinel of package sfnt, re-exported for callers that
// only deal in WOFF.
var ErrEmptyContainer = sfnt.ErrEmptyContainer

// Encode serializes an SFNT container into a WOFF envelope, compressing
// each table payload with zlib. A table is stored compressed only when
// compression actually shrinks it; otherwise the bytes go in verbatim and
// compLength equals origLength, which is how the format marks verbatim
// storage.
//
// Per-table checksums are copied from the source records, never recomputed:
// the table bytes are unchanged, only their container framing differs.
// The encoder writes no metadata or private blocks.
func Encode(c *sfnt.Container) ([]byte, error) {
	numTables := c.NumTables()
	if numTables == 0 {
		return nil, core.WrapError(sfnt.ErrEmptyContainer, core.EINVALID,
			"cannot encode WOFF without tables")
	}
	payloads := make([][]byte, numTables)
	fileSize := uint32(headerSize + dirEntrySize*numTables)
	for i, rec := range c.Records() {
		payloads[i] = deflate(rec.Data)
		fileSize += sfnt.Pad4Size(uint32(len(payloads[i])))
	}
	// totalSfntSize is the size the reconstructed SFNT would occupy;
	// consumers use it to pre-size output buffers.
	totalSfntSize := sfnt.Size(c)

	w := sfnt.NewBinWriter(int(fileSize))
	w.WriteTag(sfnt.T("wOFF"))
	w.WriteU32(c.Flavor)
	w.WriteU32(fileSize)
	w.WriteU16(uint16(numTables))
	w.WriteU16(0) // reserved
	w.WriteU32(totalSfntSize)
	w.WriteU16(1) // majorVersion
	w.WriteU16(0) // minorVersion
	w.WriteU32(0) // metaOffset
	w.WriteU32(0) // metaLength
	w.WriteU32(0) // metaOrigLength
	w.WriteU32(0) // privOffset
	w.WriteU32(0) // privLength

	// Directory entries in table order, payloads after the full directory,
	// each on a 4-byte boundary. Padding is zero bytes and is not counted
	// in compLength or origLength.
	offset := uint32(headerSize + dirEntrySize*numTables)
	for i, rec := range c.Records() {
		w.WriteTag(rec.Tag)
		w.WriteU32(offset)
		w.WriteU32(uint32(len(payloads[i])))
		w.WriteU32(uint32(len(rec.Data)))
		w.WriteU32(rec.Checksum)
		offset += sfnt.Pad4Size(uint32(len(payloads[i])))
	}
	for _, p := range payloads {
		w.Write(p)
		w.Pad4()
	}
	tracer().Debugf("encoded WOFF of %d tables, %d bytes (SFNT size %d)",
		numTables, w.Len(), totalSfntSize)
	return w.Bytes(), nil
}

// deflate returns the zlib-compressed form of data if that is strictly
// smaller, else data itself.
func deflate(data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return data
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return data
	}
	if err := zw.Close(); err != nil {
		return data
	}
	if buf.Len() < len(data) {
		return buf.Bytes()
	}
	return data
}
