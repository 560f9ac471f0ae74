package woff2

import (
	"bytes"

	"github.com/andybalholm/brotli"
	"github.com/npillmayer/fontpack/core"
	"github.com/npillmayer/fontpack/core/font/sfnt"
)

// Encode serializes an SFNT container into a WOFF2 file. Every table is
// stored with the null transform, which the format permits: the spec only
// mandates that encoders are *able* to emit transformed glyf/loca, not that
// they do. All table payloads are concatenated in directory order and
// compressed as a single Brotli stream.
func Encode(c *sfnt.Container) ([]byte, error) {
	numTables := c.NumTables()
	if numTables == 0 {
		return nil, core.WrapError(sfnt.ErrEmptyContainer, core.EINVALID,
			"cannot encode WOFF2 without tables")
	}
	dir := sfnt.NewBinWriter(8 * numTables)
	var stream bytes.Buffer
	for _, rec := range c.Records() {
		writeEntry(dir, rec)
		stream.Write(rec.Data)
	}
	var compressed bytes.Buffer
	bw := brotli.NewWriterLevel(&compressed, brotli.BestCompression)
	if _, err := bw.Write(stream.Bytes()); err != nil {
		return nil, core.WrapError(err, core.EINTERNAL, "brotli compression failed")
	}
	if err := bw.Close(); err != nil {
		return nil, core.WrapError(err, core.EINTERNAL, "brotli compression failed")
	}

	fileSize := uint32(headerSize+dir.Len()) + uint32(compressed.Len())
	w := sfnt.NewBinWriter(int(sfnt.Pad4Size(fileSize)))
	w.WriteTag(sfnt.T("wOF2"))
	w.WriteU32(c.Flavor)
	w.WriteU32(sfnt.Pad4Size(fileSize))
	w.WriteU16(uint16(numTables))
	w.WriteU16(0) // reserved
	w.WriteU32(sfnt.Size(c))
	w.WriteU32(uint32(compressed.Len()))
	w.WriteU16(1) // majorVersion
	w.WriteU16(0) // minorVersion
	w.WriteU32(0) // metaOffset
	w.WriteU32(0) // metaLength
	w.WriteU32(0) // metaOrigLength
	w.WriteU32(0) // privOffset
	w.WriteU32(0) // privLength
	w.Write(dir.Bytes())
	w.Write(compressed.Bytes())
	w.Pad4()
	tracer().Debugf("encoded WOFF2 of %d tables, %d bytes", numTables, w.Len())
	return w.Bytes(), nil
}

// writeEntry emits one directory entry with a null transform: the flags
// byte, the literal tag if not a known one, and the original length as
// UIntBase128. The null transform is version 3 for glyf and loca, version 0
// for every other table; either way no transformLength field follows.
func writeEntry(w *sfnt.BinWriter, rec sfnt.TableRecord) {
	idx := tagIndex(rec.Tag)
	flags := byte(idx)
	switch rec.Tag.String() {
	case "glyf", "loca":
		flags |= 3 << 6
	}
	w.Write([]byte{flags})
	if idx == escapeTagIndex {
		w.WriteTag(rec.Tag)
	}
	writeBase128(w, uint32(len(rec.Data)))
}

// writeBase128 emits n as UIntBase128: minimal-length 7-bit groups, high
// bit set on all but the last byte.
func writeBase128(w *sfnt.BinWriter, n uint32) {
	size := 1
	for v := n; v >= 0x80; v >>= 7 {
		size++
	}
	b := make([]byte, size)
	for i := size - 1; i >= 0; i-- {
		b[i] = byte(n & 0x7f)
		if i != size-1 {
			b[i] |= 0x80
		}
		n >>= 7
	}
	w.Write(b)
}
