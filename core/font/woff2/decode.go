package woff2

import (
	"bytes"
	"errors"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/npillmayer/fontpack/core"
	"github.com/npillmayer/fontpack/core/font/sfnt"
)

// Failure classes of WOFF2 decoding; match with errors.Is.
var (
	ErrBadSignature     = errors.New("not a WOFF2 file: signature mismatch")
	ErrTruncated        = errors.New("WOFF2 data truncated")
	ErrDecompression    = errors.New("WOFF2 data failed to decompress")
	ErrTransformedTable = errors.New("WOFF2 transformed table not supported")
)

// tableEntry is one decoded directory entry. transformed tables carry their
// transformLength; null-transformed tables occupy origLength bytes in the
// decompressed stream.
type tableEntry struct {
	tag         sfnt.Tag
	origLength  uint32
	transformed bool
	streamLen   uint32
}

// Decode parses a WOFF2 file into an SFNT container. Tables stored with the
// null transform are reconstructed; transformed glyf, loca or hmtx tables
// fail with ErrTransformedTable (see the package comment for the scoping).
//
// WOFF2 carries no per-table checksums, so record checksums are computed
// from the reconstructed bytes.
func Decode(buf []byte) (*sfnt.Container, error) {
	src := sfnt.BinSegm(buf)
	if len(buf) < 4 || sfnt.MakeTag(buf) != sfnt.T("wOF2") {
		return nil, core.WrapError(ErrBadSignature, core.EINVALID,
			"expected 'wOF2' signature at offset 0")
	}
	header, err := src.View(0, headerSize)
	if err != nil {
		return nil, core.WrapError(ErrTruncated, core.EINVALID,
			"WOFF2 header needs %d bytes, have %d", headerSize, len(buf))
	}
	flavor, _ := header.U32(4)
	if flavor == uint32(sfnt.T("ttcf")) {
		return nil, errFontFormat("font collections not supported")
	}
	numTables, _ := header.U16(12)
	totalCompressedSize, _ := header.U32(20)
	tracer().Debugf("WOFF2 flavor = %s, %d tables", sfnt.Tag(flavor).String(), numTables)

	r := &dirReader{src: src, pos: headerSize}
	entries := make([]tableEntry, 0, numTables)
	// Summed in uint64: directory lengths are attacker-controlled and two
	// large entries wrap a uint32 sum.
	var streamSize uint64
	for i := 0; i < int(numTables); i++ {
		entry, err := r.readEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		streamSize += uint64(entry.streamLen)
	}

	compressed, err := src.View(r.pos, int(totalCompressedSize))
	if err != nil {
		return nil, core.WrapError(ErrTruncated, core.EINVALID,
			"compressed data block of %d bytes not within file", totalCompressedSize)
	}
	stream, err := io.ReadAll(brotli.NewReader(bytes.NewReader(compressed)))
	if err != nil {
		return nil, core.WrapError(ErrDecompression, core.EINVALID, "brotli: %v", err)
	}
	// "The length of the uncompressed data stream must be equal to the sum
	// of the table lengths recorded in the table directory."
	if uint64(len(stream)) != streamSize {
		return nil, core.WrapError(ErrDecompression, core.EINVALID,
			"decompressed to %d bytes, directory says %d", len(stream), streamSize)
	}

	c := sfnt.New(flavor)
	offset := 0
	for _, entry := range entries {
		data := stream[offset : offset+int(entry.streamLen)]
		offset += int(entry.streamLen)
		if entry.transformed {
			return nil, core.WrapError(ErrTransformedTable, core.EINVALID,
				"table %s stored with a non-null transform", entry.tag)
		}
		c.Add(sfnt.NewTableRecord(entry.tag, data))
	}
	return c, nil
}

// readEntry decodes one variable-length directory entry: a flags byte with
// tag index and transform version, an optional literal tag, the original
// length and, for transformed tables only, the transform length.
func (r *dirReader) readEntry() (tableEntry, error) {
	flags, err := r.readByte()
	if err != nil {
		return tableEntry{}, err
	}
	var tag sfnt.Tag
	if idx := int(flags & 0x3f); idx == escapeTagIndex {
		n, err := r.readU32()
		if err != nil {
			return tableEntry{}, err
		}
		tag = sfnt.Tag(n)
	} else {
		tag = sfnt.T(knownTags[idx])
	}
	origLength, err := r.readBase128()
	if err != nil {
		return tableEntry{}, err
	}
	entry := tableEntry{tag: tag, origLength: origLength, streamLen: origLength}
	// Transform version 0 is the null transform for every table except glyf
	// and loca, where the null transform is version 3.
	version := flags >> 6
	switch tag.String() {
	case "glyf", "loca":
		entry.transformed = version != 3
	default:
		entry.transformed = version != 0
	}
	if entry.transformed {
		if entry.streamLen, err = r.readBase128(); err != nil {
			return tableEntry{}, err
		}
	}
	tracer().Debugf("WOFF2 directory: %s, %d bytes, transformed=%v",
		tag, origLength, entry.transformed)
	return entry, nil
}

// dirReader advances sequentially over the variable-length table directory.
type dirReader struct {
	src sfnt.BinSegm
	pos int
}

func (r *dirReader) readByte() (byte, error) {
	b, err := r.src.View(r.pos, 1)
	if err != nil {
		return 0, core.WrapError(ErrTruncated, core.EINVALID, "WOFF2 table directory truncated")
	}
	r.pos++
	return b[0], nil
}

func (r *dirReader) readU32() (uint32, error) {
	n, err := r.src.U32(r.pos)
	if err != nil {
		return 0, core.WrapError(ErrTruncated, core.EINVALID, "WOFF2 table directory truncated")
	}
	r.pos += 4
	return n, nil
}

// readBase128 reads a UIntBase128: 1 to 5 bytes, 7 value bits each, high
// bit flagging continuation. Leading zero bytes and 32-bit overflow are
// forbidden by the spec.
func (r *dirReader) readBase128() (uint32, error) {
	var n uint32
	for i := 0; i < 5; i++ {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		if i == 0 && b == 0x80 {
			return 0, errFontFormat("UIntBase128 with leading zero byte")
		}
		if n&0xfe000000 != 0 {
			return 0, errFontFormat("UIntBase128 exceeds 32 bits")
		}
		n = n<<7 | uint32(b&0x7f)
		if b&0x80 == 0 {
			return n, nil
		}
	}
	return 0, errFontFormat("UIntBase128 longer than 5 bytes")
}
