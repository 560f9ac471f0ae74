package woff2

import (
	"bytes"
	"errors"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/npillmayer/fontpack/core/font/sfnt"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestBase128RoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontpack.fonts")
	defer teardown()
	//
	for _, n := range []uint32{0, 1, 0x7f, 0x80, 0x3fff, 0x4000, 0xcafe, 0xffffffff} {
		w := sfnt.NewBinWriter(8)
		writeBase128(w, n)
		r := &dirReader{src: sfnt.BinSegm(w.Bytes())}
		m, err := r.readBase128()
		if err != nil {
			t.Fatalf("%d: %v", n, err)
		}
		if m != n {
			t.Errorf("expected %d to survive UIntBase128 round-trip, got %d", n, m)
		}
		if r.pos != w.Len() {
			t.Errorf("%d: read %d bytes, wrote %d", n, r.pos, w.Len())
		}
	}
}

func TestBase128Rejects(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontpack.fonts")
	defer teardown()
	//
	// leading zero byte
	r := &dirReader{src: sfnt.BinSegm([]byte{0x80, 0x01})}
	if _, err := r.readBase128(); err == nil {
		t.Error("expected UIntBase128 with leading zero byte to be rejected")
	}
	// 5 full bytes overflow 32 bits
	r = &dirReader{src: sfnt.BinSegm([]byte{0xff, 0xff, 0xff, 0xff, 0x7f})}
	if _, err := r.readBase128(); err == nil {
		t.Error("expected UIntBase128 overflow to be rejected")
	}
}

func TestRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontpack.fonts")
	defer teardown()
	//
	c := sfnt.New(sfnt.FlavorTrueType)
	// glyf and loca exercise the version-3 null transform, ZZZZ the
	// escaped literal tag
	c.Add(sfnt.NewTableRecord(sfnt.T("glyf"), bytes.Repeat([]byte{0xca, 0xfe}, 100)))
	c.Add(sfnt.NewTableRecord(sfnt.T("loca"), []byte{0, 0, 0, 1}))
	c.Add(sfnt.NewTableRecord(sfnt.T("cmap"), []byte{1, 2, 3}))
	c.Add(sfnt.NewTableRecord(sfnt.T("ZZZZ"), bytes.Repeat([]byte{7}, 130)))
	buf, err := Encode(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(buf)%4 != 0 {
		t.Errorf("expected file length to be a multiple of 4, is %d", len(buf))
	}
	c2, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if c2.Flavor != c.Flavor {
		t.Errorf("expected flavor %#x to survive round-trip, got %#x", c.Flavor, c2.Flavor)
	}
	if c2.NumTables() != c.NumTables() {
		t.Fatalf("expected %d tables, got %d", c.NumTables(), c2.NumTables())
	}
	for i, rec := range c2.Records() {
		orig := c.Records()[i]
		if rec.Tag != orig.Tag {
			t.Errorf("table %d: expected tag %s, got %s", i, orig.Tag, rec.Tag)
		}
		if !bytes.Equal(rec.Data, orig.Data) {
			t.Errorf("table %s: data corrupted in round-trip", rec.Tag)
		}
		// checksums are not stored in WOFF2 and must come out recomputed
		if rec.Checksum != sfnt.Checksum(orig.Data) {
			t.Errorf("table %s: expected recomputed checksum %#x, got %#x",
				rec.Tag, sfnt.Checksum(orig.Data), rec.Checksum)
		}
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontpack.fonts")
	defer teardown()
	//
	if _, err := Decode([]byte("wOFFwOFFwOFF")); !errors.Is(err, ErrBadSignature) {
		t.Errorf("expected ErrBadSignature, got %v", err)
	}
	c := sfnt.New(sfnt.FlavorTrueType)
	c.Add(sfnt.NewTableRecord(sfnt.T("cmap"), []byte{1, 2, 3}))
	buf, err := Encode(c)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(buf[:20]); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated for cut header, got %v", err)
	}
	if _, err := Decode(buf[:headerSize+2]); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated for cut compressed block, got %v", err)
	}
}

// Two directory entries of 2 GiB each wrap a 32-bit length sum to zero,
// which must not slip past the stream-size cross-check into out-of-range
// table slicing.
func TestDecodeRejectsOverflowingLengths(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontpack.fonts")
	defer teardown()
	//
	var compressed bytes.Buffer
	bw := brotli.NewWriterLevel(&compressed, brotli.BestCompression)
	bw.Close() // empty stream

	dir := sfnt.NewBinWriter(12)
	for i := 0; i < 2; i++ {
		dir.Write([]byte{byte(tagIndex(sfnt.T("cmap")))})
		writeBase128(dir, 0x80000000) // origLength
	}

	w := sfnt.NewBinWriter(headerSize + dir.Len() + compressed.Len())
	w.WriteTag(sfnt.T("wOF2"))
	w.WriteU32(sfnt.FlavorTrueType)
	w.WriteU32(uint32(headerSize + dir.Len() + compressed.Len()))
	w.WriteU16(2) // numTables
	w.WriteU16(0)
	w.WriteU32(0)
	w.WriteU32(uint32(compressed.Len()))
	w.WriteU16(1)
	w.WriteU16(0)
	w.WriteU32(0)
	w.WriteU32(0)
	w.WriteU32(0)
	w.WriteU32(0)
	w.WriteU32(0)
	w.Write(dir.Bytes())
	w.Write(compressed.Bytes())

	if _, err := Decode(w.Bytes()); !errors.Is(err, ErrDecompression) {
		t.Errorf("expected ErrDecompression for wrapped length sum, got %v", err)
	}
}

// A glyf table stored with transform version 0 is a transformed table and
// outside the scope of this codec.
func TestDecodeRejectsTransformedGlyf(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontpack.fonts")
	defer teardown()
	//
	var compressed bytes.Buffer
	bw := brotli.NewWriterLevel(&compressed, brotli.BestCompression)
	bw.Write([]byte{1, 2}) // transformLength bytes
	bw.Close()

	dir := sfnt.NewBinWriter(8)
	dir.Write([]byte{byte(tagIndex(sfnt.T("glyf")))}) // transform version 0
	writeBase128(dir, 4)                              // origLength
	writeBase128(dir, 2)                              // transformLength

	w := sfnt.NewBinWriter(headerSize + dir.Len() + compressed.Len())
	w.WriteTag(sfnt.T("wOF2"))
	w.WriteU32(sfnt.FlavorTrueType)
	w.WriteU32(uint32(headerSize + dir.Len() + compressed.Len()))
	w.WriteU16(1) // numTables
	w.WriteU16(0)
	w.WriteU32(0) // totalSfntSize, irrelevant here
	w.WriteU32(uint32(compressed.Len()))
	w.WriteU16(1)
	w.WriteU16(0)
	w.WriteU32(0)
	w.WriteU32(0)
	w.WriteU32(0)
	w.WriteU32(0)
	w.WriteU32(0)
	w.Write(dir.Bytes())
	w.Write(compressed.Bytes())

	if _, err := Decode(w.Bytes()); !errors.Is(err, ErrTransformedTable) {
		t.Errorf("expected ErrTransformedTable, got %v", err)
	}
}
