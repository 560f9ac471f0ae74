package sfnt

import "errors"

// Reading and writing bytes of a font's binary representation.
//
// Offsets into font binaries are a notorious source of silent corruption,
// so all access to container bytes goes through the two small cursor types
// below instead of scattered offset arithmetic. The WOFF codec packages
// share them; every read is bounds-checked, every write big-endian.

var errBufferBounds = errors.New("buffer bounds error in font binary")

func u16(b []byte) uint16 {
	_ = b[1] // Bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])<<0
}

func u32(b []byte) uint32 {
	_ = b[3] // Bounds check hint to compiler
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])<<0
}

// BinSegm is a segment of byte data, read big-endian with explicit bounds
// checks.
type BinSegm []byte

// View returns n bytes at the given offset.
// The byte segment returned is a sub-slice of b.
func (b BinSegm) View(offset, n int) (BinSegm, error) {
	if offset < 0 || n <= 0 || offset+n > len(b) {
		return nil, errBufferBounds
	}
	return b[offset : offset+n], nil
}

// U16 returns the uint16 in b at the relative offset i.
func (b BinSegm) U16(i int) (uint16, error) {
	buf, err := b.View(i, 2)
	if err != nil {
		return 0, err
	}
	return u16(buf), nil
}

// U32 returns the uint32 in b at the relative offset i.
func (b BinSegm) U32(i int) (uint32, error) {
	buf, err := b.View(i, 4)
	if err != nil {
		return 0, err
	}
	return u32(buf), nil
}

// BinWriter builds a font binary, appending big-endian fields to a growing
// buffer. The zero value is ready for use; pre-size with NewBinWriter when
// the final size is known.
type BinWriter struct {
	buf []byte
}

// NewBinWriter creates a writer with the given capacity pre-allocated.
func NewBinWriter(capacity int) *BinWriter {
	return &BinWriter{buf: make([]byte, 0, capacity)}
}

// Len returns the number of bytes written so far.
func (w *BinWriter) Len() int {
	return len(w.buf)
}

// Bytes returns the accumulated buffer.
func (w *BinWriter) Bytes() []byte {
	return w.buf
}

// WriteU16 appends a big-endian uint16.
func (w *BinWriter) WriteU16(n uint16) {
	w.buf = append(w.buf, byte(n>>8), byte(n))
}

// WriteU32 appends a big-endian uint32.
func (w *BinWriter) WriteU32(n uint32) {
	w.buf = append(w.buf, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}

// WriteTag appends the 4 bytes of a table tag.
func (w *BinWriter) WriteTag(t Tag) {
	w.WriteU32(uint32(t))
}

// Write appends raw bytes.
func (w *BinWriter) Write(b []byte) {
	w.buf = append(w.buf, b...)
}

// Pad4 appends zero bytes up to the next 4-byte boundary.
func (w *BinWriter) Pad4() {
	for len(w.buf)&3 != 0 {
		w.buf = append(w.buf, 0)
	}
}

// Pad4Size returns n rounded up to the next multiple of 4.
func Pad4Size(n uint32) uint32 {
	return (n + 3) &^ 3
}
