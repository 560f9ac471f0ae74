package font

import (
	"errors"

	"github.com/npillmayer/fontpack/core"
)

// Format is a tag for a binary font container format.
type Format int

// Container formats this module knows about.
const (
	FormatUnknown Format = iota
	FormatTTF            // TrueType-flavored SFNT
	FormatOTF            // CFF-flavored SFNT ("OTTO")
	FormatWOFF           // Web Open Font Format v1
	FormatWOFF2          // Web Open Font Format v2
)

func (f Format) String() string {
	switch f {
	case FormatTTF:
		return "ttf"
	case FormatOTF:
		return "otf"
	case FormatWOFF:
		return "woff"
	case FormatWOFF2:
		return "woff2"
	}
	return "unknown"
}

// ErrTooShort flags a buffer too short to carry a font-format signature.
var ErrTooShort = errors.New("buffer too short for format signature")

// Signatures of the container formats, as big-endian uint32s of the leading
// 4 bytes. See https://www.w3.org/TR/WOFF/#WOFFHeader and
// https://docs.microsoft.com/en-us/typography/opentype/spec/otff.
const (
	sigTrueType uint32 = 0x00010000 // TrueType outlines
	sigAppleTT  uint32 = 0x74727565 // 'true', Mac legacy TrueType
	sigOTTO     uint32 = 0x4f54544f // 'OTTO', CFF outlines
	sigWOFF     uint32 = 0x774f4646 // 'wOFF'
	sigWOFF2    uint32 = 0x774f4632 // 'wOF2'
)

// Sniff inspects the first 4 bytes of buf and reports the container format
// they announce. Sniffing is advisory: malformed input of at least 4 bytes
// never produces an error, but FormatUnknown. Buffers shorter than 4 bytes
// fail with ErrTooShort.
func Sniff(buf []byte) (Format, error) {
	if len(buf) < 4 {
		return FormatUnknown, core.WrapError(ErrTooShort, core.EINVALID,
			"font format sniffing needs at least 4 bytes, have %d", len(buf))
	}
	sig := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	switch sig {
	case sigWOFF:
		return FormatWOFF, nil
	case sigWOFF2:
		return FormatWOFF2, nil
	case sigOTTO:
		return FormatOTF, nil
	case sigTrueType, sigAppleTT:
		return FormatTTF, nil
	}
	tracer().Debugf("unrecognized font signature %#x", sig)
	return FormatUnknown, nil
}
