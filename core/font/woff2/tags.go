package woff2

import "github.com/npillmayer/fontpack/core/font/sfnt"

// knownTags is the fixed table of tags the WOFF2 directory can reference by
// a 6-bit index instead of 4 literal bytes; index 63 escapes to a literal
// tag. Order is normative, from the W3C recommendation ("Known Table Tags").
var knownTags = [63]string{
	"cmap", "head", "hhea", "hmtx",
	"maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca",
	"prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern",
	"LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS",
	"GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL",
	"SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar",
	"fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar",
	"mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat",
	"Gloc", "Feat", "Sill",
}

const escapeTagIndex = 63

// tagIndex returns the known-tag index for t, or escapeTagIndex if t must
// be written out literally.
func tagIndex(t sfnt.Tag) int {
	s := t.String()
	for i, known := range knownTags {
		if s == known {
			return i
		}
	}
	return escapeTagIndex
}
