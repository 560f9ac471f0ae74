package font

import (
	"strings"

	xfont "golang.org/x/image/font"
	xsfnt "golang.org/x/image/font/sfnt"
	"golang.org/x/text/cases"
)

// Metadata describes a font for labeling purposes: which family it belongs
// to, which style variant it is, and so on. Conversions never depend on it;
// it decorates conversion results and generated stylesheets only.
type Metadata struct {
	Format     Format
	Family     string
	Style      string
	Weight     int // CSS weight, 100…900
	GlyphCount int
	Version    string
}

// DefaultMetadata returns the metadata substituted whenever a font cannot
// be inspected.
func DefaultMetadata(f Format) Metadata {
	return Metadata{
		Format: f,
		Family: "Unknown",
		Style:  "Regular",
		Weight: 400,
	}
}

// ReadMetadata inspects an SFNT buffer (TTF or OTF) and extracts naming
// information. Failure is never fatal to callers: ReadMetadata always
// returns usable metadata, falling back to DefaultMetadata values for
// whatever could not be read, together with the error encountered.
func ReadMetadata(sfntBuf []byte) (Metadata, error) {
	format, _ := Sniff(sfntBuf)
	md := DefaultMetadata(format)
	otf, err := xsfnt.Parse(sfntBuf)
	if err != nil {
		tracer().Infof("font metadata unavailable: %v", err)
		return md, err
	}
	md.GlyphCount = otf.NumGlyphs()
	var buf xsfnt.Buffer
	if fam, err := otf.Name(&buf, xsfnt.NameIDFamily); err == nil && fam != "" {
		md.Family = fam
	}
	if sub, err := otf.Name(&buf, xsfnt.NameIDSubfamily); err == nil && sub != "" {
		md.Style = sub
		_, w := GuessStyleAndWeight(sub)
		md.Weight = cssWeight(w)
	}
	if v, err := otf.Name(&buf, xsfnt.NameIDVersion); err == nil {
		md.Version = strings.TrimPrefix(v, "Version ")
	}
	tracer().Debugf("font metadata: %s %s (%d glyphs)", md.Family, md.Style, md.GlyphCount)
	return md, nil
}

// GuessStyleAndWeight trys to guess a font's style and weight from a style
// name or font file name, like "Italic" or "mono-bold".
func GuessStyleAndWeight(name string) (xfont.Style, xfont.Weight) {
	// name tables may carry non-ASCII style names, so case-fold properly
	name = cases.Fold().String(strings.TrimSuffix(name, ".ttf"))
	s := strings.Split(name, "-")
	if len(s) > 1 {
		switch s[len(s)-1] {
		case "light", "xlight":
			return xfont.StyleNormal, xfont.WeightLight
		case "normal", "medium", "regular", "r":
			return xfont.StyleNormal, xfont.WeightNormal
		case "bold", "b":
			return xfont.StyleNormal, xfont.WeightBold
		case "xbold", "black":
			return xfont.StyleNormal, xfont.WeightExtraBold
		}
	}
	style, weight := xfont.StyleNormal, xfont.WeightNormal
	if strings.Contains(name, "italic") || strings.Contains(name, "oblique") {
		style = xfont.StyleItalic
	}
	if strings.Contains(name, "light") {
		weight = xfont.WeightLight
	}
	if strings.Contains(name, "bold") {
		weight = xfont.WeightBold
	}
	return style, weight
}

// cssWeight maps an x/image font weight onto the CSS 100…900 scale.
func cssWeight(w xfont.Weight) int {
	n := 400 + int(w)*100
	if n < 100 {
		n = 100
	} else if n > 900 {
		n = 900
	}
	return n
}
