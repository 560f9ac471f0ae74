package convert

import (
	"errors"

	"github.com/npillmayer/fontpack/core"
	"github.com/npillmayer/fontpack/core/font"
	"github.com/npillmayer/fontpack/core/font/sfnt"
	"github.com/npillmayer/fontpack/core/font/woff"
	"github.com/npillmayer/fontpack/core/font/woff2"
)

// Collaborator capabilities consumed by the orchestrator. The codec core
// frames containers; everything that interprets glyph data stays behind
// these interfaces.

// Subsetter reduces a font buffer to the glyphs reachable from the code
// points of text. A failing Subsetter is never fatal: the orchestrator
// falls back to the unmodified buffer and records the error as a
// diagnostic.
type Subsetter interface {
	Subset(buf []byte, text string, hinting bool) ([]byte, error)
}

// Woff2Codec converts between the sfnt.Container model and WOFF2 bytes.
// The default is the scoped codec of package woff2; implementations backed
// by a full transform engine can be injected instead.
type Woff2Codec interface {
	Compress(c *sfnt.Container) ([]byte, error)
	Decompress(buf []byte) (*sfnt.Container, error)
}

// Rasterizer converts CFF outlines to quadratic (TrueType) outlines.
// There is no correct fallback for a missing or failing Rasterizer, so
// OTF input cannot be normalized without one.
type Rasterizer interface {
	RasterizeOutlines(otfBuf []byte) ([]byte, error)
}

// Orchestrator-level failure classes; match with errors.Is.
var (
	ErrUnsupportedInput = errors.New("input format not supported for transcoding")
	ErrNoRasterizer     = errors.New("no outline rasterizer available")
)

// Converter transcodes font buffers between container formats. Converters
// are safe for concurrent use: every call owns its input and produces
// freshly allocated outputs, and the optional memoization cache is the only
// guarded shared state.
type Converter struct {
	subsetter  Subsetter
	woff2codec Woff2Codec
	rasterizer Rasterizer
	readMeta   func([]byte) (font.Metadata, error)
	cache      *memoCache
}

// Option configures a Converter.
type Option func(*Converter)

// WithSubsetter injects a glyph subsetting capability.
func WithSubsetter(s Subsetter) Option {
	return func(cv *Converter) { cv.subsetter = s }
}

// WithWoff2Codec replaces the default WOFF2 codec.
func WithWoff2Codec(c Woff2Codec) Option {
	return func(cv *Converter) { cv.woff2codec = c }
}

// WithRasterizer injects an outline rasterization capability, enabling
// OTF (CFF-flavored) input.
func WithRasterizer(r Rasterizer) Option {
	return func(cv *Converter) { cv.rasterizer = r }
}

// WithCacheSize enables memoization of conversion results, bounded to the
// given number of entries with least-recently-used eviction. Correctness
// never depends on the cache; it is an additive optimization for repeated
// identical inputs.
func WithCacheSize(n int) Option {
	return func(cv *Converter) {
		if n > 0 {
			cv.cache = newMemoCache(n)
		}
	}
}

// WithMetadataReader replaces the metadata extraction used to label
// results. The default is font.ReadMetadata.
func WithMetadataReader(f func([]byte) (font.Metadata, error)) Option {
	return func(cv *Converter) { cv.readMeta = f }
}

// New creates a Converter. Without options it handles TTF and WOFF input,
// WOFF2 through the default codec, and labels results with
// font.ReadMetadata.
func New(opts ...Option) *Converter {
	cv := &Converter{
		woff2codec: stdWoff2Codec{},
		readMeta:   font.ReadMetadata,
	}
	for _, opt := range opts {
		opt(cv)
	}
	return cv
}

// Result is the outcome of one conversion call: per requested output format
// either a buffer or an error, plus metadata for labeling. Partial success
// is normal; consult Errors per format.
type Result struct {
	Buffers  map[font.Format][]byte
	Errors   map[font.Format]error
	Metadata font.Metadata
	// SubsetDiag carries the error of a soft-failed subsetting step; the
	// conversion then used the unmodified input.
	SubsetDiag error
}

// Buffer returns the output produced for format f, if any.
func (r *Result) Buffer(f font.Format) ([]byte, bool) {
	b, ok := r.Buffers[f]
	return b, ok
}

// Transcode sniffs the format of input and converts it to every requested
// output format. See TranscodeAs for the semantics.
func (cv *Converter) Transcode(input []byte, outputs ...font.Format) (*Result, error) {
	inFormat, err := font.Sniff(input)
	if err != nil {
		return nil, err
	}
	return cv.TranscodeAs(input, inFormat, outputs...)
}

// TranscodeAs converts input, known to be of format inFormat, to every
// requested output format. The input is normalized to a single SFNT
// container and each output is encoded independently from it, so no output
// format's encoding affects another's. Normalization errors abort the call;
// per-output encoding errors are recorded in the result and do not.
func (cv *Converter) TranscodeAs(input []byte, inFormat font.Format, outputs ...font.Format) (*Result, error) {
	if cv.cache != nil {
		if res, ok := cv.cache.get(memoKey(input, inFormat, outputs)); ok {
			tracer().Debugf("conversion result served from cache")
			return res, nil
		}
	}
	c, err := cv.normalize(input, inFormat)
	if err != nil {
		return nil, err
	}
	res := cv.encodeAll(c, outputs)
	if cv.cache != nil {
		cv.cache.put(memoKey(input, inFormat, outputs), res)
	}
	return res, nil
}

// TranscodeText is Transcode preceded by a subsetting step reducing the
// font to the glyphs needed for text. Subsetting is best-effort: if no
// Subsetter is configured or it fails, the unmodified input is converted
// and the diagnostic is attached to the result.
func (cv *Converter) TranscodeText(input []byte, text string, hinting bool, outputs ...font.Format) (*Result, error) {
	subset, diag := cv.trySubset(input, text, hinting)
	res, err := cv.Transcode(subset, outputs...)
	if err != nil {
		return nil, err
	}
	res.SubsetDiag = diag
	return res, nil
}

// trySubset returns a best-effort subset of input and a diagnostic, never
// an error: subsetting failures must not cross this boundary.
func (cv *Converter) trySubset(input []byte, text string, hinting bool) ([]byte, error) {
	if cv.subsetter == nil || text == "" {
		return input, nil
	}
	subset, err := cv.subsetter.Subset(input, text, hinting)
	if err != nil || len(subset) == 0 {
		tracer().Infof("subsetting failed, falling back to full font: %v", err)
		return input, err
	}
	return subset, nil
}

// normalize turns input into the one SFNT container all encoders work
// from.
func (cv *Converter) normalize(input []byte, inFormat font.Format) (*sfnt.Container, error) {
	switch inFormat {
	case font.FormatTTF:
		return sfnt.Parse(input)
	case font.FormatWOFF:
		return woff.Decode(input)
	case font.FormatWOFF2:
		return cv.woff2codec.Decompress(input)
	case font.FormatOTF:
		if cv.rasterizer == nil {
			return nil, core.WrapError(ErrNoRasterizer, core.EMISSING,
				"OTF input needs an outline rasterizer")
		}
		ttf, err := cv.rasterizer.RasterizeOutlines(input)
		if err != nil {
			return nil, err
		}
		return sfnt.Parse(ttf)
	}
	return nil, core.WrapError(ErrUnsupportedInput, core.EINVALID,
		"cannot transcode input of format %q", inFormat)
}

// encodeAll fans out to each requested encoder. One failing output format
// does not abort the others.
func (cv *Converter) encodeAll(c *sfnt.Container, outputs []font.Format) *Result {
	res := &Result{
		Buffers: make(map[font.Format][]byte, len(outputs)),
		Errors:  make(map[font.Format]error),
	}
	for _, f := range outputs {
		var buf []byte
		var err error
		switch f {
		case font.FormatTTF:
			buf, err = sfnt.Encode(c)
		case font.FormatWOFF:
			buf, err = woff.Encode(c)
		case font.FormatWOFF2:
			buf, err = cv.woff2codec.Compress(c)
		default:
			err = core.Error(core.EINVALID, "cannot encode output format %q", f)
		}
		if err != nil {
			tracer().Errorf("encoding %s failed: %v", f, err)
			res.Errors[f] = err
			continue
		}
		res.Buffers[f] = buf
	}
	cv.label(res, c)
	return res
}

// label attaches font metadata to a result. Metadata extraction is
// advisory; on failure the defaults apply.
func (cv *Converter) label(res *Result, c *sfnt.Container) {
	buf, err := sfnt.Encode(c)
	if err != nil {
		res.Metadata = font.DefaultMetadata(font.FormatUnknown)
		return
	}
	res.Metadata, _ = cv.readMeta(buf)
}

// stdWoff2Codec adapts package woff2 to the Woff2Codec interface.
type stdWoff2Codec struct{}

func (stdWoff2Codec) Compress(c *sfnt.Container) ([]byte, error) {
	return woff2.Encode(c)
}

func (stdWoff2Codec) Decompress(buf []byte) (*sfnt.Container, error) {
	return woff2.Decode(buf)
}
