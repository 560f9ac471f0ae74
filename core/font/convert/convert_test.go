package convert

import (
	"bytes"
	"errors"
	"testing"

	"github.com/npillmayer/fontpack/core/font"
	"github.com/npillmayer/fontpack/core/font/sfnt"
	"github.com/npillmayer/fontpack/core/font/woff"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Preparation ------------------------------------------------

type ConvertTestEnviron struct {
	suite.Suite
	ttf []byte // a minimal synthetic TrueType font
}

// listen for 'go test' command --> run test methods
func TestConverter(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontpack.convert")
	defer teardown()
	suite.Run(t, new(ConvertTestEnviron))
}

// run once, before test suite methods
func (env *ConvertTestEnviron) SetupSuite() {
	c := sfnt.New(sfnt.FlavorTrueType)
	c.Add(sfnt.NewTableRecord(sfnt.T("glyf"), bytes.Repeat([]byte{0xca, 0xfe}, 50)))
	c.Add(sfnt.NewTableRecord(sfnt.T("cmap"), []byte{1, 2, 3}))
	c.Add(sfnt.NewTableRecord(sfnt.T("head"), bytes.Repeat([]byte{7}, 54)))
	buf, err := sfnt.Encode(c)
	env.Require().NoError(err, "cannot set up synthetic test font")
	env.ttf = buf
}

// --- Stub collaborators ----------------------------------------------------

// brokenCodec fails both directions.
type brokenCodec struct{}

func (brokenCodec) Compress(c *sfnt.Container) ([]byte, error) {
	return nil, errors.New("codec out of order")
}

func (brokenCodec) Decompress(buf []byte) (*sfnt.Container, error) {
	return nil, errors.New("codec out of order")
}

// countingCodec records how often it has been consulted.
type countingCodec struct {
	stdWoff2Codec
	calls int
}

func (cc *countingCodec) Compress(c *sfnt.Container) ([]byte, error) {
	cc.calls++
	return cc.stdWoff2Codec.Compress(c)
}

func (cc *countingCodec) Decompress(buf []byte) (*sfnt.Container, error) {
	cc.calls++
	return cc.stdWoff2Codec.Decompress(buf)
}

// brokenSubsetter never produces a subset.
type brokenSubsetter struct{}

func (brokenSubsetter) Subset(buf []byte, text string, hinting bool) ([]byte, error) {
	return nil, errors.New("cannot subset anything")
}

// cannedSubsetter returns a fixed replacement buffer.
type cannedSubsetter struct {
	out []byte
}

func (cs cannedSubsetter) Subset(buf []byte, text string, hinting bool) ([]byte, error) {
	return cs.out, nil
}

// --- Tests -----------------------------------------------------------------

func (env *ConvertTestEnviron) TestTranscodeToWoff() {
	cv := New()
	res, err := cv.Transcode(env.ttf, font.FormatWOFF)
	env.Require().NoError(err)
	buf, ok := res.Buffer(font.FormatWOFF)
	env.Require().True(ok, "expected a WOFF buffer in the result")
	c, err := woff.Decode(buf)
	env.Require().NoError(err, "expected the produced WOFF to decode cleanly")
	env.Equal(3, c.NumTables(), "expected all 3 tables to survive transcoding")
	_, ok = c.Table(sfnt.T("glyf"))
	env.True(ok, "expected table glyf to survive transcoding")
}

func (env *ConvertTestEnviron) TestTranscodeRoundTripThroughWoff2() {
	cv := New()
	res, err := cv.Transcode(env.ttf, font.FormatWOFF2)
	env.Require().NoError(err)
	w2, ok := res.Buffer(font.FormatWOFF2)
	env.Require().True(ok, "expected a WOFF2 buffer in the result")
	// feed the WOFF2 back in and ask for TTF
	res, err = cv.Transcode(w2, font.FormatTTF)
	env.Require().NoError(err)
	ttf, ok := res.Buffer(font.FormatTTF)
	env.Require().True(ok, "expected a TTF buffer in the result")
	env.Equal(env.ttf, ttf, "expected TTF -> WOFF2 -> TTF to reproduce the input")
}

// One failing output format must not spoil the others.
func (env *ConvertTestEnviron) TestPartialFailure() {
	cv := New(WithWoff2Codec(brokenCodec{}))
	res, err := cv.Transcode(env.ttf, font.FormatWOFF, font.FormatWOFF2)
	env.Require().NoError(err, "per-output failures may not abort the conversion")
	_, ok := res.Buffer(font.FormatWOFF)
	env.True(ok, "expected the WOFF output to succeed")
	_, ok = res.Buffer(font.FormatWOFF2)
	env.False(ok, "did not expect a WOFF2 buffer from a broken codec")
	env.Error(res.Errors[font.FormatWOFF2], "expected the WOFF2 failure to be recorded")
}

func (env *ConvertTestEnviron) TestUnsupportedInput() {
	codec := &countingCodec{}
	cv := New(WithWoff2Codec(codec))
	_, err := cv.Transcode([]byte{9, 9, 9, 9}, font.FormatWOFF2)
	env.Require().Error(err)
	env.True(errors.Is(err, ErrUnsupportedInput), "expected ErrUnsupportedInput, got %v", err)
	env.Equal(0, codec.calls, "collaborators must not be consulted for unsupported input")
}

func (env *ConvertTestEnviron) TestTruncatedInput() {
	cv := New()
	_, err := cv.Transcode([]byte{0}, font.FormatWOFF)
	env.True(errors.Is(err, font.ErrTooShort), "expected ErrTooShort, got %v", err)
}

func (env *ConvertTestEnviron) TestOTFNeedsRasterizer() {
	c := sfnt.New(sfnt.FlavorOTTO)
	c.Add(sfnt.NewTableRecord(sfnt.T("CFF "), []byte{1, 2, 3, 4}))
	otf, err := sfnt.Encode(c)
	env.Require().NoError(err)
	cv := New()
	_, err = cv.Transcode(otf, font.FormatWOFF)
	env.True(errors.Is(err, ErrNoRasterizer), "expected ErrNoRasterizer, got %v", err)
}

// A failing subsetter degrades to converting the full font, with the
// failure attached as a diagnostic.
func (env *ConvertTestEnviron) TestSubsetFallback() {
	cv := New(WithSubsetter(brokenSubsetter{}))
	res, err := cv.TranscodeText(env.ttf, "Hello", true, font.FormatWOFF)
	env.Require().NoError(err, "a failing subsetter may not abort the conversion")
	env.Error(res.SubsetDiag, "expected the subsetting failure as a diagnostic")
	buf, ok := res.Buffer(font.FormatWOFF)
	env.Require().True(ok, "expected a WOFF buffer despite the failed subsetting")
	c, err := woff.Decode(buf)
	env.Require().NoError(err)
	env.Equal(3, c.NumTables(), "expected the full, unsubsetted font to be converted")
}

func (env *ConvertTestEnviron) TestSubsetApplied() {
	// the "subset" is a one-table font standing in for a real reduction
	small := sfnt.New(sfnt.FlavorTrueType)
	small.Add(sfnt.NewTableRecord(sfnt.T("glyf"), []byte{1, 2, 3, 4}))
	smallTTF, err := sfnt.Encode(small)
	env.Require().NoError(err)
	cv := New(WithSubsetter(cannedSubsetter{out: smallTTF}))
	res, err := cv.TranscodeText(env.ttf, "Hello", true, font.FormatWOFF)
	env.Require().NoError(err)
	env.NoError(res.SubsetDiag, "did not expect a subsetting diagnostic")
	buf, ok := res.Buffer(font.FormatWOFF)
	env.Require().True(ok)
	c, err := woff.Decode(buf)
	env.Require().NoError(err)
	env.Equal(1, c.NumTables(), "expected the subsetted font to be converted")
}

func (env *ConvertTestEnviron) TestEmptyTextSkipsSubsetting() {
	cv := New(WithSubsetter(brokenSubsetter{}))
	res, err := cv.TranscodeText(env.ttf, "", true, font.FormatWOFF)
	env.Require().NoError(err)
	env.NoError(res.SubsetDiag, "empty text must bypass the subsetter")
}

// The synthetic test font has no readable name table, so labeling must
// fall back to the defaults instead of failing.
func (env *ConvertTestEnviron) TestMetadataDefaults() {
	cv := New()
	res, err := cv.Transcode(env.ttf, font.FormatWOFF)
	env.Require().NoError(err)
	env.Equal("Unknown", res.Metadata.Family)
	env.Equal("Regular", res.Metadata.Style)
	env.Equal(400, res.Metadata.Weight)
}

func (env *ConvertTestEnviron) TestBatch() {
	cv := New()
	items := []BatchItem{
		{Name: "a", Input: env.ttf},
		{Name: "broken", Input: []byte{9, 9, 9, 9}},
		{Name: "b", Input: env.ttf},
	}
	results := cv.Batch(items, 2, font.FormatWOFF)
	env.Require().Len(results, 3)
	env.Equal("a", results[0].Name, "expected results in item order")
	env.NoError(results[0].Err)
	_, ok := results[0].Result.Buffer(font.FormatWOFF)
	env.True(ok, "expected item a to convert")
	env.Error(results[1].Err, "expected item broken to fail normalization")
	env.NoError(results[2].Err)
}
