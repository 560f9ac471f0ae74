// fontcli is a small command line front end for the fontpack converter:
// it reads a font file (TTF, OTF, WOFF or WOFF2), transcodes it to the
// requested web font formats and writes the results next to the input.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flopp/go-findfont"
	"github.com/npillmayer/fontpack/core"
	"github.com/npillmayer/fontpack/core/font"
	"github.com/npillmayer/fontpack/core/font/convert"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

// tracer traces with key 'fontpack.convert'
func tracer() tracing.Trace {
	return tracing.Select("fontpack.convert")
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":        "go",
		"trace.fontpack.fonts":   "Error",
		"trace.fontpack.convert": "Error",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	tlevel := flag.String("trace", "Error", "Trace level [Debug|Info|Error]")
	fontname := flag.String("font", "", "Font to convert (file path or system font name)")
	formats := flag.String("formats", "woff,woff2", "Output formats, comma separated [ttf|woff|woff2]")
	text := flag.String("text", "", "Subset the font to the glyphs of this text (needs a subsetter)")
	outdir := flag.String("out", "", "Output directory (default: directory of input)")
	flag.Parse()
	tracer().SetTraceLevel(traceLevel(*tlevel))

	if *fontname == "" {
		pterm.Error.Println("no font given, use -font")
		os.Exit(2)
	}
	path, buf, err := loadFont(*fontname)
	if err != nil {
		core.UserError(err)
		os.Exit(3)
	}
	outputs, err := parseFormats(*formats)
	if err != nil {
		core.UserError(err)
		os.Exit(2)
	}

	cv := convert.New(convert.WithCacheSize(16))
	var res *convert.Result
	if *text != "" {
		res, err = cv.TranscodeText(buf, *text, true, outputs...)
	} else {
		res, err = cv.Transcode(buf, outputs...)
	}
	if err != nil {
		core.UserError(err)
		os.Exit(4)
	}
	report(res)
	if err := writeOutputs(path, *outdir, res); err != nil {
		core.UserError(err)
		os.Exit(5)
	}
}

// loadFont reads the font file at name, trying name as a system font name
// if it is not a readable path.
func loadFont(name string) (string, []byte, error) {
	path := name
	if _, err := os.Stat(path); err != nil {
		fpath, err := findfont.Find(name) // try to find as system font
		if err != nil {
			return "", nil, core.WrapError(err, core.EMISSING, "font %q not found", name)
		}
		tracer().Infof("found system font %s", fpath)
		path = fpath
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", nil, core.WrapError(err, core.EMISSING, "cannot read font %q", path)
	}
	return path, buf, nil
}

func parseFormats(list string) ([]font.Format, error) {
	var outputs []font.Format
	for _, name := range strings.Split(list, ",") {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "ttf":
			outputs = append(outputs, font.FormatTTF)
		case "woff":
			outputs = append(outputs, font.FormatWOFF)
		case "woff2":
			outputs = append(outputs, font.FormatWOFF2)
		case "":
			// skip
		default:
			return nil, core.Error(core.EINVALID, "unknown output format %q", name)
		}
	}
	if len(outputs) == 0 {
		return nil, core.Error(core.EINVALID, "no output formats given")
	}
	return outputs, nil
}

// report prints a labeled per-format summary of a conversion.
func report(res *convert.Result) {
	md := res.Metadata
	pterm.Info.Printf("%s %s (weight %d, %d glyphs)\n", md.Family, md.Style, md.Weight, md.GlyphCount)
	if res.SubsetDiag != nil {
		pterm.Warning.Printf("subsetting failed, converted the full font: %v\n", res.SubsetDiag)
	}
	for f, buf := range res.Buffers {
		pterm.Success.Printf("%-6s %d bytes\n", f, len(buf))
	}
	for f, err := range res.Errors {
		pterm.Error.Printf("%-6s %s\n", f, core.UserMessage(err))
	}
}

// writeOutputs stores every produced buffer as <input-stem>.<format>.
func writeOutputs(inputPath, outdir string, res *convert.Result) error {
	if outdir == "" {
		outdir = filepath.Dir(inputPath)
	}
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	for f, buf := range res.Buffers {
		outpath := filepath.Join(outdir, stem+"."+f.String())
		if err := os.WriteFile(outpath, buf, 0644); err != nil {
			return core.WrapError(err, core.EINTERNAL, "cannot write %s", outpath)
		}
		pterm.Info.Printf("wrote %s\n", outpath)
	}
	return nil
}

func traceLevel(name string) tracing.TraceLevel {
	switch strings.ToLower(name) {
	case "debug":
		return tracing.LevelDebug
	case "info":
		return tracing.LevelInfo
	}
	return tracing.LevelError
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " fontpack ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}
