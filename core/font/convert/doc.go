/*
Package convert orchestrates conversions between font container formats.

A Converter normalizes any supported input (TTF/OTF SFNT, WOFF, WOFF2) to
the shared sfnt.Container model and fans out to each requested output
encoder. The container codecs live in the sibling packages sfnt, woff and
woff2; capabilities the codec core deliberately does not reproduce, such as
glyph subsetting and CFF outline rasterization, are consumed through
collaborator interfaces and can be injected per Converter.

Failure granularity: structural errors during input normalization abort the
whole conversion, since there is no safe partial SFNT. An error from one
output encoder only marks that format as failed; the remaining formats are
still produced. Callers receive a per-format result map and decide whether
partial success is acceptable.

License

BSD 3-Clause License

Copyright (c) 2023–24, Norbert Pillmayer

All rights reserved.

Redistribution and use in source and binary forms, with or without
modification, are permitted provided that the following conditions are met:

1. Redistributions of source code must retain the above copyright notice, this
list of conditions and the following disclaimer.

2. Redistributions in binary form must reproduce the above copyright notice,
this list of conditions and the following disclaimer in the documentation
and/or other materials provided with the distribution.

3. Neither the name of the copyright holder nor the names of its
contributors may be used to endorse or promote products derived from
this software without specific prior written permission.

THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE
FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL
DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER
CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY,
OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.
*/
package convert

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontpack.convert'
func tracer() tracing.Trace {
	return tracing.Select("fontpack.convert")
}
