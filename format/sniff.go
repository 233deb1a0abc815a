package format

import "bytes"

// svgScanLimit bounds how far into a text prefix Sniff looks for an <svg tag.
const svgScanLimit = 1024

type signature struct {
	format Format
	magic  string
}

// signatures are matched in order. A '?' in magic matches any byte.
var signatures = []signature{
	{PNG, "\x89PNG\r\n\x1a\n"},
	{JPEG, "\xff\xd8\xff"},
	{GIF, "GIF87a"},
	{GIF, "GIF89a"},
	{WebP, "RIFF????WEBP"},
	{TIFF, "II*\x00"},
	{TIFF, "MM\x00*"},
	{QOI, "qoif"},
	{PSD, "8BPS\x00\x01"},
	{PSD, "8BPS\x00\x02"},
	{BMP, "BM"},
}

// Sniff returns the best guess for the encoding of data.
// It never fails: unrecognized input yields Unknown.
func Sniff(data []byte) Format {
	for _, s := range signatures {
		if match(data, s.magic) {
			return s.format
		}
	}
	if looksLikeSVG(data) {
		return SVG
	}
	return Unknown
}

func match(data []byte, magic string) bool {
	if len(data) < len(magic) {
		return false
	}
	for i := 0; i < len(magic); i++ {
		if magic[i] != '?' && magic[i] != data[i] {
			return false
		}
	}
	return true
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// looksLikeSVG reports whether data starts like an XML document carrying an
// <svg> element near the top.
func looksLikeSVG(data []byte) bool {
	data = bytes.TrimPrefix(data, utf8BOM)
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 || data[0] != '<' {
		return false
	}
	if len(data) > svgScanLimit {
		data = data[:svgScanLimit]
	}
	return bytes.Contains(data, []byte("<svg"))
}
