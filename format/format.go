// Package format identifies image encodings from their leading bytes.
//
// Sniffing is advisory: it looks only at magic numbers and a short textual
// prefix, never at the payload. Decoders are expected to validate the bytes
// themselves and fail cleanly when a guess turns out to be wrong.
package format

// Format is a best-guess encoding family derived from byte content.
type Format uint8

const (
	// Unknown means no signature matched.
	Unknown Format = iota

	// PNG is the Portable Network Graphics format.
	PNG

	// JPEG is the JFIF/Exif JPEG format.
	JPEG

	// GIF covers GIF87a and GIF89a, static or animated.
	GIF

	// WebP covers the RIFF WebP container: lossy, lossless, extended and animated.
	WebP

	// BMP is the Windows bitmap format.
	BMP

	// TIFF covers little and big endian TIFF.
	TIFF

	// QOI is the Quite OK Image format.
	QOI

	// SVG is a scalable vector graphics document.
	SVG

	// PSD is an Adobe Photoshop layered document.
	PSD

	// formatCount is the number of formats (for internal use).
	formatCount
)

// Family groups formats by the kind of adapter that decodes them.
type Family uint8

const (
	// FamilyNone is the family of Unknown.
	FamilyNone Family = iota

	// FamilyRaster is bitmap data, static or animated.
	FamilyRaster

	// FamilyVector is a scene description that must be rasterized.
	FamilyVector

	// FamilyLayered is a layer stack that must be flattened.
	FamilyLayered
)

// Info contains metadata about a format.
type Info struct {
	// Name is the short lowercase name, e.g. "png".
	Name string

	// MIME is the registered media type.
	MIME string

	// Family is the adapter family.
	Family Family

	// Animated reports whether the format can carry more than one frame.
	Animated bool
}

var infoTable = [formatCount]Info{
	Unknown: {Name: "unknown", MIME: "application/octet-stream"},
	PNG:     {Name: "png", MIME: "image/png", Family: FamilyRaster},
	JPEG:    {Name: "jpeg", MIME: "image/jpeg", Family: FamilyRaster},
	GIF:     {Name: "gif", MIME: "image/gif", Family: FamilyRaster, Animated: true},
	WebP:    {Name: "webp", MIME: "image/webp", Family: FamilyRaster, Animated: true},
	BMP:     {Name: "bmp", MIME: "image/bmp", Family: FamilyRaster},
	TIFF:    {Name: "tiff", MIME: "image/tiff", Family: FamilyRaster},
	QOI:     {Name: "qoi", MIME: "image/qoi", Family: FamilyRaster},
	SVG:     {Name: "svg", MIME: "image/svg+xml", Family: FamilyVector},
	PSD:     {Name: "psd", MIME: "image/vnd.adobe.photoshop", Family: FamilyLayered},
}

// Info returns the metadata for f. Out of range values report Unknown.
func (f Format) Info() Info {
	if f >= formatCount {
		return infoTable[Unknown]
	}
	return infoTable[f]
}

// String returns the short name of the format.
func (f Format) String() string {
	return f.Info().Name
}

// Family returns the adapter family of the format.
func (f Format) Family() Family {
	return f.Info().Family
}

// MIME returns the media type of the format.
func (f Format) MIME() string {
	return f.Info().MIME
}

// IsKnown reports whether f is a recognized format.
func (f Format) IsKnown() bool {
	return f != Unknown && f < formatCount
}

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyRaster:
		return "raster"
	case FamilyVector:
		return "vector"
	case FamilyLayered:
		return "layered"
	default:
		return "none"
	}
}

// ParseFamily returns the family with the given name.
func ParseFamily(name string) (Family, bool) {
	switch name {
	case "raster":
		return FamilyRaster, true
	case "vector":
		return FamilyVector, true
	case "layered":
		return FamilyLayered, true
	default:
		return FamilyNone, false
	}
}
