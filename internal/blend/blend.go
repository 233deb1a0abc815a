// Package blend composites premultiplied RGBA pixels using the layer blend
// modes found in Photoshop documents.
//
// Separable modes apply a per-channel function to unpremultiplied colors;
// the non-separable modes (hue, saturation, color, luminosity) work on the
// whole RGB triplet. Every mode uses the same compositing step:
//
//	Result = (1 - Sa) * D + (1 - Da) * S + Sa * Da * B(Cs, Cb)
package blend

// Func composites one premultiplied source pixel over a premultiplied
// backdrop pixel.
type Func func(sr, sg, sb, sa, dr, dg, db, da byte) (r, g, b, a byte)

// Key is a four-character layer blend mode key.
type Key string

// Blend mode keys.
const (
	KeyPassThrough Key = "pass"
	KeyNormal      Key = "norm"
	KeyDissolve    Key = "diss"
	KeyDarken      Key = "dark"
	KeyMultiply    Key = "mul "
	KeyColorBurn   Key = "idiv"
	KeyLinearBurn  Key = "lbrn"
	KeyLighten     Key = "lite"
	KeyScreen      Key = "scrn"
	KeyColorDodge  Key = "div "
	KeyLinearDodge Key = "lddg"
	KeyOverlay     Key = "over"
	KeySoftLight   Key = "sLit"
	KeyHardLight   Key = "hLit"
	KeyDifference  Key = "diff"
	KeyExclusion   Key = "smud"
	KeySubtract    Key = "fsub"
	KeyDivide      Key = "fdiv"
	KeyHue         Key = "hue "
	KeySaturation  Key = "sat "
	KeyColor       Key = "colr"
	KeyLuminosity  Key = "lum "
)

var funcs = map[Key]Func{
	KeyPassThrough: Normal,
	KeyNormal:      Normal,
	// Dissolve is random per pixel; output must be reproducible.
	KeyDissolve:    Normal,
	KeyDarken:      separable(minByte),
	KeyMultiply:    separable(mulDiv255),
	KeyColorBurn:   separable(colorBurn),
	KeyLinearBurn:  separable(linearBurn),
	KeyLighten:     separable(maxByte),
	KeyScreen:      separable(screen),
	KeyColorDodge:  separable(colorDodge),
	KeyLinearDodge: separable(addClamp),
	KeyOverlay:     separable(overlay),
	KeySoftLight:   separable(softLight),
	KeyHardLight:   separable(hardLight),
	KeyDifference:  separable(difference),
	KeyExclusion:   separable(exclusion),
	KeySubtract:    separable(subtract),
	KeyDivide:      separable(divide),
	KeyHue:         nonSeparable(hslHue),
	KeySaturation:  nonSeparable(hslSaturation),
	KeyColor:       nonSeparable(hslColor),
	KeyLuminosity:  nonSeparable(hslLuminosity),
}

// ForKey returns the function for a blend key. Unknown keys composite as
// Normal and report false.
func ForKey(key string) (Func, bool) {
	f, ok := funcs[Key(key)]
	if !ok {
		return Normal, false
	}
	return f, true
}

// IsNormal reports whether key composites as plain source-over.
func IsNormal(key string) bool {
	switch Key(key) {
	case KeyNormal, KeyPassThrough, KeyDissolve:
		return true
	}
	_, known := funcs[Key(key)]
	return !known
}

// Normal is Porter-Duff source-over.
func Normal(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	inv := 255 - sa
	return addClamp(sr, mulDiv255(dr, inv)),
		addClamp(sg, mulDiv255(dg, inv)),
		addClamp(sb, mulDiv255(db, inv)),
		addClamp(sa, mulDiv255(da, inv))
}

// separable lifts a per-channel function of unpremultiplied values into a
// compositing Func.
func separable(b func(s, d byte) byte) Func {
	return func(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
		if sa == 0 {
			return dr, dg, db, da
		}
		if da == 0 {
			return sr, sg, sb, sa
		}
		return mix(sr, sg, sb, sa, dr, dg, db, da,
			b(unpremul(sr, sa), unpremul(dr, da)),
			b(unpremul(sg, sa), unpremul(dg, da)),
			b(unpremul(sb, sa), unpremul(db, da)))
	}
}

// nonSeparable lifts an RGB triplet function on [0, 1] values into a
// compositing Func.
func nonSeparable(b func(sr, sg, sb, dr, dg, db float32) (float32, float32, float32)) Func {
	return func(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
		if sa == 0 {
			return dr, dg, db, da
		}
		if da == 0 {
			return sr, sg, sb, sa
		}
		fs, fd := float32(sa), float32(da)
		r, g, bl := b(
			float32(sr)/fs, float32(sg)/fs, float32(sb)/fs,
			float32(dr)/fd, float32(dg)/fd, float32(db)/fd)
		return mix(sr, sg, sb, sa, dr, dg, db, da, unit(r), unit(g), unit(bl))
	}
}

// mix applies the compositing step given the blended unpremultiplied color.
func mix(sr, sg, sb, sa, dr, dg, db, da, br, bg, bb byte) (byte, byte, byte, byte) {
	invSa, invDa := 255-sa, 255-da
	saDa := mulDiv255(sa, da)
	ch := func(s, d, b byte) byte {
		return addClamp(addClamp(mulDiv255(d, invSa), mulDiv255(s, invDa)), mulDiv255(saDa, b))
	}
	return ch(sr, dr, br), ch(sg, dg, bg), ch(sb, db, bb), addClamp(sa, mulDiv255(da, invSa))
}
