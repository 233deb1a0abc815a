package blend

import "math"

// Per-channel blend functions B(s, d) on unpremultiplied values, where s is
// the layer and d the backdrop.

func screen(s, d byte) byte {
	return 255 - mulDiv255(255-s, 255-d)
}

// overlay is hardLight with the operands swapped.
func overlay(s, d byte) byte {
	return hardLight(d, s)
}

func hardLight(s, d byte) byte {
	if s <= 127 {
		return byte(min(255, 2*uint16(mulDiv255(s, d))))
	}
	return screen(byte(2*uint16(s)-255), d)
}

func softLight(s, d byte) byte {
	sf, df := float64(s)/255, float64(d)/255
	var r float64
	if sf <= 0.5 {
		r = df - (1-2*sf)*df*(1-df)
	} else {
		var dx float64
		if df <= 0.25 {
			dx = ((16*df-12)*df + 4) * df
		} else {
			dx = math.Sqrt(df)
		}
		r = df + (2*sf-1)*(dx-df)
	}
	return unit(float32(r))
}

func colorDodge(s, d byte) byte {
	if d == 0 {
		return 0
	}
	if s == 255 {
		return 255
	}
	return byte(min(255, uint16(d)*255/uint16(255-s)))
}

func colorBurn(s, d byte) byte {
	if d == 255 {
		return 255
	}
	if s == 0 {
		return 0
	}
	return 255 - byte(min(255, uint16(255-d)*255/uint16(s)))
}

// linearBurn is d + s - 1.
func linearBurn(s, d byte) byte {
	v := int(s) + int(d) - 255
	if v < 0 {
		return 0
	}
	return byte(v)
}

func difference(s, d byte) byte {
	if s > d {
		return s - d
	}
	return d - s
}

func exclusion(s, d byte) byte {
	v := int(s) + int(d) - 2*int(mulDiv255(s, d))
	return byte(max(0, min(255, v)))
}

func subtract(s, d byte) byte {
	return subClamp(d, s)
}

func divide(s, d byte) byte {
	if s == 0 {
		if d == 0 {
			return 0
		}
		return 255
	}
	return byte(min(255, (uint16(d)*255+uint16(s)/2)/uint16(s)))
}
