package blend

import "math"

// mulDiv255 returns a*b/255 rounded to nearest.
func mulDiv255(a, b byte) byte {
	return byte((uint16(a)*uint16(b) + 127) / 255)
}

func addClamp(a, b byte) byte {
	sum := uint16(a) + uint16(b)
	if sum > 255 {
		return 255
	}
	return byte(sum)
}

func subClamp(a, b byte) byte {
	if b >= a {
		return 0
	}
	return a - b
}

func minByte(a, b byte) byte {
	if a < b {
		return a
	}
	return b
}

func maxByte(a, b byte) byte {
	if a > b {
		return a
	}
	return b
}

// unpremul recovers a straight channel value from a premultiplied one.
func unpremul(c, a byte) byte {
	if a == 0 {
		return 0
	}
	v := (uint16(c)*255 + uint16(a)/2) / uint16(a)
	if v > 255 {
		return 255
	}
	return byte(v)
}

// unit converts a [0, 1] value to a byte, clamping out-of-range input.
func unit(v float32) byte {
	switch {
	case v <= 0 || v != v:
		return 0
	case v >= 1:
		return 255
	}
	return byte(math.Round(float64(v) * 255))
}
