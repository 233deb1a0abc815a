package svg

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/gogpu/imgpipe/text"
)

// paint is the inherited presentation state at one element.
type paint struct {
	m           text.Matrix
	fill        color.NRGBA
	noFill      bool
	fillOpacity float64
	opacity     float64
	size        float64
	families    []string
	anchor      text.Anchor
	hidden      bool
}

func defaultPaint() paint {
	return paint{
		m:           text.Identity,
		fill:        color.NRGBA{A: 0xff},
		fillOpacity: 1,
		opacity:     1,
		size:        16,
		families:    []string{"serif"},
	}
}

// inherit returns the state of a child element carrying attrs.
func (p paint) inherit(attrs map[string]string) paint {
	c := p
	if v, ok := attrs["transform"]; ok {
		if m, ok := parseTransform(v); ok {
			c.m = p.m.Multiply(m)
		}
	}
	if v, ok := attrs["fill"]; ok {
		switch v = strings.TrimSpace(v); v {
		case "none", "transparent":
			c.noFill = true
		case "inherit", "currentColor":
		default:
			if col, ok := parseColor(v); ok {
				c.fill, c.noFill = col, false
			}
		}
	}
	if v, ok := parseFraction(attrs["fill-opacity"]); ok {
		c.fillOpacity = v
	}
	// opacity is not inherited, but it applies to the whole subtree.
	if v, ok := parseFraction(attrs["opacity"]); ok {
		c.opacity = p.opacity * v
	}
	if v, ok := attrs["font-size"]; ok {
		if s, ok := parseFontSize(v, p.size); ok {
			c.size = s
		}
	}
	if v, ok := attrs["font-family"]; ok {
		if f := parseFamilies(v); len(f) > 0 {
			c.families = f
		}
	}
	switch strings.TrimSpace(attrs["text-anchor"]) {
	case "start":
		c.anchor = text.AnchorStart
	case "middle":
		c.anchor = text.AnchorMiddle
	case "end":
		c.anchor = text.AnchorEnd
	}
	if strings.TrimSpace(attrs["display"]) == "none" || strings.TrimSpace(attrs["visibility"]) == "hidden" {
		c.hidden = true
	}
	return c
}

// color returns the effective text fill, or nil when nothing is painted.
func (p paint) color() color.Color {
	if p.noFill {
		return nil
	}
	c := p.fill
	a := float64(c.A) * p.fillOpacity * p.opacity
	if a <= 0 {
		return nil
	}
	c.A = uint8(math.Round(a))
	return c
}

// unitScale converts length units to pixels at 96 dpi.
var unitScale = map[string]float64{
	"":   1,
	"px": 1,
	"pt": 96.0 / 72,
	"pc": 16,
	"mm": 96 / 25.4,
	"cm": 96 / 2.54,
	"in": 96,
	"em": 16,
	"ex": 8,
}

// parseLength parses an absolute length in pixels. Percentages and unknown
// units are rejected.
func parseLength(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	i := len(s)
	for i > 0 && (s[i-1] >= 'a' && s[i-1] <= 'z' || s[i-1] == '%') {
		i--
	}
	scale, ok := unitScale[s[i:]]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s[:i]), 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v * scale, true
}

func parseFontSize(s string, parent float64) (float64, bool) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return parent * v / 100, true
	}
	if strings.HasSuffix(s, "em") && !strings.HasSuffix(s, "rem") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "em"), 64)
		if err != nil {
			return 0, false
		}
		return parent * v, true
	}
	return parseLength(s)
}

func parseFraction(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	pct := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, false
	}
	if pct {
		v /= 100
	}
	return math.Max(0, math.Min(1, v)), true
}

func parseFamilies(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.Trim(strings.TrimSpace(f), `"'`)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// numbers splits a comma or whitespace separated number list.
func numbers(s string) ([]float64, bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func firstListItem(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func parseViewBox(s string) (ViewBox, bool) {
	v, ok := numbers(s)
	if !ok || len(v) != 4 || v[2] <= 0 || v[3] <= 0 {
		return ViewBox{}, false
	}
	return ViewBox{X: v[0], Y: v[1], W: v[2], H: v[3]}, true
}

// parseTransform parses a transform list such as
// "translate(10 20) rotate(45) scale(2)". Functions apply right to left.
func parseTransform(s string) (text.Matrix, bool) {
	m := text.Identity
	for {
		s = strings.TrimLeft(s, " \t\r\n,")
		if s == "" {
			return m, true
		}
		open := strings.IndexByte(s, '(')
		end := strings.IndexByte(s, ')')
		if open < 0 || end < open {
			return text.Identity, false
		}
		name := strings.TrimSpace(s[:open])
		args, ok := numbers(s[open+1 : end])
		if !ok {
			return text.Identity, false
		}
		t, ok := transformFunc(name, args)
		if !ok {
			return text.Identity, false
		}
		m = m.Multiply(t)
		s = s[end+1:]
	}
}

func transformFunc(name string, a []float64) (text.Matrix, bool) {
	switch {
	case name == "matrix" && len(a) == 6:
		return text.Matrix{a[0], a[1], a[2], a[3], a[4], a[5]}, true
	case name == "translate" && len(a) == 1:
		return text.Matrix{1, 0, 0, 1, a[0], 0}, true
	case name == "translate" && len(a) == 2:
		return text.Matrix{1, 0, 0, 1, a[0], a[1]}, true
	case name == "scale" && len(a) == 1:
		return text.Matrix{a[0], 0, 0, a[0], 0, 0}, true
	case name == "scale" && len(a) == 2:
		return text.Matrix{a[0], 0, 0, a[1], 0, 0}, true
	case name == "rotate" && (len(a) == 1 || len(a) == 3):
		sin, cos := math.Sincos(a[0] * math.Pi / 180)
		r := text.Matrix{cos, sin, -sin, cos, 0, 0}
		if len(a) == 3 {
			to := text.Matrix{1, 0, 0, 1, a[1], a[2]}
			back := text.Matrix{1, 0, 0, 1, -a[1], -a[2]}
			r = to.Multiply(r).Multiply(back)
		}
		return r, true
	case name == "skewX" && len(a) == 1:
		return text.Matrix{1, 0, math.Tan(a[0] * math.Pi / 180), 1, 0, 0}, true
	case name == "skewY" && len(a) == 1:
		return text.Matrix{1, math.Tan(a[0] * math.Pi / 180), 0, 1, 0, 0}, true
	}
	return text.Matrix{}, false
}

// parseColor understands #rgb, #rrggbb, rgb(), rgba() and named colors.
func parseColor(s string) (color.NRGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba("):
		open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
		if end < open {
			return color.NRGBA{}, false
		}
		parts := strings.Split(s[open+1:end], ",")
		if len(parts) != 3 && len(parts) != 4 {
			return color.NRGBA{}, false
		}
		var c [4]uint8
		c[3] = 0xff
		for i, p := range parts {
			p = strings.TrimSpace(p)
			if i == 3 {
				a, ok := parseFraction(p)
				if !ok {
					return color.NRGBA{}, false
				}
				c[3] = uint8(math.Round(a * 255))
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
			if err != nil {
				return color.NRGBA{}, false
			}
			if strings.HasSuffix(p, "%") {
				v = v * 255 / 100
			}
			c[i] = uint8(math.Round(math.Max(0, math.Min(255, v))))
		}
		return color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}, true
	}
	if named, ok := colornames.Map[s]; ok {
		return color.NRGBA{R: named.R, G: named.G, B: named.B, A: named.A}, true
	}
	return color.NRGBA{}, false
}

func parseHex(h string) (color.NRGBA, bool) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}
