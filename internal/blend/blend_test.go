package blend

import "testing"

type px struct{ r, g, b, a byte }

func apply(f Func, s, d px) px {
	r, g, b, a := f(s.r, s.g, s.b, s.a, d.r, d.g, d.b, d.a)
	return px{r, g, b, a}
}

func near(a, b px) bool {
	d := func(x, y byte) bool { return x-y <= 1 || y-x <= 1 }
	return d(a.r, b.r) && d(a.g, b.g) && d(a.b, b.b) && d(a.a, b.a)
}

func TestForKey(t *testing.T) {
	gray := px{128, 128, 128, 255}
	white := px{255, 255, 255, 255}
	red := px{255, 0, 0, 255}
	blue := px{0, 0, 255, 255}
	tests := []struct {
		key  string
		s, d px
		want px
	}{
		{"norm", red, blue, red},
		{"mul ", gray, white, gray},
		{"mul ", red, blue, px{0, 0, 0, 255}},
		{"scrn", red, blue, px{255, 0, 255, 255}},
		{"dark", gray, white, gray},
		{"lite", gray, px{0, 0, 0, 255}, gray},
		{"diff", white, gray, px{127, 127, 127, 255}},
		{"smud", white, white, px{0, 0, 0, 255}},
		{"lddg", gray, gray, white},
		{"lbrn", gray, gray, px{1, 1, 1, 255}},
		{"fsub", gray, white, px{127, 127, 127, 255}},
		{"div ", px{0, 0, 0, 255}, gray, gray},
		{"idiv", white, gray, gray},
		{"hLit", white, gray, white},
		{"over", red, gray, px{255, 0, 0, 255}},
		{"lum ", white, red, white},
		{"colr", gray, gray, gray},
	}
	for _, tt := range tests {
		f, ok := ForKey(tt.key)
		if !ok {
			t.Errorf("ForKey(%q) ok = false", tt.key)
			continue
		}
		if got := apply(f, tt.s, tt.d); !near(got, tt.want) {
			t.Errorf("ForKey(%q)(%v, %v) = %v, want %v", tt.key, tt.s, tt.d, got, tt.want)
		}
	}
}

func TestForKeyUnknown(t *testing.T) {
	f, ok := ForKey("????")
	if ok {
		t.Error("ForKey(unknown) ok = true")
	}
	s, d := px{10, 20, 30, 255}, px{200, 200, 200, 255}
	if got := apply(f, s, d); got != s {
		t.Errorf("unknown key = %v, want source over %v", got, s)
	}
}

func TestIsNormal(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"norm", true},
		{"pass", true},
		{"diss", true},
		{"zzzz", true},
		{"mul ", false},
		{"hue ", false},
	}
	for _, tt := range tests {
		if got := IsNormal(tt.key); got != tt.want {
			t.Errorf("IsNormal(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

// Every mode leaves the backdrop alone under a transparent source and
// yields the source over a transparent backdrop.
func TestTransparentOperands(t *testing.T) {
	s, d := px{40, 80, 120, 200}, px{90, 60, 30, 255}
	for key, f := range funcs {
		if got := apply(f, px{}, d); got != d {
			t.Errorf("%q over transparent source = %v, want %v", key, got, d)
		}
		if got := apply(f, s, px{}); got != s {
			t.Errorf("%q onto transparent backdrop = %v, want %v", key, got, s)
		}
	}
}

func TestPartialAlpha(t *testing.T) {
	// Half-covered white multiplied onto opaque gray keeps the gray.
	f, _ := ForKey("mul ")
	got := apply(f, px{128, 128, 128, 128}, px{128, 128, 128, 255})
	if !near(got, px{128, 128, 128, 255}) {
		t.Errorf("multiply = %v, want gray", got)
	}
}

func TestSetSatKeepsOrder(t *testing.T) {
	r, g, b := setSat(0.2, 0.8, 0.5, 0.3)
	if r != 0 || g != 0.3 || b <= 0 || b >= 0.3 {
		t.Errorf("setSat() = %v %v %v", r, g, b)
	}
	r, g, b = setSat(0.4, 0.4, 0.4, 0.5)
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("setSat(gray) = %v %v %v, want zeros", r, g, b)
	}
}

func TestUnpremul(t *testing.T) {
	tests := []struct{ c, a, want byte }{
		{0, 0, 0},
		{64, 128, 128},
		{255, 255, 255},
		{200, 100, 255},
	}
	for _, tt := range tests {
		if got := unpremul(tt.c, tt.a); got != tt.want {
			t.Errorf("unpremul(%d, %d) = %d, want %d", tt.c, tt.a, got, tt.want)
		}
	}
}
