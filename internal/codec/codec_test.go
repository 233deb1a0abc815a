package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"runtime"
	"testing"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gogpu/imgpipe/format"
	imgbuf "github.com/gogpu/imgpipe/internal/image"
	"github.com/gogpu/imgpipe/internal/webpanim"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func encode(t *testing.T, f format.Format, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	var err error
	switch f {
	case format.PNG:
		err = png.Encode(&buf, img)
	case format.JPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95})
	case format.BMP:
		err = bmp.Encode(&buf, img)
	case format.TIFF:
		err = tiff.Encode(&buf, img, nil)
	default:
		t.Fatalf("no encoder for %v", f)
	}
	if err != nil {
		t.Fatalf("encode %v: %v", f, err)
	}
	return buf.Bytes()
}

func TestDecodeStill(t *testing.T) {
	src := solid(5, 3, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	for _, f := range []format.Format{format.PNG, format.JPEG, format.BMP, format.TIFF} {
		t.Run(f.String(), func(t *testing.T) {
			data := encode(t, f, src)
			if got := format.Sniff(data); got != f {
				t.Fatalf("Sniff() = %v, want %v", got, f)
			}
			frames, err := Decode(data, f)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if len(frames) != 1 {
				t.Fatalf("len(frames) = %d, want 1", len(frames))
			}
			fr := frames[0]
			if fr.Delay != 0 {
				t.Errorf("Delay = %v, want 0", fr.Delay)
			}
			if b := fr.Image.Bounds(); b.Dx() != 5 || b.Dy() != 3 {
				t.Errorf("bounds = %v, want 5x3", b)
			}
			if len(fr.Image.Pix) != 5*3*4 {
				t.Errorf("len(Pix) = %d, want %d", len(fr.Image.Pix), 5*3*4)
			}
		})
	}
}

func TestDecodeStillLossless(t *testing.T) {
	src := solid(2, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 128})
	frames, err := Decode(encode(t, format.PNG, src), format.PNG)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(frames[0].Image.Pix, src.Pix) {
		t.Errorf("PNG pixels = %v, want %v", frames[0].Image.Pix, src.Pix)
	}
}

func TestDecodeCorrupt(t *testing.T) {
	data := encode(t, format.PNG, solid(4, 4, color.NRGBA{A: 255}))
	if _, err := Decode(data[:len(data)/2], format.PNG); err == nil {
		t.Error("Decode(truncated png) error = nil")
	}
	// Wrong guess: the png decoder rejects jpeg bytes.
	jpg := encode(t, format.JPEG, solid(4, 4, color.NRGBA{A: 255}))
	if _, err := Decode(jpg, format.PNG); err == nil {
		t.Error("Decode(jpeg as png) error = nil")
	}
	if _, err := Decode([]byte("RIFF\x0c\x00\x00\x00WEBPVP8L\x00\x00\x00\x00"), format.WebP); err == nil {
		t.Error("Decode(empty webp) error = nil")
	}
}

func TestDecodeNotApplicable(t *testing.T) {
	for _, f := range []format.Format{format.Unknown, format.SVG, format.PSD} {
		if _, err := Decode([]byte("anything"), f); !errors.Is(err, ErrNotApplicable) {
			t.Errorf("Decode(%v) error = %v, want ErrNotApplicable", f, err)
		}
		if Supported(f) {
			t.Errorf("Supported(%v) = true", f)
		}
	}
	if !Supported(format.GIF) || !Supported(format.QOI) {
		t.Error("Supported(gif/qoi) = false")
	}
}

var gifPalette = color.Palette{
	color.RGBA{R: 255, A: 255},
	color.RGBA{B: 255, A: 255},
}

const (
	gifRed  uint8 = 0
	gifBlue uint8 = 1
)

func gifFrame(rect image.Rectangle, idx uint8) *image.Paletted {
	p := image.NewPaletted(rect, gifPalette)
	for i := range p.Pix {
		p.Pix[i] = idx
	}
	return p
}

func TestDecodeGIFAnimation(t *testing.T) {
	g := &gif.GIF{
		Image: []*image.Paletted{
			gifFrame(image.Rect(0, 0, 4, 4), gifRed),
			gifFrame(image.Rect(2, 2, 4, 4), gifBlue),
			gifFrame(image.Rect(0, 0, 1, 1), gifBlue),
		},
		Delay:    []int{10, 25, 0},
		Disposal: []byte{gif.DisposalNone, gif.DisposalBackground, gif.DisposalNone},
		Config:   image.Config{Width: 4, Height: 4, ColorModel: gifPalette},
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatal(err)
	}

	frames, err := Decode(buf.Bytes(), format.GIF)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("len(frames) = %d, want 3", len(frames))
	}
	wantDelays := []time.Duration{100 * time.Millisecond, 250 * time.Millisecond, 0}
	var total time.Duration
	for i, f := range frames {
		if f.Delay != wantDelays[i] {
			t.Errorf("frame %d delay = %v, want %v", i, f.Delay, wantDelays[i])
		}
		if b := f.Image.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
			t.Errorf("frame %d bounds = %v, want full canvas", i, b)
		}
		total += f.Delay
	}
	if total != 350*time.Millisecond {
		t.Errorf("total duration = %v, want 350ms", total)
	}

	if c := frames[1].Image.NRGBAAt(0, 0); c.R != 255 || c.B != 0 {
		t.Errorf("frame 1 (0,0) = %v, want red kept from frame 0", c)
	}
	if c := frames[1].Image.NRGBAAt(3, 3); c.B != 255 {
		t.Errorf("frame 1 (3,3) = %v, want blue", c)
	}
	// Frame 1 disposed to background: its rectangle is cleared.
	if c := frames[2].Image.NRGBAAt(3, 3); c.A != 0 {
		t.Errorf("frame 2 (3,3) = %v, want transparent", c)
	}
	if c := frames[2].Image.NRGBAAt(0, 0); c.B != 255 {
		t.Errorf("frame 2 (0,0) = %v, want blue", c)
	}
}

func TestDecodeGIFDisposalPrevious(t *testing.T) {
	g := &gif.GIF{
		Image: []*image.Paletted{
			gifFrame(image.Rect(0, 0, 2, 2), gifRed),
			gifFrame(image.Rect(0, 0, 2, 2), gifBlue),
			gifFrame(image.Rect(1, 1, 2, 2), gifBlue),
		},
		Delay:    []int{1, 1, 1},
		Disposal: []byte{gif.DisposalNone, gif.DisposalPrevious, gif.DisposalNone},
		Config:   image.Config{Width: 2, Height: 2, ColorModel: gifPalette},
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatal(err)
	}
	frames, err := Decode(buf.Bytes(), format.GIF)
	if err != nil {
		t.Fatal(err)
	}
	if c := frames[1].Image.NRGBAAt(0, 0); c.B != 255 {
		t.Errorf("frame 1 (0,0) = %v, want blue", c)
	}
	if c := frames[2].Image.NRGBAAt(0, 0); c.R != 255 {
		t.Errorf("frame 2 (0,0) = %v, want red restored", c)
	}
}

func TestDeltas(t *testing.T) {
	ms := func(v ...int) []time.Duration {
		out := make([]time.Duration, len(v))
		for i, x := range v {
			out[i] = time.Duration(x) * time.Millisecond
		}
		return out
	}
	tests := []struct {
		name string
		in   []time.Duration
		want []time.Duration
	}{
		{"monotonic", ms(0, 100, 250, 600), ms(0, 100, 150, 350)},
		{"cumulative ends", ms(100, 250, 600), ms(100, 150, 350)},
		{"duplicate", ms(100, 100, 200), ms(100, 0, 100)},
		{"backwards", ms(300, 100, 250), ms(300, 0, 150)},
		{"empty", nil, ms()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Deltas(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Deltas() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Deltas()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
				if got[i] < 0 {
					t.Errorf("Deltas()[%d] negative", i)
				}
			}
		})
	}
}

type fakeSource struct {
	frames []webpanim.Frame
	err    error
}

func (s *fakeSource) Next() (webpanim.Frame, error) {
	if len(s.frames) == 0 {
		if s.err != nil {
			return webpanim.Frame{}, s.err
		}
		return webpanim.Frame{}, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func TestCollectTimestampedSkipsBadFrames(t *testing.T) {
	img := solid(1, 1, color.NRGBA{A: 255})
	src := &fakeSource{frames: []webpanim.Frame{
		{Image: img, Timestamp: 100 * time.Millisecond},
		{Err: errors.New("bad bitstream"), Timestamp: 250 * time.Millisecond},
		{Image: img, Timestamp: 600 * time.Millisecond},
		{Image: img, Timestamp: 500 * time.Millisecond},
	}}
	frames, err := collectTimestamped(src)
	if err != nil {
		t.Fatalf("collectTimestamped() error = %v", err)
	}
	want := []time.Duration{100 * time.Millisecond, 500 * time.Millisecond, 0}
	if len(frames) != len(want) {
		t.Fatalf("len(frames) = %d, want %d", len(frames), len(want))
	}
	for i, f := range frames {
		if f.Delay != want[i] {
			t.Errorf("frame %d delay = %v, want %v", i, f.Delay, want[i])
		}
	}
}

func TestCollectTimestampedEmpty(t *testing.T) {
	src := &fakeSource{frames: []webpanim.Frame{{Err: errors.New("bad")}}}
	if _, err := collectTimestamped(src); !errors.Is(err, ErrNoFrames) {
		t.Errorf("collectTimestamped() error = %v, want ErrNoFrames", err)
	}
	boom := errors.New("container broke")
	if _, err := collectTimestamped(&fakeSource{err: boom}); !errors.Is(err, boom) {
		t.Errorf("collectTimestamped() error = %v, want %v", err, boom)
	}
}

// allocated returns the bytes allocated on the heap while f runs.
func allocated(f func()) uint64 {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	f()
	runtime.ReadMemStats(&after)
	return after.TotalAlloc - before.TotalAlloc
}

func encodeGIF(t *testing.T, width, height int, frames ...*image.Paletted) []byte {
	t.Helper()
	g := &gif.GIF{
		Image:  frames,
		Delay:  make([]int, len(frames)),
		Config: image.Config{Width: width, Height: height, ColorModel: gifPalette},
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// pngHeader returns a PNG signature and IHDR chunk declaring width x height.
func pngHeader(width, height uint32) []byte {
	ihdr := []byte("IHDR")
	ihdr = binary.BigEndian.AppendUint32(ihdr, width)
	ihdr = binary.BigEndian.AppendUint32(ihdr, height)
	ihdr = append(ihdr, 8, 6, 0, 0, 0) // 8-bit RGBA
	out := []byte("\x89PNG\r\n\x1a\n")
	out = binary.BigEndian.AppendUint32(out, 13)
	out = append(out, ihdr...)
	return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(ihdr))
}

func TestScanGIF(t *testing.T) {
	data := encodeGIF(t, 6, 5,
		gifFrame(image.Rect(0, 0, 4, 4), gifRed),
		gifFrame(image.Rect(2, 2, 6, 5), gifBlue),
		gifFrame(image.Rect(1, 1, 2, 2), gifBlue),
	)
	n, bounds := scanGIF(data)
	if n != 3 {
		t.Errorf("scanGIF() frames = %d, want 3", n)
	}
	if want := image.Rect(0, 0, 6, 5); bounds != want {
		t.Errorf("scanGIF() bounds = %v, want %v", bounds, want)
	}
	if n, _ := scanGIF(data[:20]); n != 0 {
		t.Errorf("scanGIF(truncated) frames = %d, want 0", n)
	}
	if n, _ := scanGIF([]byte("not a gif")); n != 0 {
		t.Errorf("scanGIF(garbage) frames = %d, want 0", n)
	}
}

func TestDecodeRejectsOversizedImages(t *testing.T) {
	many := make([]*image.Paletted, 40)
	for i := range many {
		many[i] = gifFrame(image.Rect(0, 0, 1, 1), gifRed)
	}
	tests := []struct {
		name string
		f    format.Format
		data []byte
	}{
		{"gif max screen", format.GIF, encodeGIF(t, 65535, 65535, gifFrame(image.Rect(0, 0, 1, 1), gifRed))},
		{"gif many frames", format.GIF, encodeGIF(t, 4096, 4096, many...)},
		{"png header", format.PNG, pngHeader(100000, 100000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			n := allocated(func() { _, err = Decode(tt.data, tt.f) })
			if !errors.Is(err, imgbuf.ErrTooLarge) {
				t.Errorf("Decode() error = %v, want ErrTooLarge", err)
			}
			if n > 16<<20 {
				t.Errorf("Decode() allocated %d bytes", n)
			}
		})
	}
}

func TestCollectTimestampedBudget(t *testing.T) {
	// One 64 MiB canvas reported 40 times is charged 40 times.
	img := image.NewNRGBA(image.Rect(0, 0, 4096, 4096))
	src := &fakeSource{}
	for i := range 40 {
		src.frames = append(src.frames, webpanim.Frame{Image: img, Timestamp: time.Duration(i) * time.Millisecond})
	}
	frames, err := collectTimestamped(src)
	if !errors.Is(err, imgbuf.ErrTooLarge) {
		t.Errorf("collectTimestamped() error = %v, want ErrTooLarge", err)
	}
	if frames != nil {
		t.Errorf("collectTimestamped() returned %d frames with an error", len(frames))
	}
}
