package psd

import "encoding/binary"

// reader walks a big-endian byte slice. The first short read sets err and
// every later call returns zero values, so parsers can check once per
// section.
type reader struct {
	data []byte
	off  int
	err  error
	// large is set for PSB files, where several lengths are 64-bit.
	large bool
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.remaining() {
		r.err = ErrTruncated
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) skip(n int) {
	r.take(n)
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *reader) i16() int16 {
	return int16(r.u16()) //nolint:gosec // two's complement reinterpretation
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *reader) i32() int32 {
	return int32(r.u32()) //nolint:gosec // two's complement reinterpretation
}

func (r *reader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// length reads a section length: 32-bit in PSD, 64-bit in PSB.
func (r *reader) length() int {
	if r.large {
		return r.clamp(r.u64())
	}
	return r.clamp(uint64(r.u32()))
}

// clamp converts an on-disk length to int, failing when it cannot fit in
// the remaining data.
func (r *reader) clamp(n uint64) int {
	if r.err == nil && n > uint64(r.remaining()) {
		r.err = ErrTruncated
		return 0
	}
	return int(n) //nolint:gosec // bounded by len(data)
}

// sub returns a reader over the next n bytes and advances past them.
func (r *reader) sub(n int) *reader {
	return &reader{data: r.take(n), large: r.large}
}
