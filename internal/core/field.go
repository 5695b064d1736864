package core

import (
	"fmt"

	"github.com/chewxy/math32"
)

// MaxCoord is the largest seed coordinate a texel can carry.
const MaxCoord = 0xfffe

// Texel is one RGBA8 texel of a field texture. A seed at (x, y) is stored
// as x+1 in R (high byte) and G (low byte) and y+1 in B and A. The all-zero
// texel means no seed has reached the pixel yet.
type Texel [4]uint8

// NoSeed is the sentinel texel.
var NoSeed = Texel{}

// EncodeSeed packs the seed coordinate (x, y) into a texel.
func EncodeSeed(x, y int) Texel {
	x++
	y++
	return Texel{uint8(x >> 8), uint8(x), uint8(y >> 8), uint8(y)}
}

// Seed unpacks the coordinate stored in t. ok is false for the sentinel.
func (t Texel) Seed() (x, y int, ok bool) {
	x = int(t[0])<<8 | int(t[1])
	y = int(t[2])<<8 | int(t[3])
	if x == 0 || y == 0 {
		return 0, 0, false
	}
	return x - 1, y - 1, true
}

// Field is a decoded view of a field texture readback.
type Field struct {
	W, H  int
	seeds []int32
}

// DecodeField builds a Field from tightly packed RGBA8 texels.
func DecodeField(s Size, pix []byte) (*Field, error) {
	if s.Empty() {
		return nil, fmt.Errorf("decode field: empty size %dx%d", s.W, s.H)
	}
	if len(pix) != 4*s.Area() {
		return nil, fmt.Errorf("decode field: got %d bytes, want %d", len(pix), 4*s.Area())
	}
	f := &Field{W: s.W, H: s.H, seeds: make([]int32, 2*s.Area())}
	for i := 0; i < s.Area(); i++ {
		t := Texel{pix[4*i], pix[4*i+1], pix[4*i+2], pix[4*i+3]}
		x, y, ok := t.Seed()
		if !ok {
			f.seeds[2*i] = -1
			f.seeds[2*i+1] = -1
			continue
		}
		f.seeds[2*i] = int32(x)
		f.seeds[2*i+1] = int32(y)
	}
	return f, nil
}

// Index returns the linear index for coordinates (x, y).
func (f *Field) Index(x, y int) int { return y*f.W + x }

// Size returns the field dimensions.
func (f *Field) Size() Size { return Size{W: f.W, H: f.H} }

// SeedAt returns the nearest seed recorded for pixel (x, y).
func (f *Field) SeedAt(x, y int) (sx, sy int, ok bool) {
	i := f.Index(x, y)
	if f.seeds[2*i] < 0 {
		return 0, 0, false
	}
	return int(f.seeds[2*i]), int(f.seeds[2*i+1]), true
}

// Distance returns the Euclidean distance from (x, y) to its recorded seed,
// or -1 when the pixel was never reached.
func (f *Field) Distance(x, y int) float32 {
	sx, sy, ok := f.SeedAt(x, y)
	if !ok {
		return -1
	}
	dx := float32(x - sx)
	dy := float32(y - sy)
	return math32.Sqrt(dx*dx + dy*dy)
}

// Unreached counts pixels still holding the sentinel.
func (f *Field) Unreached() int {
	n := 0
	for i := 0; i < len(f.seeds); i += 2 {
		if f.seeds[i] < 0 {
			n++
		}
	}
	return n
}
