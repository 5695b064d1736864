package core

import "github.com/chewxy/math32"

// Size describes the dimensions of a field or surface in pixels.
type Size struct {
	W int
	H int
}

// Empty reports whether either dimension is non-positive.
func (s Size) Empty() bool { return s.W <= 0 || s.H <= 0 }

// Max returns the larger of the two dimensions.
func (s Size) Max() int {
	if s.W > s.H {
		return s.W
	}
	return s.H
}

// Area returns W*H.
func (s Size) Area() int { return s.W * s.H }

// Contains reports whether the integer pixel (x, y) lies inside the size.
func (s Size) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.W && y < s.H
}

// Clamp restricts (x, y) to the valid pixel range. Fields never wrap.
func (s Size) Clamp(x, y int) (int, int) {
	if x < 0 {
		x = 0
	} else if x >= s.W {
		x = s.W - 1
	}
	if y < 0 {
		y = 0
	} else if y >= s.H {
		y = s.H - 1
	}
	return x, y
}

// Point is a pixel-space coordinate. Seeds come from the pointer and may
// carry sub-pixel positions.
type Point struct {
	X float32
	Y float32
}

// Pixel returns the integer pixel covering p, clamped into s.
func (p Point) Pixel(s Size) (int, int) {
	return s.Clamp(int(math32.Floor(p.X)), int(math32.Floor(p.Y)))
}

// Center returns the middle of a field of size s.
func Center(s Size) Point {
	return Point{X: float32(s.W) / 2, Y: float32(s.H) / 2}
}
