// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3bd

import (
	"math"
	"testing"
)

func TestUintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 8, 255, 256, 65535, 65536, 1<<32 - 1, 1 << 32, math.MaxUint64}
	for _, u := range values {
		var buf [8]byte
		w := encodeUint(buf[:], u)
		got := decodeUint(buf[:w])
		if got != u {
			t.Fatalf("encodeUint/decodeUint(%d): got %d, width %d", u, got, w)
		}
	}
}

func TestSintRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 127, -128, 128, math.MaxInt64, math.MinInt64}
	for _, i := range values {
		var buf [8]byte
		w := encodeSint(buf[:], i)
		got := decodeSint(buf[:w])
		if got != i {
			t.Fatalf("encodeSint/decodeSint(%d): got %d, width %d", i, got, w)
		}
	}
}

func TestFloatRoundTrip(t *testing.T) {
	values := []float64{0, 1, -1, 3.5, math.Pi, -math.Pi, 1e300, -1e300, math.SmallestNonzeroFloat64}
	for _, f := range values {
		var buf [8]byte
		w := encodeFloat(buf[:], f)
		got := decodeFloat(buf[:w])
		if got != f {
			t.Fatalf("encodeFloat/decodeFloat(%v): got %v, width %d", f, got, w)
		}
	}
}

// TestUintMinimality checks that every width's bias boundary is the exact
// cutover point: one less than bias[w+1] still fits in width w, and
// bias[w+1] itself needs one more byte.
func TestUintMinimality(t *testing.T) {
	for w := 0; w < 8; w++ {
		var buf [8]byte
		if got := encodeUint(buf[:], uintBias[w+1]-1); got != w {
			t.Fatalf("width %d: bias[w+1]-1=%d encoded at width %d", w, uintBias[w+1]-1, got)
		}
		if got := encodeUint(buf[:], uintBias[w+1]); got != w+1 {
			t.Fatalf("width %d: bias[w+1]=%d encoded at width %d, want %d", w, uintBias[w+1], got, w+1)
		}
	}
}

// TestDoubleTruncation checks that encoding at the smallest sufficient
// width is exactly the big-endian IEEE-754 bytes with trailing zero bytes
// stripped, and decoding zero-pads the missing tail.
func TestDoubleTruncation(t *testing.T) {
	f := 1.0 // exact IEEE-754 bit pattern has many trailing zero bytes
	var full [8]byte
	bits := math.Float64bits(f)
	for i := 0; i < 8; i++ {
		full[i] = byte(bits >> (56 - 8*i))
	}
	var buf [8]byte
	w := encodeFloat(buf[:], f)
	trimmed := full[:w]
	for i, b := range trimmed {
		if buf[i] != b {
			t.Fatalf("encodeFloat(%v)[%d] = %02x, want %02x", f, i, buf[i], b)
		}
	}
	if decodeFloat(buf[:w]) != f {
		t.Fatalf("decodeFloat did not zero-pad correctly for width %d", w)
	}
}
