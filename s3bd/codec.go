// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3bd

import "math"

// uintBias[w] is the smallest value representable at width w; each width
// covers the disjoint, contiguous range [uintBias[w], uintBias[w+1]).
var uintBias = [9]uint64{
	0x0,
	0x1,
	0x101,
	0x10101,
	0x1010101,
	0x101010101,
	0x10101010101,
	0x1010101010101,
	0x101010101010101,
}

var sintBias = [9]uint64{
	0x0,
	0x1,
	0x81,
	0x8081,
	0x808081,
	0x80808081,
	0x8080808081,
	0x808080808081,
	0x80808080808081,
}

// encodeUint writes u into dst (which must have length >= 8) as the fewest
// big-endian bytes that still round-trip, and returns how many it used.
func encodeUint(dst []byte, u uint64) int {
	width := 0
	for width < 8 && u >= uintBias[width+1] {
		width++
	}
	u -= uintBias[width]
	for ix := 1; ix <= width; ix++ {
		dst[width-ix] = byte(u)
		u >>= 8
	}
	return width
}

// decodeUint reverses encodeUint given the width-many bytes already read.
func decodeUint(buf []byte) uint64 {
	var u uint64
	for _, b := range buf {
		u = u<<8 | uint64(b)
	}
	return u + uintBias[len(buf)]
}

// encodeSint is encodeUint's signed counterpart: the sign picks which bias
// table to use and whether the magnitude bytes are bit-flipped, so that the
// top bit of the first byte written always reflects the sign.
func encodeSint(dst []byte, i int64) int {
	var u uint64
	var flip byte
	if i < 0 {
		u = uint64(-i)
		flip = 0xFF
	} else {
		u = uint64(i)
	}
	width := 0
	for width < 8 && u >= sintBias[width+1] {
		width++
	}
	u -= sintBias[width]
	for ix := 1; ix <= width; ix++ {
		dst[width-ix] = byte(u) ^ flip
		u >>= 8
	}
	return width
}

func decodeSint(buf []byte) int64 {
	var flip byte
	if len(buf) > 0 && buf[0]&0x80 != 0 {
		flip = 0xFF
	}
	var u uint64
	for _, b := range buf {
		u = u<<8 | uint64(b^flip)
	}
	u += sintBias[len(buf)]
	if flip != 0 {
		return -int64(u)
	}
	return int64(u)
}

// encodeFloat packs f as its big-endian IEEE-754 bytes with trailing
// (least-significant) zero bytes stripped, and returns the kept prefix
// length. Doubles are always packed big-endian regardless of host: Go's
// math.Float64bits gives a host-independent bit pattern, so there is no
// native-endianness ambiguity to probe for, unlike the C original.
func encodeFloat(dst []byte, f float64) int {
	var full [8]byte
	bits := math.Float64bits(f)
	for i := 7; i >= 0; i-- {
		full[i] = byte(bits)
		bits >>= 8
	}
	width := 8
	for width > 0 && full[width-1] == 0 {
		width--
	}
	copy(dst, full[:width])
	return width
}

// decodeFloat reverses encodeFloat: zero-pad the missing least-significant
// bytes and reinterpret as a big-endian IEEE-754 double.
func decodeFloat(buf []byte) float64 {
	var full [8]byte
	copy(full[:], buf)
	var bits uint64
	for _, b := range full {
		bits = bits<<8 | uint64(b)
	}
	return math.Float64frombits(bits)
}
