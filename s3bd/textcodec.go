// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3bd

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// TextCodec transcodes Go strings to and from a dump file's on-disk text
// encoding. It plays the role the source's store_vt/load_vt function
// pointer tables play for 8-bit vs 16-bit text: one small capability
// dispatched once per operation and threaded through the rest of the
// pipeline, the same shape ts.FieldCoder uses to dispatch per column type.
type TextCodec interface {
	// Code is the header encoding byte this codec implements.
	Code() byte
	// EncodeText renders s into its on-disk byte form.
	EncodeText(s string) []byte
	// DecodeText parses b (exactly as produced by EncodeText) back into a string.
	DecodeText(b []byte) (string, error)
}

type utf8Codec struct{}

func (utf8Codec) Code() byte { return encUTF8 }

func (utf8Codec) EncodeText(s string) []byte {
	return []byte(s)
}

func (utf8Codec) DecodeText(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("invalid UTF-8 text")
	}
	return string(b), nil
}

// utf16Codec implements the dump file's UTF-16LE/UTF-16BE text mode. Unlike
// the C original, which carries a separate "native" byte order and
// byte-swaps only when it differs from the declared one, this codec always
// writes and reads directly in the declared byte order: database/sql and
// go-sqlite3 already normalize SQLite's column values to host-independent
// Go strings, so there is no second, host-dependent representation to
// reconcile against.
type utf16Codec struct {
	order byte // encUTF16LE or encUTF16BE
}

func (c utf16Codec) Code() byte { return c.order }

func (c utf16Codec) byteOrder() binary.ByteOrder {
	if c.order == encUTF16BE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (c utf16Codec) EncodeText(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	order := c.byteOrder()
	for i, u := range units {
		order.PutUint16(out[i*2:], u)
	}
	return out
}

func (c utf16Codec) DecodeText(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", fmt.Errorf("odd-length UTF-16 text")
	}
	order := c.byteOrder()
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = order.Uint16(b[i*2:])
	}
	return string(utf16.Decode(units)), nil
}

// selectTextCodec picks the adapter matching a header/pragma encoding code.
func selectTextCodec(code byte) (TextCodec, error) {
	switch code {
	case encUTF8:
		return utf8Codec{}, nil
	case encUTF16LE:
		return utf16Codec{order: encUTF16LE}, nil
	case encUTF16BE:
		return utf16Codec{order: encUTF16BE}, nil
	default:
		return nil, fmt.Errorf("unsupported text encoding code %d", code)
	}
}
