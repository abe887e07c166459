// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3bd

import "testing"

func TestUTF8CodecRoundTrip(t *testing.T) {
	c := utf8Codec{}
	s := "hello, 世界"
	got, err := c.DecodeText(c.EncodeText(s))
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Fatalf("got %q, want %q", got, s)
	}
}

// TestUTF16ByteSwap exercises scenario 3 from the spec's end-to-end list: a
// UTF16LE codec's output is byte-swapped relative to a UTF16BE codec's for
// the same string, and each decodes its own output back correctly
// regardless of which byte order the "host" favors — there is no host byte
// order in this codec at all, only the declared one.
func TestUTF16ByteSwap(t *testing.T) {
	s := "s3bd"
	le := utf16Codec{order: encUTF16LE}
	be := utf16Codec{order: encUTF16BE}

	leBytes := le.EncodeText(s)
	beBytes := be.EncodeText(s)
	if len(leBytes) != len(beBytes) {
		t.Fatalf("encoded lengths differ: %d vs %d", len(leBytes), len(beBytes))
	}
	for i := 0; i < len(leBytes); i += 2 {
		if leBytes[i] != beBytes[i+1] || leBytes[i+1] != beBytes[i] {
			t.Fatalf("byte pair at %d not swapped: le=%02x%02x be=%02x%02x", i, leBytes[i], leBytes[i+1], beBytes[i], beBytes[i+1])
		}
	}

	gotLE, err := le.DecodeText(leBytes)
	if err != nil {
		t.Fatal(err)
	}
	if gotLE != s {
		t.Fatalf("LE round trip: got %q, want %q", gotLE, s)
	}
	gotBE, err := be.DecodeText(beBytes)
	if err != nil {
		t.Fatal(err)
	}
	if gotBE != s {
		t.Fatalf("BE round trip: got %q, want %q", gotBE, s)
	}
}

func TestSelectTextCodecUnknown(t *testing.T) {
	if _, err := selectTextCodec(0); err == nil {
		t.Fatal("expected error for unknown encoding code")
	}
}
