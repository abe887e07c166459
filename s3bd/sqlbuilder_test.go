// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3bd

import "testing"

func TestAppendIdentQuoting(t *testing.T) {
	var b sqlBuilder
	b.appendIdent(`weird"name`)
	got := b.String()
	want := `"weird""name"`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAppendStringLiteralQuoting(t *testing.T) {
	var b sqlBuilder
	b.appendStringLiteral(`it's`)
	got := b.String()
	want := `'it''s'`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAppendLiteralDispatch(t *testing.T) {
	cases := []struct {
		cell Cell
		want string
	}{
		{Cell{Kind: KindNull}, "null"},
		{Cell{Kind: KindInteger, Int64: -42}, "-42"},
		{Cell{Kind: KindText, Text: "x"}, "'x'"},
		{Cell{Kind: KindBlob, Blob: []byte{0xDE, 0xAD}}, "x'DEAD'"},
	}
	for _, c := range cases {
		var b sqlBuilder
		b.appendLiteral(c.cell)
		if got := b.String(); got != c.want {
			t.Fatalf("appendLiteral(%+v) = %q, want %q", c.cell, got, c.want)
		}
	}
}

func TestBuilderGrowthReuse(t *testing.T) {
	var b sqlBuilder
	b.appendRaw("abc")
	oldCap := cap(b.buf)
	b.Reset()
	b.appendRaw("d")
	if cap(b.buf) != oldCap {
		t.Fatalf("Reset should keep the backing array: cap went from %d to %d", oldCap, cap(b.buf))
	}
}
