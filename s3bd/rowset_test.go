// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3bd

import (
	"bytes"
	"testing"
)

func TestRowSetRoundTrip(t *testing.T) {
	rows := [][]Cell{
		{{Kind: KindNull}, {Kind: KindInteger, Int64: 0}, {Kind: KindText, Text: "a"}},
		{{Kind: KindInteger, Int64: -1}, {Kind: KindFloat, Float64: 3.5}, {Kind: KindBlob, Blob: []byte{1, 2, 3}}},
		{{Kind: KindInteger, Int64: 9223372036854775807}, {Kind: KindNull}, {Kind: KindText, Text: ""}},
	}

	buf := &bytes.Buffer{}
	w := newRowWriter(buf, utf8Codec{})
	w.WriteHeader("t", 3)
	for _, row := range rows {
		w.WriteRow(row)
	}
	w.End()
	if err := w.Err(); err != nil {
		t.Fatal(err)
	}

	r := newRowReader(buf, utf8Codec{})
	marker, ok := r.readByte()
	if !ok {
		t.Fatal(r.Err())
	}
	if !isRowSet(marker) {
		t.Fatalf("expected row-set marker, got %d", marker)
	}
	name, colCount, ok := r.ReadHeader(marker)
	if !ok {
		t.Fatal(r.Err())
	}
	if name != "t" || colCount != 3 {
		t.Fatalf("got name=%q colCount=%d, want t/3", name, colCount)
	}

	var got [][]Cell
	for {
		row, ok := r.ReadRow(3)
		if !ok {
			break
		}
		got = append(got, row)
	}
	if r.Err() != nil {
		t.Fatal(r.Err())
	}
	if len(got) != len(rows) {
		t.Fatalf("got %d rows, want %d", len(got), len(rows))
	}
	for i, row := range rows {
		for j, c := range row {
			g := got[i][j]
			if g.Kind != c.Kind || g.Int64 != c.Int64 || g.Float64 != c.Float64 || g.Text != c.Text || !bytes.Equal(g.Blob, c.Blob) {
				t.Fatalf("row %d col %d: got %+v, want %+v", i, j, g, c)
			}
		}
	}
}

// TestRowSetTruncatedMidRow checks that a row-set cut off partway through a
// cell fails with an error instead of silently returning a short row.
func TestRowSetTruncatedMidRow(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newRowWriter(buf, utf8Codec{})
	w.WriteHeader("t", 2)
	w.WriteRow([]Cell{{Kind: KindInteger, Int64: 42}, {Kind: KindText, Text: "hello"}})
	w.End()
	if err := w.Err(); err != nil {
		t.Fatal(err)
	}

	full := buf.Bytes()
	truncated := bytes.NewReader(full[:len(full)-3])
	r := newRowReader(truncated, utf8Codec{})
	marker, ok := r.readByte()
	if !ok {
		t.Fatal(r.Err())
	}
	_, _, ok = r.ReadHeader(marker)
	if !ok {
		t.Fatal(r.Err())
	}
	for {
		_, ok := r.ReadRow(2)
		if !ok {
			break
		}
	}
	if r.Err() == nil {
		t.Fatal("expected an error reading a truncated row-set")
	}
}
