// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3bd

import "strconv"

// sqlBuilder is an append-only buffer for cobbling up dynamic SQL text,
// ported from the source's str_t. database/sql always takes a single UTF-8
// string regardless of the target database's own text encoding, so unlike
// str_t this has no 8-bit/16-bit split — that distinction survives only in
// TextCodec, which governs the dump file's on-disk bytes, not the SQL this
// package sends to the driver.
type sqlBuilder struct {
	buf []byte
}

// grow matches str_cap's policy exactly: when capacity is insufficient,
// grow to needed + needed/4.
func (b *sqlBuilder) grow(additional int) {
	needed := len(b.buf) + additional
	if needed <= cap(b.buf) {
		return
	}
	newCap := needed + needed/4
	grown := make([]byte, len(b.buf), newCap)
	copy(grown, b.buf)
	b.buf = grown
}

func (b *sqlBuilder) appendRaw(s string) {
	b.grow(len(s))
	b.buf = append(b.buf, s...)
}

// appendIdent appends a double-quoted identifier, doubling embedded quotes.
func (b *sqlBuilder) appendIdent(name string) {
	extra := 0
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			extra++
		}
	}
	b.grow(len(name) + 2 + extra)
	b.buf = append(b.buf, '"')
	for i := 0; i < len(name); i++ {
		c := name[i]
		b.buf = append(b.buf, c)
		if c == '"' {
			b.buf = append(b.buf, c)
		}
	}
	b.buf = append(b.buf, '"')
}

// appendStringLiteral appends a single-quoted string literal, doubling
// embedded quotes.
func (b *sqlBuilder) appendStringLiteral(s string) {
	extra := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			extra++
		}
	}
	b.grow(len(s) + 2 + extra)
	b.buf = append(b.buf, '\'')
	for i := 0; i < len(s); i++ {
		c := s[i]
		b.buf = append(b.buf, c)
		if c == '\'' {
			b.buf = append(b.buf, c)
		}
	}
	b.buf = append(b.buf, '\'')
}

func (b *sqlBuilder) appendIntLiteral(i int64) {
	b.appendRaw(strconv.FormatInt(i, 10))
}

// appendFloatLiteral renders with 16 significant digits, matching str8app_float's "%.16g".
func (b *sqlBuilder) appendFloatLiteral(f float64) {
	b.appendRaw(strconv.FormatFloat(f, 'g', 16, 64))
}

var hexDigits = "0123456789ABCDEF"

func (b *sqlBuilder) appendBlobLiteral(data []byte) {
	b.grow(3 + len(data)*2)
	b.buf = append(b.buf, 'x', '\'')
	for _, c := range data {
		b.buf = append(b.buf, hexDigits[c>>4], hexDigits[c&0xF])
	}
	b.buf = append(b.buf, '\'')
}

func (b *sqlBuilder) appendNullLiteral() {
	b.appendRaw("null")
}

func (b *sqlBuilder) String() string {
	return string(b.buf)
}

func (b *sqlBuilder) Reset() {
	b.buf = b.buf[:0]
}

// appendLiteral renders a Cell as a SQL literal, the way apply_pragmas does
// when building a "pragma name=value" statement: NULL as the keyword,
// blobs as hex literals, text single-quoted, numeric types verbatim.
func (b *sqlBuilder) appendLiteral(c Cell) {
	switch c.Kind {
	case KindNull:
		b.appendNullLiteral()
	case KindInteger:
		b.appendIntLiteral(c.Int64)
	case KindFloat:
		b.appendFloatLiteral(c.Float64)
	case KindText:
		b.appendStringLiteral(c.Text)
	case KindBlob:
		b.appendBlobLiteral(c.Blob)
	}
}
