// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3bd

import "fmt"

// Kind discriminates the variant held by a Cell.
type Kind int

const (
	KindNull Kind = iota
	KindInteger
	KindFloat
	KindText
	KindBlob
)

// Cell is a typed value read from, or destined for, one column of one row.
// Only the field matching Kind is meaningful.
type Cell struct {
	Kind    Kind
	Int64   int64
	Float64 float64
	Text    string
	Blob    []byte
}

// cellFromScan turns whatever database/sql handed back through Scan(&any)
// into a Cell. The mattn/go-sqlite3 driver always yields exactly one of
// these five Go types per SQLite's own column type — the same switch
// store.c performs over sqlite3_column_type, just one layer up.
func cellFromScan(v interface{}) (Cell, error) {
	switch x := v.(type) {
	case nil:
		return Cell{Kind: KindNull}, nil
	case int64:
		return Cell{Kind: KindInteger, Int64: x}, nil
	case float64:
		return Cell{Kind: KindFloat, Float64: x}, nil
	case string:
		return Cell{Kind: KindText, Text: x}, nil
	case []byte:
		buf := make([]byte, len(x))
		copy(buf, x)
		return Cell{Kind: KindBlob, Blob: buf}, nil
	default:
		return Cell{}, fmt.Errorf("unknown column value type %T", v)
	}
}

// arg converts a Cell into a value suitable for binding as a driver argument.
func (c Cell) arg() interface{} {
	switch c.Kind {
	case KindNull:
		return nil
	case KindInteger:
		return c.Int64
	case KindFloat:
		return c.Float64
	case KindText:
		return c.Text
	case KindBlob:
		return c.Blob
	default:
		return nil
	}
}
