// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3bd

import (
	"bufio"
	"fmt"
	"io"
)

// rowWriter emits one named, self-delimited row-set at a time onto an
// io.Writer. It carries a sticky error the way ts.Writer does (w.err,
// Error()): once set, every further method is a no-op, so callers can chain
// several writes and check the error once at the end.
type rowWriter struct {
	w     io.Writer
	codec TextCodec
	err   error
}

func newRowWriter(w io.Writer, codec TextCodec) *rowWriter {
	return &rowWriter{w: w, codec: codec}
}

func (rw *rowWriter) Err() error { return rw.err }

func (rw *rowWriter) fail(err error) {
	if rw.err == nil {
		rw.err = err
	}
}

func (rw *rowWriter) writeBytes(p []byte) {
	if rw.err != nil || len(p) == 0 {
		return
	}
	if _, err := rw.w.Write(p); err != nil {
		rw.fail(newError(KindIO, "writing dump", err))
	}
}

func (rw *rowWriter) writeByte(b byte) {
	rw.writeBytes([]byte{b})
}

// WriteHeader emits the ROWSET tag, the packed column count and name size,
// and the name bytes — store_rowset's header half.
func (rw *rowWriter) WriteHeader(name string, colCount int) {
	if rw.err != nil {
		return
	}
	if colCount < 1 {
		rw.fail(newErrorf(KindInternal, "writing row-set header", "column count must be at least 1"))
		return
	}
	nameBytes := rw.codec.EncodeText(name)
	var ccBuf, nsBuf [8]byte
	ccw := encodeUint(ccBuf[:], uint64(colCount-1))
	nsw := encodeUint(nsBuf[:], uint64(len(nameBytes)))
	rw.writeByte(tagRowSet(ccw, nsw))
	rw.writeBytes(ccBuf[:ccw])
	rw.writeBytes(nsBuf[:nsw])
	rw.writeBytes(nameBytes)
}

// WriteCell emits one cell's tag byte and payload.
func (rw *rowWriter) WriteCell(c Cell) {
	if rw.err != nil {
		return
	}
	switch c.Kind {
	case KindNull:
		rw.writeByte(tagNull)
	case KindInteger:
		var buf [8]byte
		w := encodeSint(buf[:], c.Int64)
		rw.writeByte(tagInt(w))
		rw.writeBytes(buf[:w])
	case KindFloat:
		var buf [8]byte
		w := encodeFloat(buf[:], c.Float64)
		rw.writeByte(tagFloat(w))
		rw.writeBytes(buf[:w])
	case KindText:
		textBytes := rw.codec.EncodeText(c.Text)
		var buf [8]byte
		w := encodeUint(buf[:], uint64(len(textBytes)))
		rw.writeByte(tagText(w))
		rw.writeBytes(buf[:w])
		rw.writeBytes(textBytes)
	case KindBlob:
		var buf [8]byte
		w := encodeUint(buf[:], uint64(len(c.Blob)))
		rw.writeByte(tagBlob(w))
		rw.writeBytes(buf[:w])
		rw.writeBytes(c.Blob)
	default:
		rw.fail(newErrorf(KindInternal, "writing cell", "unknown cell kind %d", c.Kind))
	}
}

// WriteRow emits every cell of one row in order.
func (rw *rowWriter) WriteRow(cells []Cell) {
	for _, c := range cells {
		rw.WriteCell(c)
	}
}

// End terminates the row-set.
func (rw *rowWriter) End() {
	rw.writeByte(tagEndSet)
}

// rowReader consumes row-sets the reverse way load_rowset does: a generic
// framer whose ReadRow returns each row's cells, so callers never touch cell
// tag bytes themselves.
type rowReader struct {
	r     *bufio.Reader
	codec TextCodec
	err   error
}

func newRowReader(r io.Reader, codec TextCodec) *rowReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &rowReader{r: br, codec: codec}
}

func (rr *rowReader) Err() error { return rr.err }

func (rr *rowReader) fail(err error) {
	if rr.err == nil {
		rr.err = err
	}
}

func (rr *rowReader) readByte() (byte, bool) {
	if rr.err != nil {
		return 0, false
	}
	b, err := rr.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			rr.fail(newError(KindIO, "reading dump", fmt.Errorf("unexpected EOF")))
		} else {
			rr.fail(newError(KindIO, "reading dump", err))
		}
		return 0, false
	}
	return b, true
}

func (rr *rowReader) readFull(n int) ([]byte, bool) {
	if rr.err != nil {
		return nil, false
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(rr.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			rr.fail(newError(KindIO, "reading dump", fmt.Errorf("unexpected EOF")))
		} else {
			rr.fail(newError(KindIO, "reading dump", err))
		}
		return nil, false
	}
	return buf, true
}

func (rr *rowReader) readUint(width int) (uint64, bool) {
	if width > 8 {
		rr.fail(newErrorf(KindInternal, "reading dump", "integer width %d out of range", width))
		return 0, false
	}
	buf, ok := rr.readFull(width)
	if !ok {
		return 0, false
	}
	return decodeUint(buf), true
}

func (rr *rowReader) readText(width int) (string, bool) {
	size, ok := rr.readUint(width)
	if !ok {
		return "", false
	}
	raw, ok := rr.readFull(int(size))
	if !ok {
		return "", false
	}
	s, err := rr.codec.DecodeText(raw)
	if err != nil {
		rr.fail(newError(KindCorrupt, "reading dump", err))
		return "", false
	}
	return s, true
}

// ReadHeader takes a ROWSET tag byte (marker) that the caller has already
// read from the stream, consumes the packed column count and name that
// follow it, and returns the row-set's declared name and column count.
func (rr *rowReader) ReadHeader(marker byte) (name string, colCount int, ok bool) {
	ccw, nsw := rowSetWidths(marker)
	cc, ok := rr.readUint(ccw)
	if !ok {
		return "", 0, false
	}
	name, ok = rr.readText(nsw)
	if !ok {
		return "", 0, false
	}
	return name, int(cc) + 1, true
}

// ReadRow reads one row of colCount cells. ok is false at end-of-row-set (no
// error) or on failure (rr.Err() will be non-nil).
func (rr *rowReader) ReadRow(colCount int) (cells []Cell, ok bool) {
	cells = make([]Cell, colCount)
	for colix := 0; colix < colCount; colix++ {
		m, got := rr.readByte()
		if !got {
			return nil, false
		}
		switch {
		case m == tagNull:
			cells[colix] = Cell{Kind: KindNull}
		case isInt(m):
			buf, got := rr.readFull(intWidth(m))
			if !got {
				return nil, false
			}
			cells[colix] = Cell{Kind: KindInteger, Int64: decodeSint(buf)}
		case isFloat(m):
			buf, got := rr.readFull(floatWidth(m))
			if !got {
				return nil, false
			}
			cells[colix] = Cell{Kind: KindFloat, Float64: decodeFloat(buf)}
		case isText(m):
			s, got := rr.readText(textWidth(m))
			if !got {
				return nil, false
			}
			cells[colix] = Cell{Kind: KindText, Text: s}
		case isBlob(m):
			size, got := rr.readUint(blobWidth(m))
			if !got {
				return nil, false
			}
			raw, got := rr.readFull(int(size))
			if !got {
				return nil, false
			}
			cells[colix] = Cell{Kind: KindBlob, Blob: raw}
		case m == tagEndSet && colix == 0:
			return nil, false
		default:
			rr.fail(newErrorf(KindCorrupt, "reading dump", "unexpected tag byte %d", m))
			return nil, false
		}
	}
	return cells, true
}
