// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3bd

// Header layout: 5-byte magic, major version, minor version, encoding code.
var headerMagic = [5]byte{'S', '3', 'B', 'D', 0x1A}

const (
	curVerMajor = 0
	curVerMinor = 0
)

const headerSize = 8

// Text encoding codes, as stored in the header and as used by "pragma encoding".
const (
	encUTF8    = 1
	encUTF16LE = 2
	encUTF16BE = 3
)

var encodingNames = map[byte]string{
	encUTF8:    "UTF-8",
	encUTF16LE: "UTF-16le",
	encUTF16BE: "UTF-16be",
}

// Pragma and schema phase ordinals.
const (
	pragmaPhasePre    = 10
	pragmaPhaseIn     = 20
	pragmaPhasePost   = 30
	schemaPhaseTable  = 10
	schemaPhaseIndex  = 20
	schemaPhaseVTable = 30
	schemaPhaseView   = 40
	schemaPhaseTrig   = 50
)

// base9 matches the source format's BASE9(a,b,c) macro: a single byte
// discriminator built from three base-9 digits.
func base9(a, b, c int) byte {
	return byte(((a*9)+b)*9 + c)
}

var (
	tagNull    = base9(0, 0, 0)
	tagEndSet  = base9(0, 0, 1)
	tagEndDump = base9(0, 0, 2)
)

func tagInt(width int) byte   { return base9(1, 0, width) }
func tagFloat(width int) byte { return base9(1, 1, width) }
func tagText(width int) byte  { return base9(1, 2, width) }
func tagBlob(width int) byte  { return base9(1, 3, width) }
func tagRowSet(ccw, nsw int) byte {
	return base9(2, ccw, nsw)
}

func isInt(m byte) bool   { return m >= tagInt(0) && m <= tagInt(8) }
func isFloat(m byte) bool { return m >= tagFloat(0) && m <= tagFloat(8) }
func isText(m byte) bool  { return m >= tagText(0) && m <= tagText(8) }
func isBlob(m byte) bool  { return m >= tagBlob(0) && m <= tagBlob(8) }
func isRowSet(m byte) bool {
	return m >= tagRowSet(0, 0) && m <= tagRowSet(8, 8)
}

func intWidth(m byte) int   { return int(m % 9) }
func floatWidth(m byte) int { return int(m % 9) }
func textWidth(m byte) int  { return int(m % 9) }
func blobWidth(m byte) int  { return int(m % 9) }
func rowSetWidths(m byte) (ccw, nsw int) {
	return int(m / 9 % 9), int(m % 9)
}

// pragmaDef mirrors store.c's static pragma_defs table: the fixed set of
// pragmas the store pipeline captures, and the phase each belongs to.
type pragmaDef struct {
	phase int
	name  string
}

var pragmaDefs = []pragmaDef{
	{pragmaPhasePre, "page_size"},
	{pragmaPhasePre, "auto_vacuum"},
	{pragmaPhaseIn, "application_id"},
	{pragmaPhaseIn, "user_version"},
	{pragmaPhasePost, "journal_mode"},
}

const (
	pragmasSetName = "pragmas"
	schemaSetName  = "schema"
)
