// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package s3bd stores and restores the full contents of a SQLite database
// — its pragmas, its schema, and the rows of its user tables — as a single
// portable binary stream.
//
// Layout of a dump, to be read in a single forward pass:
//
//	+--------+------------------------------------------------------+
//	| HEADER | 8 bytes: magic "S3BD" 0x1A, ver_major, ver_minor, enc |
//	+--------+------------------------------------------------------+
//	| ROWSET "pragmas" : (phase int, name text, value)              |
//	| ROWSET "schema"  : (phase int, name text, sql text)            |
//	| ROWSET <table 1> : one column per row in declared order        |
//	| ROWSET <table 2> : ...                                         |
//	| ...                                                            |
//	| ENDDUMP                                                        |
//	+-----------------------------------------------------------------+
//
// A ROWSET is itself self-delimiting:
//
//	ROWSET(ccw,nsw) <colcnt-1 packed in ccw bytes> <namesize packed in nsw bytes> <name bytes>
//	  cell cell cell ...     (colcnt cells, one row)
//	  cell cell cell ...
//	  ENDSET
//
// Every cell begins with a single tag byte that base-9 encodes a 3-digit
// discriminator (see format.go); the tag's low digits carry the packed width
// of whatever variable-length payload follows, so a reader never needs to
// look beyond the tag to know how many more bytes belong to the cell.
//
// Two entry points cover the whole package surface: Store writes a dump from
// an open connection, Load restores one into a freshly created, empty
// database. Everything else here — the byte codec, the SQL builder, the
// text-encoding adapter, the row-set framer — exists only to serve those two
// pipelines.
package s3bd
