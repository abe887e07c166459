// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3bd

// pragmaRecord and schemaRecord are the in-memory equivalent of the source's
// scratch "pragmas" and "schema" temp tables: ordered containers the
// pipeline iterates twice, once to gather everything and once to apply in
// phase order with possible mutation by overrides. A slice keyed by phase is
// the direct Go analogue — the dump format never sees the difference.
type pragmaRecord struct {
	phase int
	name  string
	value Cell
}

type schemaRecord struct {
	phase int
	name  string
	sql   string
}
