// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3bd

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"sort"
)

// StoreFlags controls optional behavior of Store.
type StoreFlags uint

const (
	// StoreSchemaOnly omits every user-table row-set from the dump.
	StoreSchemaOnly StoreFlags = 1 << iota
	// StoreInTransaction tells Store that the caller has already begun a
	// transaction on conn; Store will not begin or roll one back itself.
	StoreInTransaction
)

// Store writes a full binary dump of conn's database to w: header, pragmas
// row-set, schema row-set, one row-set per user table (unless
// StoreSchemaOnly), then the EndDump tag. conn must be a single physical
// connection, not a pooled *sql.DB, because pragmas and the read
// transaction must stick to one connection for the whole operation.
//
// overrides is a list of "name=value" (replace) or "name" (delete) strings
// applied to the captured pragma values before they are written; names not
// among the statically captured pragmas are silently ignored.
func Store(ctx context.Context, conn *sql.Conn, w io.Writer, flags StoreFlags, overrides []string) error {
	sc := newContext(conn)
	bw := bufio.NewWriter(w)

	if flags&StoreInTransaction == 0 {
		if err := storeBeginTransaction(ctx, sc); err != nil {
			return err
		}
	}
	defer sc.rollback()

	if err := storeHeader(ctx, sc, bw); err != nil {
		return err
	}

	pragmas, err := extractPragmas(ctx, sc)
	if err != nil {
		return err
	}
	pragmas = parseOverrides(overrides).apply(pragmas)
	if err := storePragmas(sc, bw, pragmas); err != nil {
		return err
	}

	schema, err := extractSchema(ctx, sc)
	if err != nil {
		return err
	}
	if err := storeSchema(sc, bw, schema); err != nil {
		return err
	}

	if flags&StoreSchemaOnly == 0 {
		if err := storeTables(ctx, sc, bw, schema); err != nil {
			return err
		}
	}

	rw := newRowWriter(bw, sc.codec)
	rw.writeByte(tagEndDump)
	if rw.Err() != nil {
		return rw.Err()
	}
	if err := bw.Flush(); err != nil {
		return newError(KindIO, "writing dump", err)
	}
	return nil
}

func storeBeginTransaction(ctx context.Context, sc *Context) error {
	if _, err := sc.conn.ExecContext(ctx, "pragma busy_timeout=2147483647"); err != nil {
		return newError(KindEngine, "starting transaction", err)
	}
	if _, err := sc.conn.ExecContext(ctx, "begin transaction"); err != nil {
		return newError(KindEngine, "starting transaction", err)
	}
	sc.inTransaction = true
	return nil
}

func storeHeader(ctx context.Context, sc *Context, w io.Writer) error {
	var encName string
	row := sc.conn.QueryRowContext(ctx, "pragma encoding")
	if err := row.Scan(&encName); err != nil {
		return newError(KindEngine, "getting database encoding", err)
	}
	var code byte
	for c, name := range encodingNames {
		if name == encName {
			code = c
			break
		}
	}
	if code == 0 {
		return newErrorf(KindEngine, "getting database encoding", "unrecognized encoding %q", encName)
	}
	codec, err := selectTextCodec(code)
	if err != nil {
		return newError(KindInternal, "getting database encoding", err)
	}
	sc.codec = codec
	sc.encoding = code

	header := make([]byte, 0, headerSize)
	header = append(header, headerMagic[:]...)
	header = append(header, curVerMajor, curVerMinor, code)
	if _, err := w.Write(header); err != nil {
		return newError(KindIO, "writing dump", err)
	}
	return nil
}

func extractPragmas(ctx context.Context, sc *Context) ([]pragmaRecord, error) {
	var records []pragmaRecord
	for _, def := range pragmaDefs {
		rows, err := sc.conn.QueryContext(ctx, "pragma "+quoteIdentForPragma(def.name))
		if err != nil {
			return nil, newErrorf(KindEngine, "getting pragma value", "%s: %v", def.name, err)
		}
		err = func() error {
			defer rows.Close()
			for rows.Next() {
				var v interface{}
				if err := rows.Scan(&v); err != nil {
					return newErrorf(KindEngine, "getting pragma value", "%s: %v", def.name, err)
				}
				cell, err := cellFromScan(v)
				if err != nil {
					return newError(KindInternal, "getting pragma value", err)
				}
				records = append(records, pragmaRecord{phase: def.phase, name: def.name, value: cell})
			}
			return rows.Err()
		}()
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

// quoteIdentForPragma is a minimal identifier-quoting helper for building
// "pragma <name>" text; the pragma names we ever capture are fixed
// ASCII identifiers, so a simple double-quote wrap (matching
// store.c's str8app_id use for the same purpose) is sufficient.
func quoteIdentForPragma(name string) string {
	var b sqlBuilder
	b.appendIdent(name)
	return b.String()
}

func storePragmas(sc *Context, w io.Writer, records []pragmaRecord) error {
	rw := newRowWriter(w, sc.codec)
	rw.WriteHeader(pragmasSetName, 3)
	for _, r := range records {
		rw.WriteRow([]Cell{
			{Kind: KindInteger, Int64: int64(r.phase)},
			{Kind: KindText, Text: r.name},
			r.value,
		})
	}
	rw.End()
	return rw.Err()
}

const schemaExtractSQL = `select
  case type
  when 'table' then
    case when rootpage>0 then 10 else 30 end
  when 'index' then 20
  when 'view' then 40
  when 'trigger' then 50
  end as phase,
  name,
  sql
from sqlite_schema
  where sql is not null`

func extractSchema(ctx context.Context, sc *Context) ([]schemaRecord, error) {
	rows, err := sc.conn.QueryContext(ctx, schemaExtractSQL)
	if err != nil {
		return nil, newError(KindEngine, "extracting schema", err)
	}
	defer rows.Close()
	var records []schemaRecord
	for rows.Next() {
		var phase int64
		var name, sqlText string
		if err := rows.Scan(&phase, &name, &sqlText); err != nil {
			return nil, newError(KindEngine, "extracting schema", err)
		}
		records = append(records, schemaRecord{phase: int(phase), name: name, sql: sqlText})
	}
	if err := rows.Err(); err != nil {
		return nil, newError(KindEngine, "extracting schema", err)
	}
	return records, nil
}

func storeSchema(sc *Context, w io.Writer, records []schemaRecord) error {
	rw := newRowWriter(w, sc.codec)
	rw.WriteHeader(schemaSetName, 3)
	for _, r := range records {
		rw.WriteRow([]Cell{
			{Kind: KindInteger, Int64: int64(r.phase)},
			{Kind: KindText, Text: r.name},
			{Kind: KindText, Text: r.sql},
		})
	}
	rw.End()
	return rw.Err()
}

// storeTables emits one row-set per user table. Tables are ordered so that
// sqlite_sequence, if present, is processed last, keeping its autoincrement
// counters consistent with the rows already loaded for the tables that
// reference it. The source relies on "order by name='sqlite_sequence'" for
// this; per the spec's open question, this sorts explicitly instead of
// depending on boolean-as-integer collation.
func storeTables(ctx context.Context, sc *Context, w io.Writer, schema []schemaRecord) error {
	var tableNames []string
	for _, r := range schema {
		if r.phase == schemaPhaseTable {
			tableNames = append(tableNames, r.name)
		}
	}
	sort.SliceStable(tableNames, func(i, j int) bool {
		iSeq := tableNames[i] == "sqlite_sequence"
		jSeq := tableNames[j] == "sqlite_sequence"
		return !iSeq && jSeq
	})

	for _, table := range tableNames {
		cols, err := tableColumns(ctx, sc, table)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			return newErrorf(KindEngine, "extracting tables", "pragma table_info returned no rows for %q", table)
		}

		var b sqlBuilder
		b.appendRaw("select ")
		for i, col := range cols {
			if i > 0 {
				b.appendRaw(",")
			}
			b.appendIdent(col)
		}
		b.appendRaw(" from ")
		b.appendIdent(table)

		rows, err := sc.conn.QueryContext(ctx, b.String())
		if err != nil {
			return newErrorf(KindEngine, "extracting tables", "%s: %v", table, err)
		}
		err = storeRowsetFromRows(sc, w, table, rows, len(cols))
		rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func tableColumns(ctx context.Context, sc *Context, table string) ([]string, error) {
	var b sqlBuilder
	b.appendRaw("pragma table_info=")
	b.appendIdent(table)
	rows, err := sc.conn.QueryContext(ctx, b.String())
	if err != nil {
		return nil, newErrorf(KindEngine, "extracting tables", "%s: %v", table, err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, newError(KindEngine, "extracting tables", err)
	}
	nameIx := -1
	for i, c := range cols {
		if c == "name" {
			nameIx = i
		}
	}
	if nameIx < 0 {
		return nil, newErrorf(KindInternal, "extracting tables", "pragma table_info missing name column")
	}
	var names []string
	for rows.Next() {
		dest := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, newError(KindEngine, "extracting tables", err)
		}
		name, _ := dest[nameIx].(string)
		names = append(names, name)
	}
	return names, rows.Err()
}

func storeRowsetFromRows(sc *Context, w io.Writer, name string, rows *sql.Rows, colCount int) error {
	rw := newRowWriter(w, sc.codec)
	rw.WriteHeader(name, colCount)
	dest := make([]interface{}, colCount)
	ptrs := make([]interface{}, colCount)
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return newErrorf(KindEngine, "extracting rows", "%s: %v", name, err)
		}
		cells := make([]Cell, colCount)
		for i, v := range dest {
			c, err := cellFromScan(v)
			if err != nil {
				return newError(KindInternal, "extracting rows", err)
			}
			cells[i] = c
		}
		rw.WriteRow(cells)
		if rw.Err() != nil {
			return rw.Err()
		}
	}
	if err := rows.Err(); err != nil {
		return newErrorf(KindEngine, "extracting rows", "%s: %v", name, err)
	}
	rw.End()
	return rw.Err()
}
