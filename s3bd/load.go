// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3bd

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"strings"
)

// LoadFlags controls optional behavior of Load.
type LoadFlags uint

const (
	// LoadSchemaOnly restores the schema but discards every table's row
	// data instead of inserting it.
	LoadSchemaOnly LoadFlags = 1 << iota
)

// schemaWant records the side effects schema_row's classification has on
// the rest of the pipeline: some catalog entries are regenerated by the
// engine itself rather than replayed as DDL or INSERTs.
type schemaWant struct {
	sequence bool
	stat     bool
	virtuals bool
}

// Load restores a dump produced by Store into conn's database, which must
// be empty (page_count must be zero) before Load begins. conn must be a
// single physical connection for the same reason Store requires one: the
// restore runs inside one transaction and depends on connection-local
// pragma state.
//
// overrides has the same "name=value" / "name" syntax Store accepts,
// applied to the dump's captured pragma values before they are restored.
func Load(ctx context.Context, conn *sql.Conn, r io.Reader, flags LoadFlags, overrides []string) error {
	lc := newContext(conn)
	br := bufio.NewReader(r)

	if err := loadPrepare(ctx, lc); err != nil {
		return err
	}
	defer restoreDefensive(ctx, lc)

	if err := loadHeader(ctx, lc, br); err != nil {
		return err
	}

	pragmas, err := readPragmaSet(br, lc.codec)
	if err != nil {
		return err
	}
	pragmas = parseOverrides(overrides).apply(pragmas)

	if err := applyPragmaPhase(ctx, lc, pragmas, pragmaPhasePre); err != nil {
		return err
	}

	if err := loadBeginTransaction(ctx, lc); err != nil {
		return err
	}
	defer lc.rollback()

	if err := applyPragmaPhase(ctx, lc, pragmas, pragmaPhaseIn); err != nil {
		return err
	}

	schema, want, err := readSchemaSet(br, lc.codec)
	if err != nil {
		return err
	}

	if err := createSystemTables(ctx, lc, want); err != nil {
		return err
	}
	if err := executeSchemaPhase(ctx, lc, schema, schemaPhaseTable); err != nil {
		return err
	}

	if err := loadTables(ctx, lc, br, flags); err != nil {
		return err
	}

	if err := executeSchemaPhase(ctx, lc, schema, schemaPhaseIndex); err != nil {
		return err
	}
	if want.virtuals {
		if err := createSneakyVirtualTables(ctx, lc, schema); err != nil {
			return err
		}
	}
	if err := executeSchemaPhase(ctx, lc, schema, schemaPhaseView); err != nil {
		return err
	}
	if err := executeSchemaPhase(ctx, lc, schema, schemaPhaseTrig); err != nil {
		return err
	}

	if _, err := lc.conn.ExecContext(ctx, "commit transaction"); err != nil {
		return newError(KindEngine, "committing restore", err)
	}
	lc.inTransaction = false

	if err := applyPragmaPhase(ctx, lc, pragmas, pragmaPhasePost); err != nil {
		return err
	}
	return nil
}

func loadPrepare(ctx context.Context, lc *Context) error {
	var pageCount int64
	if err := lc.conn.QueryRowContext(ctx, "pragma page_count").Scan(&pageCount); err != nil {
		return newError(KindEngine, "checking target database", err)
	}
	if pageCount != 0 {
		return newErrorf(KindPrecondition, "checking target database", "database is not empty (page_count=%d)", pageCount)
	}
	if _, err := lc.conn.ExecContext(ctx, "pragma defensive=off"); err != nil {
		return newError(KindEngine, "preparing target database", err)
	}
	if _, err := lc.conn.ExecContext(ctx, "pragma foreign_keys=off"); err != nil {
		return newError(KindEngine, "preparing target database", err)
	}
	return nil
}

func restoreDefensive(ctx context.Context, lc *Context) {
	_, _ = lc.conn.ExecContext(context.Background(), "pragma defensive=on")
}

func loadHeader(ctx context.Context, lc *Context, br *bufio.Reader) error {
	header, err := readFullBuf(br, headerSize)
	if err != nil {
		return newError(KindIO, "reading dump header", err)
	}
	for i, b := range headerMagic {
		if header[i] != b {
			return newErrorf(KindCorrupt, "reading dump header", "bad magic bytes")
		}
	}
	major, minor, code := header[5], header[6], header[7]
	if major != curVerMajor {
		return newErrorf(KindCorrupt, "reading dump header", "unsupported format version %d.%d", major, minor)
	}
	codec, err := selectTextCodec(code)
	if err != nil {
		return newError(KindCorrupt, "reading dump header", err)
	}
	lc.codec = codec
	lc.encoding = code

	name, ok := encodingNames[code]
	if !ok {
		return newErrorf(KindCorrupt, "reading dump header", "unrecognized encoding code %d", code)
	}
	var b sqlBuilder
	b.appendRaw("pragma encoding=")
	b.appendStringLiteral(name)
	if _, err := lc.conn.ExecContext(ctx, b.String()); err != nil {
		return newError(KindEngine, "setting target encoding", err)
	}
	return nil
}

func readFullBuf(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func readPragmaSet(br *bufio.Reader, codec TextCodec) ([]pragmaRecord, error) {
	rr := newRowReader(br, codec)
	marker, ok := rr.readByte()
	if !ok {
		return nil, rr.Err()
	}
	if !isRowSet(marker) {
		return nil, newErrorf(KindCorrupt, "reading dump", "expected pragmas row-set")
	}
	name, colCount, ok := rr.ReadHeader(marker)
	if !ok {
		return nil, rr.Err()
	}
	if name != pragmasSetName || colCount != 3 {
		return nil, newErrorf(KindCorrupt, "reading dump", "expected pragmas row-set, got %q with %d columns", name, colCount)
	}
	var records []pragmaRecord
	for {
		cells, ok := rr.ReadRow(3)
		if !ok {
			break
		}
		if cells[0].Kind != KindInteger || cells[1].Kind != KindText {
			return nil, newErrorf(KindCorrupt, "reading dump", "malformed pragma record")
		}
		records = append(records, pragmaRecord{phase: int(cells[0].Int64), name: cells[1].Text, value: cells[2]})
	}
	if rr.Err() != nil {
		return nil, rr.Err()
	}
	return records, nil
}

func applyPragmaPhase(ctx context.Context, lc *Context, records []pragmaRecord, phase int) error {
	for _, r := range records {
		if r.phase != phase {
			continue
		}
		var b sqlBuilder
		b.appendRaw("pragma ")
		b.appendIdent(r.name)
		b.appendRaw("=")
		b.appendLiteral(r.value)
		if _, err := lc.conn.ExecContext(ctx, b.String()); err != nil {
			return newErrorf(KindEngine, "applying pragma", "%s: %v", r.name, err)
		}
	}
	return nil
}

func loadBeginTransaction(ctx context.Context, lc *Context) error {
	if _, err := lc.conn.ExecContext(ctx, "begin immediate transaction"); err != nil {
		return newError(KindEngine, "starting restore transaction", err)
	}
	lc.inTransaction = true
	return nil
}

func readSchemaSet(br *bufio.Reader, codec TextCodec) ([]schemaRecord, schemaWant, error) {
	var want schemaWant
	rr := newRowReader(br, codec)
	marker, ok := rr.readByte()
	if !ok {
		return nil, want, rr.Err()
	}
	if !isRowSet(marker) {
		return nil, want, newErrorf(KindCorrupt, "reading dump", "expected schema row-set")
	}
	name, colCount, ok := rr.ReadHeader(marker)
	if !ok {
		return nil, want, rr.Err()
	}
	if name != schemaSetName || colCount != 3 {
		return nil, want, newErrorf(KindCorrupt, "reading dump", "expected schema row-set, got %q with %d columns", name, colCount)
	}
	var records []schemaRecord
	for {
		cells, ok := rr.ReadRow(3)
		if !ok {
			break
		}
		if cells[0].Kind != KindInteger || cells[1].Kind != KindText || cells[2].Kind != KindText {
			return nil, want, newErrorf(KindCorrupt, "reading dump", "malformed schema record")
		}
		phase := int(cells[0].Int64)
		record := schemaRecord{phase: phase, name: cells[1].Text, sql: cells[2].Text}

		switch {
		case record.name == "sqlite_sequence":
			want.sequence = true
			continue
		case strings.HasPrefix(record.name, "sqlite_stat"):
			want.stat = true
			continue
		case phase == schemaPhaseVTable:
			want.virtuals = true
		}
		records = append(records, record)
	}
	if rr.Err() != nil {
		return nil, want, rr.Err()
	}
	return records, want, nil
}

// createSystemTables regenerates the catalog entries SQLite itself owns,
// rather than replaying their original DDL: an autoincrement create/drop
// trick brings sqlite_sequence into existence, and "analyze sqlite_schema"
// brings back the sqlite_stat* family with correct shapes for the engine
// version doing the restore.
func createSystemTables(ctx context.Context, lc *Context, want schemaWant) error {
	if want.sequence {
		if _, err := lc.conn.ExecContext(ctx, "create table s3bd_autoinc_tmp(x integer primary key autoincrement)"); err != nil {
			return newError(KindEngine, "creating system tables", err)
		}
		if _, err := lc.conn.ExecContext(ctx, "drop table s3bd_autoinc_tmp"); err != nil {
			return newError(KindEngine, "creating system tables", err)
		}
	}
	if want.stat {
		if _, err := lc.conn.ExecContext(ctx, "analyze sqlite_schema"); err != nil {
			return newError(KindEngine, "creating system tables", err)
		}
	}
	return nil
}

func executeSchemaPhase(ctx context.Context, lc *Context, schema []schemaRecord, phase int) error {
	for _, r := range schema {
		if r.phase != phase {
			continue
		}
		if _, err := lc.conn.ExecContext(ctx, r.sql); err != nil {
			return newErrorf(KindEngine, "creating schema objects", "%s: %v", r.name, err)
		}
	}
	return nil
}

// createSneakyVirtualTables inserts virtual table catalog rows directly
// rather than executing their CREATE VIRTUAL TABLE statements, since the
// module backing them may not be registered on the restoring connection;
// writable_schema briefly lets sqlite_schema accept a hand-built row.
func createSneakyVirtualTables(ctx context.Context, lc *Context, schema []schemaRecord) error {
	if _, err := lc.conn.ExecContext(ctx, "pragma writable_schema=1"); err != nil {
		return newError(KindEngine, "creating virtual tables", err)
	}
	for _, r := range schema {
		if r.phase != schemaPhaseVTable {
			continue
		}
		var b sqlBuilder
		b.appendRaw("insert into sqlite_schema(type,name,tbl_name,rootpage,sql) values('table',")
		b.appendStringLiteral(r.name)
		b.appendRaw(",")
		b.appendStringLiteral(r.name)
		b.appendRaw(",0,")
		b.appendStringLiteral(r.sql)
		b.appendRaw(")")
		if _, err := lc.conn.ExecContext(ctx, b.String()); err != nil {
			_, _ = lc.conn.ExecContext(ctx, "pragma writable_schema=0")
			return newErrorf(KindEngine, "creating virtual tables", "%s: %v", r.name, err)
		}
	}
	if _, err := lc.conn.ExecContext(ctx, "pragma writable_schema=0"); err != nil {
		return newError(KindEngine, "creating virtual tables", err)
	}
	return nil
}

// loadTables reads every remaining per-table row-set up to EndDump,
// restoring each one's rows unless flags asks for schema only.
func loadTables(ctx context.Context, lc *Context, br *bufio.Reader, flags LoadFlags) error {
	for {
		marker, err := br.ReadByte()
		if err != nil {
			return newError(KindIO, "reading dump", err)
		}
		if marker == tagEndDump {
			return nil
		}
		if !isRowSet(marker) {
			return newErrorf(KindCorrupt, "reading dump", "expected table row-set or end of dump")
		}
		rr := newRowReader(br, lc.codec)
		name, colCount, ok := rr.ReadHeader(marker)
		if !ok {
			return rr.Err()
		}
		if err := loadOneTable(ctx, lc, rr, name, colCount, flags); err != nil {
			return err
		}
	}
}

func loadOneTable(ctx context.Context, lc *Context, rr *rowReader, name string, colCount int, flags LoadFlags) error {
	wantColCount, err := tableInfoColumnCount(ctx, lc, name)
	if err != nil {
		return err
	}
	tolerant := strings.HasPrefix(name, "sqlite_stat")
	mismatch := wantColCount != colCount
	if mismatch && !tolerant {
		return newErrorf(KindCorrupt, "restoring table data", "%s: dump has %d columns, database has %d", name, colCount, wantColCount)
	}

	if flags&LoadSchemaOnly != 0 || (tolerant && mismatch) {
		for {
			_, ok := rr.ReadRow(colCount)
			if !ok {
				return rr.Err()
			}
		}
	}

	if name == "sqlite_sequence" {
		if _, err := lc.conn.ExecContext(ctx, "delete from sqlite_sequence"); err != nil {
			return newError(KindEngine, "restoring table data", err)
		}
	}

	var b sqlBuilder
	b.appendRaw("insert into ")
	b.appendIdent(name)
	b.appendRaw(" values(")
	for i := 0; i < colCount; i++ {
		if i > 0 {
			b.appendRaw(",")
		}
		b.appendRaw("?")
	}
	b.appendRaw(")")
	stmt, err := lc.conn.PrepareContext(ctx, b.String())
	if err != nil {
		return newErrorf(KindEngine, "restoring table data", "%s: %v", name, err)
	}
	defer stmt.Close()

	args := make([]interface{}, colCount)
	for {
		cells, ok := rr.ReadRow(colCount)
		if !ok {
			break
		}
		for i, c := range cells {
			args[i] = c.arg()
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return newErrorf(KindEngine, "restoring table data", "%s: %v", name, err)
		}
	}
	return rr.Err()
}

// tableInfoColumnCount returns how many columns table has, or (0, nil) if
// it does not exist in the restored schema — the caller, not this
// function, decides whether a missing table is corruption or (for
// sqlite_stat* names the engine's build may not have created) a row-set
// to tolerate and discard.
func tableInfoColumnCount(ctx context.Context, lc *Context, table string) (int, error) {
	var b sqlBuilder
	b.appendRaw("pragma table_info=")
	b.appendIdent(table)
	rows, err := lc.conn.QueryContext(ctx, b.String())
	if err != nil {
		return 0, newErrorf(KindEngine, "restoring table data", "%s: %v", table, err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return 0, newError(KindEngine, "restoring table data", err)
	}
	n := 0
	for rows.Next() {
		dest := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return 0, newError(KindEngine, "restoring table data", err)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, newError(KindEngine, "restoring table data", err)
	}
	return n, nil
}
