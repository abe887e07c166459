// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3bd

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openMemConn(t *testing.T, ctx context.Context) (*sql.DB, *sql.Conn) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		t.Fatal(err)
	}
	return db, conn
}

func TestStoreEmptyDatabase(t *testing.T) {
	ctx := context.Background()
	db, conn := openMemConn(t, ctx)
	defer db.Close()
	defer conn.Close()

	var buf bytes.Buffer
	if err := Store(ctx, conn, &buf, 0, nil); err != nil {
		t.Fatal(err)
	}

	out := buf.Bytes()
	wantHeader := []byte{0x53, 0x33, 0x42, 0x44, 0x1A, 0x00, 0x00, 0x01}
	if !bytes.Equal(out[:8], wantHeader) {
		t.Fatalf("header = % X, want % X", out[:8], wantHeader)
	}
	if got := out[len(out)-1]; got != tagEndDump {
		t.Fatalf("last byte = %d, want tagEndDump=%d", got, tagEndDump)
	}
}

func TestStoreLoadRoundTripIntegers(t *testing.T) {
	ctx := context.Background()
	srcDB, srcConn := openMemConn(t, ctx)
	defer srcDB.Close()
	defer srcConn.Close()

	ddl := `create table t(x integer)`
	if _, err := srcConn.ExecContext(ctx, ddl); err != nil {
		t.Fatal(err)
	}
	values := []int64{0, 127, 128, -1, 9223372036854775807}
	for _, v := range values {
		if _, err := srcConn.ExecContext(ctx, "insert into t values(?)", v); err != nil {
			t.Fatal(err)
		}
	}

	var buf bytes.Buffer
	if err := Store(ctx, srcConn, &buf, 0, nil); err != nil {
		t.Fatal(err)
	}

	dstDB, dstConn := openMemConn(t, ctx)
	defer dstDB.Close()
	defer dstConn.Close()

	if err := Load(ctx, dstConn, bytes.NewReader(buf.Bytes()), 0, nil); err != nil {
		t.Fatal(err)
	}

	rows, err := dstConn.QueryContext(ctx, "select x from t order by rowid")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	var got []int64
	for rows.Next() {
		var x int64
		if err := rows.Scan(&x); err != nil {
			t.Fatal(err)
		}
		got = append(got, x)
	}
	if len(got) != len(values) {
		t.Fatalf("got %d rows, want %d", len(got), len(values))
	}
	for i, v := range values {
		if got[i] != v {
			t.Fatalf("row %d: got %d, want %d", i, got[i], v)
		}
	}
}

func TestStoreSchemaOnly(t *testing.T) {
	ctx := context.Background()
	db, conn := openMemConn(t, ctx)
	defer db.Close()
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "create table t(x integer)"); err != nil {
		t.Fatal(err)
	}
	if _, err := conn.ExecContext(ctx, "insert into t values(1),(2),(3)"); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Store(ctx, conn, &buf, StoreSchemaOnly, nil); err != nil {
		t.Fatal(err)
	}

	dstDB, dstConn := openMemConn(t, ctx)
	defer dstDB.Close()
	defer dstConn.Close()

	if err := Load(ctx, dstConn, bytes.NewReader(buf.Bytes()), 0, nil); err != nil {
		t.Fatal(err)
	}
	var count int64
	if err := dstConn.QueryRowContext(ctx, "select count(*) from t").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("schema-only dump restored %d rows, want 0", count)
	}
}

func TestStorePragmaOverride(t *testing.T) {
	ctx := context.Background()
	db, conn := openMemConn(t, ctx)
	defer db.Close()
	defer conn.Close()

	var buf bytes.Buffer
	if err := Store(ctx, conn, &buf, 0, []string{"page_size=8192"}); err != nil {
		t.Fatal(err)
	}

	pragmas, err := readPragmaSet(bufio.NewReader(bytes.NewReader(buf.Bytes()[8:])), utf8Codec{})
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, p := range pragmas {
		if p.name == "page_size" {
			found = true
			if p.value.Kind != KindText || p.value.Text != "8192" {
				t.Fatalf("page_size override = %+v, want text 8192", p.value)
			}
		}
	}
	if !found {
		t.Fatal("page_size pragma not present in dump")
	}
}

func TestLoadRefusesNonEmptyDatabase(t *testing.T) {
	ctx := context.Background()
	db, conn := openMemConn(t, ctx)
	defer db.Close()
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "create table t(x integer)"); err != nil {
		t.Fatal(err)
	}

	otherDB, otherConn := openMemConn(t, ctx)
	defer otherDB.Close()
	defer otherConn.Close()

	var buf bytes.Buffer
	if err := Store(ctx, otherConn, &buf, 0, nil); err != nil {
		t.Fatal(err)
	}

	err := Load(ctx, conn, bytes.NewReader(buf.Bytes()), 0, nil)
	if err == nil {
		t.Fatal("expected Load to refuse a non-empty database")
	}
	se, ok := err.(*Error)
	if !ok || se.Kind != KindPrecondition {
		t.Fatalf("got error %v, want a *Error with KindPrecondition", err)
	}
}
