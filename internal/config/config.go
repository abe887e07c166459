// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config opens the single SQLite connection that a store or load
// operation runs against. Pragmas and the transaction an operation opens
// are connection-local state, so both binaries need one pinned
// *sql.Conn rather than a pool, which is what Open provides.
package config

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens dbfile as a SQLite database and returns one dedicated
// connection. store and load must run their whole operation against a
// single physical connection, not a pool, since pragmas and the
// transaction they open are connection-local state; SetMaxOpenConns(1)
// combined with handing back the *sql.Conn from db.Conn enforces that.
//
// The caller owns both the returned *sql.DB and *sql.Conn and must close
// the connection before closing the database.
func Open(ctx context.Context, dbfile string, readOnly bool) (*sql.DB, *sql.Conn, error) {
	dsn := dbfile
	if readOnly {
		dsn = fmt.Sprintf("file:%s?mode=ro", dbfile)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", dbfile, err)
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("connecting to %s: %w", dbfile, err)
	}
	return db, conn, nil
}
