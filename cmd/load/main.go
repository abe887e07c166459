// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command load restores a binary dump produced by store into a SQLite
// database, which must be empty.
//
// usage: load [-i infile] [-s] dbfile [override ...]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/blgl/s3bd/internal/config"
	"github.com/blgl/s3bd/internal/start"
	"github.com/blgl/s3bd/s3bd"
)

func main() {
	infile := flag.String("i", "", "read the dump from this file instead of stdin")
	schemaOnly := flag.Bool("s", false, "restore schema objects only, discard table data")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: load [-i infile] [-s] dbfile [override ...]")
		os.Exit(1)
	}
	dbfile, overrides := args[0], args[1:]

	err := start.Run(context.Background(), 5*time.Second, func(ctx context.Context) error {
		return runLoad(ctx, dbfile, *infile, *schemaOnly, overrides)
	})
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

func runLoad(ctx context.Context, dbfile, infile string, schemaOnly bool, overrides []string) error {
	db, conn, err := config.Open(ctx, dbfile, false)
	if err != nil {
		return err
	}
	defer db.Close()
	defer conn.Close()

	r := os.Stdin
	if infile != "" {
		f, err := os.Open(infile)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	var flags s3bd.LoadFlags
	if schemaOnly {
		flags |= s3bd.LoadSchemaOnly
	}
	return s3bd.Load(ctx, conn, r, flags, overrides)
}
