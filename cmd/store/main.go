// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command store writes a binary dump of a SQLite database to a file or
// to stdout.
//
// usage: store [-o outfile] [-s] dbfile [override ...]
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
	outfile := flag.String("o", "", "write the dump to this file instead of stdout")
	schemaOnly := flag.Bool("s", false, "omit table data, dump schema only")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: store [-o outfile] [-s] dbfile [override ...]")
		os.Exit(1)
	}
	dbfile, overrides := args[0], args[1:]

	err := start.Run(context.Background(), 5*time.Second, func(ctx context.Context) error {
		return runStore(ctx, dbfile, *outfile, *schemaOnly, overrides)
	})
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

func runStore(ctx context.Context, dbfile, outfile string, schemaOnly bool, overrides []string) error {
	db, conn, err := config.Open(ctx, dbfile, true)
	if err != nil {
		return err
	}
	defer db.Close()
	defer conn.Close()

	w := os.Stdout
	if outfile != "" {
		f, err := os.Create(outfile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	var flags s3bd.StoreFlags
	if schemaOnly {
		flags |= s3bd.StoreSchemaOnly
	}
	return s3bd.Store(ctx, conn, w, flags, overrides)
}
