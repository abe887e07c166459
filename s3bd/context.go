// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3bd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failure the way the source's status codes do,
// collapsed to the handful of buckets callers actually need to branch on.
type ErrorKind int

const (
	KindIO ErrorKind = iota
	KindCorrupt
	KindOOM
	KindEngine
	KindPrecondition
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindCorrupt:
		return "corrupt"
	case KindOOM:
		return "oom"
	case KindEngine:
		return "engine"
	case KindPrecondition:
		return "precondition"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the status-code-plus-message the source's context_t carries,
// with an activity prefix matching the style of its errf() helper ("While
// <activity>: <detail>").
type Error struct {
	Kind     ErrorKind
	Activity string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("while %s: %v", e.Activity, e.Err)
	}
	return fmt.Sprintf("while %s", e.Activity)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, activity string, err error) *Error {
	return &Error{Kind: kind, Activity: activity, Err: err}
}

func newErrorf(kind ErrorKind, activity string, format string, args ...interface{}) *Error {
	return newError(kind, activity, fmt.Errorf(format, args...))
}

// errOutOfMemory is the out-of-memory error, built once at package init so
// that reporting OOM would not itself allocate. newContext stores it in
// Context.oom, but no code path in this package returns it: a dump-declared
// length prefix too large to allocate is not detected, and the allocation
// for it is attempted as is.
var errOutOfMemory = &Error{Kind: KindOOM, Activity: "allocating", Err: errors.New("out of memory")}

// Context carries the state shared by one Store or one Load operation:
// the connection, the active text-encoding adapter, and whether a
// transaction is currently open. It is not safe for concurrent use — each
// operation owns its own Context for its own duration, matching the
// source's single-threaded, one-Context-per-operation model.
type Context struct {
	conn          *sql.Conn
	codec         TextCodec
	encoding      byte
	inTransaction bool
	oom           *Error
}

func newContext(conn *sql.Conn) *Context {
	return &Context{conn: conn, oom: errOutOfMemory}
}

// rollback rolls back the active transaction, if any, swallowing any error
// from the rollback itself — matches rollback_transaction's best-effort
// cleanup-path behavior.
func (c *Context) rollback() {
	if c.inTransaction {
		_, _ = c.conn.ExecContext(context.Background(), "rollback transaction")
		c.inTransaction = false
	}
}

// parseOverrides splits "name=value" / "name" override strings into
// replacements and deletions, the Go equivalent of override_pragmas's two
// prepared statements against the scratch pragmas table.
type overrideSet struct {
	replace map[string]string
	delete  map[string]bool
}

func parseOverrides(overrides []string) overrideSet {
	set := overrideSet{replace: map[string]string{}, delete: map[string]bool{}}
	for _, o := range overrides {
		if eq := strings.IndexByte(o, '='); eq >= 0 {
			set.replace[o[:eq]] = o[eq+1:]
		} else {
			set.delete[o] = true
		}
	}
	return set
}

// apply mutates an in-memory pragma record list the way override_pragmas
// mutates the scratch pragmas table: replace rewrites value by name,
// delete removes the row, names the caller didn't name are left untouched,
// and names not present in records are silently ignored — the caller
// cannot inject new pragmas.
func (s overrideSet) apply(records []pragmaRecord) []pragmaRecord {
	out := records[:0]
	for _, r := range records {
		if s.delete[r.name] {
			continue
		}
		if v, ok := s.replace[r.name]; ok {
			r.value = Cell{Kind: KindText, Text: v}
		}
		out = append(out, r)
	}
	return out
}
