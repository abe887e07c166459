// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package start wires Ctrl-C cancellation around one store or load
// operation. A dump is written or restored inside a single SQLite
// transaction, so a mid-operation interrupt already has a defined outcome
// — the deferred rollback — and all this package adds on top is making
// sure that rollback actually gets a chance to run before the process
// exits.
package start

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"
)

// Op is one store or load call: it blocks until the dump is fully
// written or restored, or ctx is canceled.
type Op func(ctx context.Context) error

// Run executes op, canceling its context on the first os.Interrupt so
// op's own cleanup path (Store and Load both defer a rollback) runs
// instead of the process dying mid-transaction. If op hasn't returned
// stopTimeout after that, Run stops waiting and returns whatever error op
// last reported — a second Ctrl-C's worth of patience, not a promise that
// op has actually finished tearing down by the time Run returns.
func Run(ctx context.Context, stopTimeout time.Duration, op Op) error {
	notify := make(chan os.Signal, 3)
	signal.Notify(notify, os.Interrupt)
	ctx, cancel := context.WithCancel(ctx)
	once := &sync.Once{}
	fin := make(chan bool)
	unlock := func() {
		close(fin)
	}
	unlockOnce := func() {
		once.Do(unlock)
	}
	opErr := atomic.Value{}
	go func() {
		err := op(ctx)
		if err != nil {
			opErr.Store(err)
		}
		unlockOnce()
	}()
	select {
	case <-notify:
	case <-fin:
	}
	cancel()
	go func() {
		<-time.After(stopTimeout)
		unlockOnce()
	}()
	<-fin
	if err, ok := opErr.Load().(error); ok {
		return err
	}
	return nil
}
