// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sched_test

import (
	"testing"

	"code.hybscloud.com/sched"
)

// probe is a recording receiver for payload-less completions.
type probe struct {
	values int
	errors int
	stops  int
	err    error
}

func (p *probe) Value(struct{}) { p.values++ }

func (p *probe) Error(err error) {
	p.errors++
	p.err = err
}

func (p *probe) Stopped() { p.stops++ }

// countScheduler counts schedule resolutions and completes immediately
// on the starting goroutine, like Inline.
type countScheduler struct {
	calls *int
}

func (s countScheduler) Schedule() sched.Sender[struct{}] {
	*s.calls++
	return sched.Inline{}.Schedule()
}

// trapScheduler fails the test if any of its capabilities is exercised.
type trapScheduler struct {
	t *testing.T
}

func (s trapScheduler) Schedule() sched.Sender[struct{}] {
	s.t.Fatal("schedule resolved on a trap scheduler")
	return nil
}

// failScheduler completes every operation through the error channel.
type failScheduler struct {
	err error
}

func (s failScheduler) Schedule() sched.Sender[struct{}] {
	return outcomeSender{err: s.err}
}

// stopScheduler completes every operation with Stopped.
type stopScheduler struct{}

func (stopScheduler) Schedule() sched.Sender[struct{}] {
	return outcomeSender{stop: true}
}

type outcomeSender struct {
	err  error
	stop bool
}

func (s outcomeSender) Connect(r sched.Receiver[struct{}]) sched.Operation {
	return &outcomeOperation{outcomeSender: s, rcv: r}
}

type outcomeOperation struct {
	outcomeSender
	rcv sched.Receiver[struct{}]
}

func (op *outcomeOperation) Start() {
	switch {
	case op.stop:
		op.rcv.Stopped()
	case op.err != nil:
		op.rcv.Error(op.err)
	default:
		op.rcv.Value(struct{}{})
	}
}

// mustPanic runs f and fails the test unless it panics.
func mustPanic(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	f()
}
