// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sched

import "code.hybscloud.com/atomix"

// NewReceiver builds a Receiver from up to three completion callbacks;
// nil callbacks are permitted and simply ignored when their completion
// fires. A CAS guard enforces the single-fire contract at the consumer
// edge, where cancellation/completion races meet: a second completion
// on the same receiver panics.
func NewReceiver[T any](value func(T), err func(error), stopped func()) Receiver[T] {
	return &funcReceiver[T]{value: value, err: err, stopped: stopped}
}

type funcReceiver[T any] struct {
	value   func(T)
	err     func(error)
	stopped func()
	fired   atomix.Uint32
}

func (r *funcReceiver[T]) fire() {
	if !r.fired.CompareAndSwap(0, 1) {
		panic("sched: receiver completed more than once")
	}
}

func (r *funcReceiver[T]) Value(v T) {
	r.fire()
	if r.value != nil {
		r.value(v)
	}
}

func (r *funcReceiver[T]) Error(err error) {
	r.fire()
	if r.err != nil {
		r.err(err)
	}
}

func (r *funcReceiver[T]) Stopped() {
	r.fire()
	if r.stopped != nil {
		r.stopped()
	}
}

// WithScheduler wraps r in a context that answers the get_scheduler
// capability with s. Completions forward to r unchanged, as does the
// stop signal of r's own context. This is the injection point for a
// top-level runner: deferred senders require the outermost consumer to
// carry a scheduler before connecting.
func WithScheduler[T any](r Receiver[T], s Scheduler) Receiver[T] {
	return schedulerEnv[T]{Receiver: r, s: s}
}

type schedulerEnv[T any] struct {
	Receiver[T]
	s Scheduler
}

func (e schedulerEnv[T]) AmbientScheduler() Scheduler { return e.s }

func (e schedulerEnv[T]) StopRequested() bool { return StopRequested(e.Receiver) }

// WithStop wraps r in a context whose stop signal is read from
// stopped. Completions and the ambient scheduler of r's own context
// forward unchanged. The probe must be safe to call from whichever
// goroutine runs the resolved operation.
func WithStop[T any](r Receiver[T], stopped func() bool) Receiver[T] {
	return stopEnv[T]{Receiver: r, stop: stopped}
}

type stopEnv[T any] struct {
	Receiver[T]
	stop func() bool
}

func (e stopEnv[T]) StopRequested() bool { return e.stop() }

func (e stopEnv[T]) AmbientScheduler() Scheduler { return GetScheduler(e.Receiver) }
