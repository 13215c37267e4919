// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sched

import "time"

// Receiver consumes the completion of one asynchronous operation.
// For a started operation exactly one of the three callbacks fires,
// exactly once, and never before Start returns control flow to the
// operation. Value and Error carry the operation's result; Stopped
// reports that an external cancellation was observed instead.
type Receiver[T any] interface {
	Value(v T)
	Error(err error)
	Stopped()
}

// Sender describes an asynchronous operation that has not started.
// A Sender is an immutable description: Connect may be called any
// number of times, each call producing an independent Operation.
// The value completion payload is the type parameter; the error
// completion payload is always error, the universal error channel.
type Sender[T any] interface {
	Connect(r Receiver[T]) Operation
}

// Operation is a running instance produced by Connect. The caller
// keeps it alive until one completion fires on the receiver; an
// Operation that was never started may be discarded safely. Connect
// performs only synchronous bookkeeping and never blocks; Start does
// not suspend either, though a loop operation may briefly wait out
// backpressure on the submission ring.
type Operation interface {
	Start()
}

// Scheduler names an execution context. Schedule returns a sender that,
// once connected and started, fires exactly one completion on that
// context; the value completion carries no payload. The error
// completion is reserved for a scheduler that can no longer guarantee
// scheduling (see ErrTerminated).
//
// A Scheduler may be shared by many simultaneously running operations;
// Schedule must be safe to call concurrently.
type Scheduler interface {
	Schedule() Sender[struct{}]
}

// TimeScheduler is a Scheduler that additionally owns a clock.
//
// ScheduleAfter completes no earlier than d has elapsed on the
// scheduler's clock, measured from acceptance of the request (Start),
// not from sender construction. ScheduleAt completes no earlier than
// the clock reaching t; a t already in the past completes as soon as
// scheduling permits, never with an error. Now must be monotonic
// across calls on the same scheduler instance.
type TimeScheduler interface {
	Scheduler
	Now() time.Time
	ScheduleAfter(d time.Duration) Sender[struct{}]
	ScheduleAt(t time.Time) Sender[struct{}]
}

// SchedulerProvider is the ambient-scheduler capability of a
// receiver's context. GetScheduler resolves it.
type SchedulerProvider interface {
	AmbientScheduler() Scheduler
}

// StopSource is the optional stop-signal capability of a receiver's
// context. This package never creates stop signals; the deferred
// senders only observe one when the context carries it.
type StopSource interface {
	StopRequested() bool
}
