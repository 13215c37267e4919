// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sched

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// Exec connects s to an internal receiver, starts the operation, and
// blocks until its one completion, waiting past the boundary with
// adaptive backoff (iox.Backoff) without spawning goroutines or
// creating channels. Returns Right(value) or Left(error); stopped
// reports the stopped completion as a third outcome (the Either is
// zero then) — a stop is never folded into the error channel.
//
// The sender's operation must be driven by some other party (a Loop's
// draining goroutine, or the calling goroutine itself for inline
// schedulers); Exec only waits.
func Exec[T any](s Sender[T]) (result kont.Either[error, T], stopped bool) {
	return exec(s, nil)
}

// ExecOn is Exec with scheduler injected as the consumer context's
// ambient scheduler, the way a top-level runner supplies the concrete
// scheduler once, at the outermost consuming context.
func ExecOn[T any](scheduler Scheduler, s Sender[T]) (result kont.Either[error, T], stopped bool) {
	return exec(s, scheduler)
}

func exec[T any](s Sender[T], scheduler Scheduler) (kont.Either[error, T], bool) {
	var (
		done    atomix.Uint32
		result  kont.Either[error, T]
		stopped bool
	)
	rcv := NewReceiver(
		func(v T) {
			result = kont.Right[error, T](v)
			done.Store(1)
		},
		func(err error) {
			result = kont.Left[error, T](err)
			done.Store(1)
		},
		func() {
			stopped = true
			done.Store(1)
		},
	)
	if scheduler != nil {
		rcv = WithScheduler(rcv, scheduler)
	}
	op := s.Connect(rcv)
	op.Start()
	var bo iox.Backoff
	for done.Load() == 0 {
		bo.Wait()
	}
	return result, stopped
}
