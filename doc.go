// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sched is the scheduling abstraction layer of an asynchronous
// execution framework: asynchronous work is described by senders,
// consumed by receivers, and issued on whichever scheduler the
// consumer's context names — resolved at connection time, so library
// code stays scheduler-agnostic.
//
// # Architecture
//
//   - Contracts: [Sender] describes work not yet started, [Receiver] is the
//     triple of completion callbacks (value/error/stopped), [Operation] is
//     a connected running instance. [Scheduler] and [TimeScheduler] are the
//     capability contracts concrete executors implement.
//   - Dispatch: capability operations ([Schedule], [GetScheduler],
//     [ScheduleAfter], [ScheduleAt], [Now]) prefer a native implementation
//     and fall back to adapters retrofitted via the Register functions.
//   - Deferred resolution: [Ambient] and [AmbientAfter] name no scheduler;
//     Connect pulls the ambient scheduler out of the receiver's context and
//     delegates to the concrete sender it yields.
//   - Execution: [Inline] completes on the starting goroutine; [Loop] is a
//     single-threaded run loop over a bounded lock-free SPSC ring from
//     [code.hybscloud.com/lfq], with a timer heap and a wall or virtual
//     clock. [Exec] and [ExecOn] block via adaptive backoff
//     ([code.hybscloud.com/iox]) and return [code.hybscloud.com/kont.Either].
//
// # Error Handling
//
//   - [ErrTerminated] is the single error this layer raises (scheduler
//     shutdown); everything else passes through the universal error
//     channel verbatim. A stop observed through the receiver's context
//     surfaces as the stopped completion, never as an error.
//
// # Example
//
//	loop := sched.NewLoop()
//	go loop.Run()
//	result, _ := sched.ExecOn[struct{}](loop.Scheduler(), sched.AmbientAfter(250*time.Millisecond))
//	if _, ok := result.GetRight(); ok {
//		// the 250ms turn arrived on the loop
//	}
//	loop.Stop()
package sched
