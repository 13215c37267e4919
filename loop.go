// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sched

import (
	"container/heap"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// submitCapacity is the bounded capacity of the loop's submission ring.
// Start retries with backoff when the ring is momentarily full, so the
// capacity bounds burst size, not total pending work.
const submitCapacity = 64

const (
	loopRunning uint32 = iota
	loopStopped
)

// Loop is a single-threaded cooperative run loop owning a
// TimeScheduler. Submissions travel over a bounded lock-free SPSC
// ring: at most one goroutine may start operations on the loop's
// scheduler at a time, alongside the one goroutine draining it (the
// draining goroutine may also submit to itself). Completions fire on
// the draining goroutine.
//
// A Loop created by NewLoop reads the wall clock; one created by
// NewLoopAt is driven by a virtual clock that advances only through
// Advance/AdvanceTo, which is the form the timing tests use.
type Loop struct {
	submitQ lfq.SPSC[*loopOperation]
	timers  loopTimers
	state   atomix.Uint32
	clock   atomix.Int64
	virtual bool
}

// NewLoop creates a run loop on the wall clock.
func NewLoop() *Loop {
	l := &Loop{}
	l.submitQ.Init(submitCapacity)
	return l
}

// NewLoopAt creates a run loop on a virtual clock reading start.
// Time advances only through Advance and AdvanceTo.
func NewLoopAt(start time.Time) *Loop {
	l := NewLoop()
	l.virtual = true
	l.clock.Store(start.UnixNano())
	return l
}

// Scheduler returns the loop's TimeScheduler. The value may be shared
// by many simultaneously running operations; Schedule, ScheduleAfter,
// ScheduleAt and Now are safe to call from the submitting and draining
// goroutines.
func (l *Loop) Scheduler() TimeScheduler {
	return loopScheduler{loop: l}
}

// Stop terminates the loop. Every pending and newly started operation
// completes with ErrTerminated through the error channel (or Stopped,
// when its own context had requested stop). Stop is cooperative: issue
// it from the submitting or draining goroutine.
func (l *Loop) Stop() {
	l.state.Store(loopStopped)
}

// Run drives the loop until Stop, idle-waiting with adaptive backoff
// (iox.Backoff) when no work is ready or due. Does not spawn
// goroutines or create channels. On return all pending work has been
// completed with ErrTerminated.
func (l *Loop) Run() {
	var bo iox.Backoff
	for l.state.Load() == loopRunning {
		if l.RunUntilIdle() > 0 {
			bo.Reset()
		} else {
			bo.Wait()
		}
	}
	l.RunUntilIdle()
}

// RunUntilIdle ingests submissions and fires everything ready or due,
// without blocking, and reports the number of completions fired. On a
// stopped loop it instead drains all pending work with ErrTerminated.
func (l *Loop) RunUntilIdle() int {
	n := 0
	for {
		progress := l.ingest()
		if l.state.Load() == loopStopped {
			return n + l.drainTerminated()
		}
		now := l.now().UnixNano()
		for len(l.timers) > 0 && l.timers[0].deadline <= now {
			if l.fire(heap.Pop(&l.timers).(*loopOperation)) {
				n++
			}
			progress = true
		}
		if !progress {
			return n
		}
	}
}

// Advance moves the virtual clock forward by d, firing everything that
// falls due, and reports the number of completions fired.
func (l *Loop) Advance(d time.Duration) int {
	return l.AdvanceTo(l.now().Add(d))
}

// AdvanceTo moves the virtual clock forward to t, firing everything
// that falls due in deadline order; the clock steps through each fired
// deadline so completions observe a time no earlier than their own due
// time. The clock never moves backwards.
func (l *Loop) AdvanceTo(t time.Time) int {
	if !l.virtual {
		panic("sched: AdvanceTo on a wall-clock loop")
	}
	n := l.RunUntilIdle()
	if l.state.Load() == loopStopped {
		return n
	}
	target := t.UnixNano()
	for {
		l.ingest()
		if len(l.timers) == 0 || l.timers[0].deadline > target {
			break
		}
		due := l.timers[0].deadline
		if due > l.clock.Load() {
			l.clock.Store(due)
		}
		if l.fire(heap.Pop(&l.timers).(*loopOperation)) {
			n++
		}
	}
	if target > l.clock.Load() {
		l.clock.Store(target)
	}
	return n + l.RunUntilIdle()
}

// ingest moves submissions from the ring into the timer heap;
// immediate submissions carry their acceptance time as the deadline,
// so they fire in serial order on the next pass.
func (l *Loop) ingest() bool {
	moved := false
	for {
		op, err := l.submitQ.Dequeue()
		if err != nil {
			// ErrWouldBlock: ring is empty.
			return moved
		}
		heap.Push(&l.timers, op)
		moved = true
	}
}

// fire delivers exactly one completion for op, reporting whether this
// side won the claim. A stop request on the receiver's own context
// wins over the value completion and is never reported through the
// error channel.
func (l *Loop) fire(op *loopOperation) bool {
	if !op.claim() {
		return false
	}
	if StopRequested(op.rcv) {
		op.rcv.Stopped()
		return true
	}
	op.rcv.Value(struct{}{})
	return true
}

// drainTerminated completes all pending work on a stopped loop.
func (l *Loop) drainTerminated() int {
	n := 0
	for {
		op, err := l.submitQ.Dequeue()
		if err != nil {
			break
		}
		heap.Push(&l.timers, op)
	}
	for len(l.timers) > 0 {
		op := heap.Pop(&l.timers).(*loopOperation)
		if !op.claim() {
			continue
		}
		if StopRequested(op.rcv) {
			op.rcv.Stopped()
		} else {
			op.rcv.Error(ErrTerminated)
		}
		n++
	}
	return n
}

func (l *Loop) now() time.Time {
	if l.virtual {
		return time.Unix(0, l.clock.Load())
	}
	return time.Now()
}

// loopScheduler is the capability object handed to consumers; it
// borrows the loop, it never owns it.
type loopScheduler struct {
	loop *Loop
}

// Schedule implements the Scheduler contract: the sender completes
// once the caller's turn arrives on the loop's draining goroutine.
func (s loopScheduler) Schedule() Sender[struct{}] {
	return loopSender{loop: s.loop}
}

// Now reads the loop's clock.
func (s loopScheduler) Now() time.Time {
	return s.loop.now()
}

// ScheduleAfter implements the schedule_after capability; d is
// measured from acceptance of the request, on the loop's clock.
func (s loopScheduler) ScheduleAfter(d time.Duration) Sender[struct{}] {
	return loopSender{loop: s.loop, delay: d, timed: true}
}

// ScheduleAt implements the schedule_at capability. A time point
// already in the past fires on the next drain, never an error.
func (s loopScheduler) ScheduleAt(t time.Time) Sender[struct{}] {
	return loopSender{loop: s.loop, at: t, timed: true, absolute: true}
}

// loopSender is an immutable description; each Connect yields an
// independent operation.
type loopSender struct {
	loop     *Loop
	delay    time.Duration
	at       time.Time
	timed    bool
	absolute bool
}

func (s loopSender) Connect(r Receiver[struct{}]) Operation {
	return &loopOperation{loopSender: s, rcv: r}
}

type loopOperation struct {
	loopSender
	rcv      Receiver[struct{}]
	deadline int64
	serial   Serial
	claimed  atomix.Uint32
}

// claim wins the right to complete op. A submission can race shutdown:
// the starting goroutine and the draining goroutine both reach for the
// completion then, and the CAS arbitrates so exactly one side fires.
func (op *loopOperation) claim() bool {
	return op.claimed.CompareAndSwap(0, 1)
}

// Start accepts the request: the deadline is fixed here, against the
// loop's clock, and the operation enters the submission ring. A full
// ring is waited out with iox.Backoff, so backpressure never surfaces
// as a completion. Starting on a stopped loop reports ErrTerminated
// immediately on the calling goroutine.
func (op *loopOperation) Start() {
	l := op.loop
	if l.state.Load() == loopStopped {
		op.rcv.Error(ErrTerminated)
		return
	}
	switch {
	case op.absolute:
		op.deadline = op.at.UnixNano()
	case op.timed:
		op.deadline = l.now().UnixNano() + int64(op.delay)
	default:
		op.deadline = l.now().UnixNano()
	}
	op.serial = nextSerial()
	self := op
	var bo iox.Backoff
	for {
		if err := l.submitQ.Enqueue(&self); err == nil {
			break
		}
		if l.state.Load() == loopStopped {
			// Never entered the ring; no drain will ever see it.
			op.rcv.Error(ErrTerminated)
			return
		}
		bo.Wait()
	}
	// The submission may have landed after a concurrent Stop's final
	// drain already observed an empty ring; whoever wins the claim
	// completes it, so no started operation is ever starved.
	if l.state.Load() == loopStopped && op.claim() {
		if StopRequested(op.rcv) {
			op.rcv.Stopped()
		} else {
			op.rcv.Error(ErrTerminated)
		}
	}
}

// loopTimers is a binary heap ordered by (deadline, serial), so equal
// deadlines fire in FIFO acceptance order.
type loopTimers []*loopOperation

func (h loopTimers) Len() int { return len(h) }

func (h loopTimers) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].serial < h[j].serial
}

func (h loopTimers) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *loopTimers) Push(v any) { *h = append(*h, v.(*loopOperation)) }

func (h *loopTimers) Pop() any {
	old := *h
	n := len(old)
	op := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return op
}
