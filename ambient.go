// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sched

import "time"

// Ambient returns a sender that schedules onto whatever scheduler the
// connected receiver's context provides. The sender is stateless;
// resolution happens once per Connect:
//
//  1. the receiver's ambient scheduler is read via GetScheduler —
//     read-only, no work starts;
//  2. that scheduler's schedule sender is obtained via Schedule;
//  3. the receiver is connected to the concrete sender directly.
//
// The receiver is handed to the concrete sender unchanged, so
// completions, errors, and cancellation pass through untranslated. If
// the context had already requested stop before resolution, the
// operation reports Stopped on Start and no scheduler is consulted.
func Ambient() Sender[struct{}] {
	return ambientSender{}
}

type ambientSender struct{}

func (ambientSender) Connect(r Receiver[struct{}]) Operation {
	if StopRequested(r) {
		return &ambientOperation{rcv: r}
	}
	return &ambientOperation{inner: Schedule(GetScheduler(r)).Connect(r)}
}

// AmbientAfter returns a sender that schedules onto the receiver's
// ambient scheduler, completing no earlier than d has elapsed on that
// scheduler's clock, measured from Start. Resolution mirrors Ambient
// with ScheduleAfter(scheduler, d) in step 2; d is fixed at
// construction. No AmbientAt counterpart exists: absolute-time
// scheduling stays a raw capability of a directly supplied scheduler
// (compose it from Now plus AmbientAfter when the deferred form is
// needed).
func AmbientAfter(d time.Duration) Sender[struct{}] {
	return ambientAfterSender{d: d}
}

type ambientAfterSender struct {
	d time.Duration
}

func (s ambientAfterSender) Connect(r Receiver[struct{}]) Operation {
	if StopRequested(r) {
		return &ambientOperation{rcv: r}
	}
	return &ambientOperation{inner: ScheduleAfter(GetScheduler(r), s.d).Connect(r)}
}

// ambientOperation owns the resolved concrete operation by direct
// containment; the inner operation's lifetime is strictly inside this
// one's, and Start forwards without buffering. A nil inner means the
// context had requested stop at connect time: Start then reports
// Stopped on the retained receiver and nothing else ever fires.
type ambientOperation struct {
	inner Operation
	rcv   Receiver[struct{}]
}

func (op *ambientOperation) Start() {
	if op.inner == nil {
		op.rcv.Stopped()
		return
	}
	op.inner.Start()
}
