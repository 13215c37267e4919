// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sched_test

import (
	"testing"
	"time"

	"code.hybscloud.com/sched"
)

func TestAmbientValueCompletion(t *testing.T) {
	// A scheduler whose schedule sender completes immediately: the
	// deferred sender must produce exactly the value completion, with
	// no payload, never error or stopped.
	p := &probe{}
	op := sched.Ambient().Connect(sched.WithScheduler[struct{}](p, sched.Inline{}))
	op.Start()
	if p.values != 1 || p.errors != 0 || p.stops != 0 {
		t.Fatalf("got values=%d errors=%d stops=%d, want 1 0 0", p.values, p.errors, p.stops)
	}
}

func TestAmbientTransparency(t *testing.T) {
	// Connecting Ambient to r must be observably identical to
	// connecting schedule(get_scheduler(r)) to r.
	calls := 0
	s := countScheduler{calls: &calls}

	direct := &probe{}
	sched.Schedule(s).Connect(direct).Start()

	deferred := &probe{}
	sched.Ambient().Connect(sched.WithScheduler[struct{}](deferred, s)).Start()

	if direct.values != deferred.values || direct.errors != deferred.errors || direct.stops != deferred.stops {
		t.Fatalf("deferred completion (%d %d %d) differs from direct (%d %d %d)",
			deferred.values, deferred.errors, deferred.stops,
			direct.values, direct.errors, direct.stops)
	}
	if calls != 2 {
		t.Fatalf("schedule resolved %d times, want 2 (once per connect)", calls)
	}
}

func TestAmbientResolvesOncePerConnect(t *testing.T) {
	calls := 0
	s := countScheduler{calls: &calls}
	sender := sched.Ambient()

	op := sender.Connect(sched.WithScheduler[struct{}](&probe{}, s))
	if calls != 1 {
		t.Fatalf("schedule resolved %d times at connect, want 1", calls)
	}
	op.Start()
	if calls != 1 {
		t.Fatalf("schedule resolved %d times after start, want still 1", calls)
	}
}

func TestAmbientStoppedBeforeResolution(t *testing.T) {
	// A context reporting stop before get_scheduler returns must yield
	// the stopped completion without ever resolving a scheduler.
	p := &probe{}
	r := sched.WithStop[struct{}](
		sched.WithScheduler[struct{}](p, trapScheduler{t: t}),
		func() bool { return true },
	)
	op := sched.Ambient().Connect(r)
	op.Start()
	if p.stops != 1 || p.values != 0 || p.errors != 0 {
		t.Fatalf("got values=%d errors=%d stops=%d, want 0 0 1", p.values, p.errors, p.stops)
	}
}

func TestAmbientAfterStoppedBeforeResolution(t *testing.T) {
	p := &probe{}
	r := sched.WithStop[struct{}](
		sched.WithScheduler[struct{}](p, trapScheduler{t: t}),
		func() bool { return true },
	)
	op := sched.AmbientAfter(time.Second).Connect(r)
	op.Start()
	if p.stops != 1 || p.values != 0 || p.errors != 0 {
		t.Fatalf("got values=%d errors=%d stops=%d, want 0 0 1", p.values, p.errors, p.stops)
	}
}

func TestAmbientIndependentInstances(t *testing.T) {
	// Two instances of the same sender value on two different
	// schedulers run independently.
	t0 := time.Unix(0, 0)
	loopA := sched.NewLoopAt(t0)
	loopB := sched.NewLoopAt(t0)
	sender := sched.Ambient()

	pa, pb := &probe{}, &probe{}
	opA := sender.Connect(sched.WithScheduler[struct{}](pa, loopA.Scheduler()))
	opB := sender.Connect(sched.WithScheduler[struct{}](pb, loopB.Scheduler()))
	opA.Start()
	opB.Start()

	loopA.RunUntilIdle()
	if pa.values != 1 {
		t.Fatalf("instance A got %d value completions, want 1", pa.values)
	}
	if pb.values != 0 || pb.errors != 0 || pb.stops != 0 {
		t.Fatal("completing instance A affected instance B")
	}
	loopB.RunUntilIdle()
	if pb.values != 1 {
		t.Fatalf("instance B got %d value completions, want 1", pb.values)
	}
}

func TestAmbientAfterLowerBound(t *testing.T) {
	// Completion occurs no earlier than now + d on the scheduler's own
	// clock, measured from start.
	t0 := time.Unix(1000, 0)
	loop := sched.NewLoopAt(t0)
	p := &probe{}
	op := sched.AmbientAfter(250 * time.Millisecond).Connect(
		sched.WithScheduler[struct{}](p, loop.Scheduler()))
	op.Start()

	loop.Advance(249 * time.Millisecond)
	if p.values != 0 {
		t.Fatal("completed before the requested duration elapsed")
	}
	loop.Advance(time.Millisecond)
	if p.values != 1 || p.errors != 0 || p.stops != 0 {
		t.Fatalf("got values=%d errors=%d stops=%d, want 1 0 0", p.values, p.errors, p.stops)
	}
	if now := loop.Scheduler().Now(); now.Before(t0.Add(250 * time.Millisecond)) {
		t.Fatalf("clock reads %v at completion, want >= %v", now, t0.Add(250*time.Millisecond))
	}
}

func TestAmbientAfterMeasuresFromStart(t *testing.T) {
	// The delay counts from acceptance, not from sender construction.
	t0 := time.Unix(0, 0)
	loop := sched.NewLoopAt(t0)
	sender := sched.AmbientAfter(100 * time.Millisecond)

	loop.Advance(time.Second)

	p := &probe{}
	op := sender.Connect(sched.WithScheduler[struct{}](p, loop.Scheduler()))
	op.Start()
	loop.Advance(99 * time.Millisecond)
	if p.values != 0 {
		t.Fatal("completed before 100ms from start")
	}
	loop.Advance(time.Millisecond)
	if p.values != 1 {
		t.Fatalf("got %d value completions, want 1", p.values)
	}
}

func TestAmbientReconnect(t *testing.T) {
	// One description, connected repeatedly, produces independent
	// operations.
	t0 := time.Unix(0, 0)
	loop := sched.NewLoopAt(t0)
	sender := sched.AmbientAfter(10 * time.Millisecond)

	first := &probe{}
	sender.Connect(sched.WithScheduler[struct{}](first, loop.Scheduler())).Start()
	loop.Advance(10 * time.Millisecond)
	if first.values != 1 {
		t.Fatalf("first connect got %d value completions, want 1", first.values)
	}

	second := &probe{}
	sender.Connect(sched.WithScheduler[struct{}](second, loop.Scheduler())).Start()
	loop.Advance(10 * time.Millisecond)
	if second.values != 1 {
		t.Fatalf("second connect got %d value completions, want 1", second.values)
	}
	if first.values != 1 {
		t.Fatal("reconnect disturbed the first instance")
	}
}

func TestAmbientErrorPassthrough(t *testing.T) {
	// Errors raised by the resolved sender reach the receiver
	// untranslated.
	p := &probe{}
	op := sched.Ambient().Connect(
		sched.WithScheduler[struct{}](p, failScheduler{err: sched.ErrTerminated}))
	op.Start()
	if p.errors != 1 || p.values != 0 || p.stops != 0 {
		t.Fatalf("got values=%d errors=%d stops=%d, want 0 1 0", p.values, p.errors, p.stops)
	}
	if p.err != sched.ErrTerminated {
		t.Fatalf("got error %v, want it passed through unchanged", p.err)
	}
}
