// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sched

import (
	"fmt"
	"reflect"
	"sync"
	"time"
)

// capability identifies one dispatched operation. One canonical tag
// per operation, compared by identity.
type capability uint8

const (
	capSchedule capability = iota
	capGetScheduler
	capScheduleAfter
	capScheduleAt
	capNow
	capStopRequested
)

var capNames = [...]string{
	capSchedule:      "schedule",
	capGetScheduler:  "get_scheduler",
	capScheduleAfter: "schedule_after",
	capScheduleAt:    "schedule_at",
	capNow:           "now",
	capStopRequested: "stop_requested",
}

func (c capability) String() string { return capNames[c] }

// Narrow single-operation method sets for the native resolution path.
// A type may support schedule alone, or any subset of the time
// capabilities; TimeScheduler is the conventional full bundle.
type (
	scheduleAfterCapable interface {
		ScheduleAfter(d time.Duration) Sender[struct{}]
	}
	scheduleAtCapable interface {
		ScheduleAt(t time.Time) Sender[struct{}]
	}
	nowCapable interface {
		Now() time.Time
	}
)

// capKey pairs a capability tag with the concrete type it was
// retrofitted onto.
type capKey struct {
	cap capability
	typ reflect.Type
}

// The retrofit table. Populated at startup via the Register functions;
// read-mostly afterwards.
var (
	adaptersMu sync.RWMutex
	adapters   = make(map[capKey]any)
)

// register installs an adapter for (c, typ). The native and retrofit
// resolution paths must never both match: registering for a type that
// already implements the capability's method set panics, as does a
// duplicate registration.
func register(c capability, typ, native reflect.Type, adapter any) {
	if typ.Implements(native) {
		panic(fmt.Sprintf("sched: %v implements %v natively; retrofit registration is ill-formed", typ, c))
	}
	adaptersMu.Lock()
	defer adaptersMu.Unlock()
	key := capKey{cap: c, typ: typ}
	if _, dup := adapters[key]; dup {
		panic(fmt.Sprintf("sched: %v already registered for %v", c, typ))
	}
	adapters[key] = adapter
}

func lookup(c capability, v any) (any, bool) {
	adaptersMu.RLock()
	a, ok := adapters[capKey{cap: c, typ: reflect.TypeOf(v)}]
	adaptersMu.RUnlock()
	return a, ok
}

// RegisterSchedule retrofits the schedule capability onto T, for types
// that cannot implement Scheduler directly.
func RegisterSchedule[T any](impl func(T) Sender[struct{}]) {
	register(capSchedule, reflect.TypeFor[T](), reflect.TypeFor[Scheduler](),
		func(v any) Sender[struct{}] { return impl(v.(T)) })
}

// RegisterGetScheduler retrofits the get_scheduler capability onto T.
func RegisterGetScheduler[T any](impl func(T) Scheduler) {
	register(capGetScheduler, reflect.TypeFor[T](), reflect.TypeFor[SchedulerProvider](),
		func(v any) Scheduler { return impl(v.(T)) })
}

// RegisterScheduleAfter retrofits the schedule_after capability onto T.
func RegisterScheduleAfter[T any](impl func(T, time.Duration) Sender[struct{}]) {
	register(capScheduleAfter, reflect.TypeFor[T](), reflect.TypeFor[scheduleAfterCapable](),
		func(v any, d time.Duration) Sender[struct{}] { return impl(v.(T), d) })
}

// RegisterScheduleAt retrofits the schedule_at capability onto T.
func RegisterScheduleAt[T any](impl func(T, time.Time) Sender[struct{}]) {
	register(capScheduleAt, reflect.TypeFor[T](), reflect.TypeFor[scheduleAtCapable](),
		func(v any, t time.Time) Sender[struct{}] { return impl(v.(T), t) })
}

// RegisterNow retrofits the now capability onto T.
func RegisterNow[T any](impl func(T) time.Time) {
	register(capNow, reflect.TypeFor[T](), reflect.TypeFor[nowCapable](),
		func(v any) time.Time { return impl(v.(T)) })
}

// RegisterStopRequested retrofits the stop-signal capability onto T.
func RegisterStopRequested[T any](impl func(T) bool) {
	register(capStopRequested, reflect.TypeFor[T](), reflect.TypeFor[StopSource](),
		func(v any) bool { return impl(v.(T)) })
}

// unsupported reports a failed resolution. Missing capabilities are
// programming errors, not runtime conditions: the retrofit table is
// fixed at startup, so a panic here is the dynamic-dispatch rendering
// of an unsupported-operation build failure.
func unsupported(c capability, v any) string {
	return fmt.Sprintf("sched: %T does not provide %v", v, c)
}

// Schedule resolves the schedule capability on scheduler and returns
// its sender. A native Scheduler implementation is preferred; a
// registered adapter is the fallback. Panics when scheduler provides
// neither.
func Schedule(scheduler any) Sender[struct{}] {
	if n, ok := scheduler.(Scheduler); ok {
		return n.Schedule()
	}
	if a, ok := lookup(capSchedule, scheduler); ok {
		return a.(func(any) Sender[struct{}])(scheduler)
	}
	panic(unsupported(capSchedule, scheduler))
}

// GetScheduler resolves the ambient Scheduler of a receiver's context.
// The result satisfies the Scheduler contract by construction. Panics
// when ctx carries no scheduler; deferred senders require one.
func GetScheduler(ctx any) Scheduler {
	if n, ok := ctx.(SchedulerProvider); ok {
		return n.AmbientScheduler()
	}
	if a, ok := lookup(capGetScheduler, ctx); ok {
		return a.(func(any) Scheduler)(ctx)
	}
	panic(unsupported(capGetScheduler, ctx))
}

// ScheduleAfter resolves the schedule_after capability on scheduler.
// The returned sender completes no earlier than d has elapsed on the
// scheduler's clock, measured from Start.
func ScheduleAfter(scheduler any, d time.Duration) Sender[struct{}] {
	if n, ok := scheduler.(scheduleAfterCapable); ok {
		return n.ScheduleAfter(d)
	}
	if a, ok := lookup(capScheduleAfter, scheduler); ok {
		return a.(func(any, time.Duration) Sender[struct{}])(scheduler, d)
	}
	panic(unsupported(capScheduleAfter, scheduler))
}

// ScheduleAt resolves the schedule_at capability on scheduler. The
// returned sender completes no earlier than the scheduler's clock
// reaching t; a t already in the past is not an error.
func ScheduleAt(scheduler any, t time.Time) Sender[struct{}] {
	if n, ok := scheduler.(scheduleAtCapable); ok {
		return n.ScheduleAt(t)
	}
	if a, ok := lookup(capScheduleAt, scheduler); ok {
		return a.(func(any, time.Time) Sender[struct{}])(scheduler, t)
	}
	panic(unsupported(capScheduleAt, scheduler))
}

// Now resolves the now capability on scheduler and reads its clock.
func Now(scheduler any) time.Time {
	if n, ok := scheduler.(nowCapable); ok {
		return n.Now()
	}
	if a, ok := lookup(capNow, scheduler); ok {
		return a.(func(any) time.Time)(scheduler)
	}
	panic(unsupported(capNow, scheduler))
}

// StopRequested reports whether ctx has requested stop. Unlike the
// other capabilities, absence is not an error: a context without a
// stop facility never requests stop.
func StopRequested(ctx any) bool {
	if n, ok := ctx.(StopSource); ok {
		return n.StopRequested()
	}
	if a, ok := lookup(capStopRequested, ctx); ok {
		return a.(func(any) bool)(ctx)
	}
	return false
}
