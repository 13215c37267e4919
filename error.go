// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sched

import "errors"

// ErrTerminated is the one error this layer raises itself: a scheduler
// that has been stopped can no longer guarantee scheduling, and every
// pending or newly started operation on it completes through the error
// channel with this sentinel. Cancellation observed through a
// receiver's own context is reported as Stopped, never as an error;
// the two channels are never conflated. Any other error reaching a
// receiver originates in a concrete scheduler and passes through the
// universal error channel verbatim, without translation, wrapping, or
// suppression.
var ErrTerminated = errors.New("sched: scheduler terminated")
