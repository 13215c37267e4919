// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sched

// Inline is the trivial scheduler: its operations complete with Value
// on the goroutine calling Start, immediately and unconditionally.
// It never errors and never stops on its own; cancellation observed
// between Connect and Start is the deferred layer's concern, not
// Inline's. The executor of last resort.
type Inline struct{}

// Schedule implements the Scheduler contract.
func (Inline) Schedule() Sender[struct{}] {
	return inlineSender{}
}

type inlineSender struct{}

func (inlineSender) Connect(r Receiver[struct{}]) Operation {
	return &inlineOperation{rcv: r}
}

type inlineOperation struct {
	rcv Receiver[struct{}]
}

func (op *inlineOperation) Start() {
	op.rcv.Value(struct{}{})
}
