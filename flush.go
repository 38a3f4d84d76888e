package viser

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// FlushScheduler buffers scene actions and applies them to the store in
// FIFO order on a fixed cadence, decoupling arrival rate from apply rate.
// Each tick swaps out the whole pending queue: the actions a tick applies
// are exactly those enqueued before it fired, and actions enqueued during
// the flush wait for the next tick.
type FlushScheduler struct {
	ctx    context.Context
	cancel context.CancelFunc

	store         SceneStore
	flushInterval time.Duration

	stateLock sync.Mutex
	pending   []*SceneAction
}

func NewFlushScheduler(
	ctx context.Context,
	store SceneStore,
	flushInterval time.Duration,
) *FlushScheduler {
	cancelCtx, cancel := context.WithCancel(ctx)
	flushScheduler := &FlushScheduler{
		ctx:           cancelCtx,
		cancel:        cancel,
		store:         store,
		flushInterval: flushInterval,
	}
	go flushScheduler.run()
	return flushScheduler
}

func (self *FlushScheduler) Enqueue(action *SceneAction) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.pending = append(self.pending, action)
}

func (self *FlushScheduler) run() {
	for {
		select {
		case <-self.ctx.Done():
			// anything still queued is discarded. A fresh connection
			// re-establishes scene state via reset_scene and re-adds.
			return
		case <-time.After(self.flushInterval):
			self.flush()
		}
	}
}

func (self *FlushScheduler) flush() {
	self.stateLock.Lock()
	actions := self.pending
	self.pending = nil
	self.stateLock.Unlock()

	for _, action := range actions {
		self.apply(action)
	}
}

func (self *FlushScheduler) apply(action *SceneAction) {
	// a store that rejects a mutation must not stall the remaining actions
	defer func() {
		if r := recover(); r != nil {
			glog.Errorf("[f]apply panic = %v\n", r)
		}
	}()
	action.Apply(self.store)
}

func (self *FlushScheduler) PendingCount() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return len(self.pending)
}

func (self *FlushScheduler) Close() {
	self.cancel()
}
