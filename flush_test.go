package viser

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

// records applied ops in order
type recordingStore struct {
	stateLock sync.Mutex
	ops       []string

	onAddNode func(name string)
}

func (self *recordingStore) AddNode(name string, create NodeFactory) {
	create()
	self.record("add:" + name)
	if self.onAddNode != nil {
		self.onAddNode(name)
	}
}

func (self *recordingStore) RemoveNode(name string) {
	self.record("remove:" + name)
}

func (self *recordingStore) ResetAll() {
	self.record("reset")
}

func (self *recordingStore) record(op string) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.ops = append(self.ops, op)
}

func (self *recordingStore) Ops() []string {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return append([]string{}, self.ops...)
}

func noopFactory() any {
	return nil
}

func TestFlushApplyOrderExactlyOnce(t *testing.T) {
	cancelCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &recordingStore{}
	// long interval so the test drives ticks by hand
	scheduler := NewFlushScheduler(cancelCtx, store, 1*time.Hour)
	defer scheduler.Close()

	scheduler.Enqueue(&SceneAction{Op: OpResetAll})
	scheduler.Enqueue(&SceneAction{Op: OpAddNode, Name: "/a", Create: noopFactory})
	scheduler.Enqueue(&SceneAction{Op: OpRemoveNode, Name: "/a"})
	assert.Equal(t, scheduler.PendingCount(), 3)

	scheduler.flush()
	assert.Equal(t, store.Ops(), []string{"reset", "add:/a", "remove:/a"})
	assert.Equal(t, scheduler.PendingCount(), 0)

	// a drained action is never applied again
	scheduler.flush()
	scheduler.flush()
	assert.Equal(t, store.Ops(), []string{"reset", "add:/a", "remove:/a"})
}

// actions enqueued during a flush wait for the next tick
func TestFlushBoundary(t *testing.T) {
	cancelCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &recordingStore{}
	scheduler := NewFlushScheduler(cancelCtx, store, 1*time.Hour)
	defer scheduler.Close()

	store.onAddNode = func(name string) {
		if name == "/a" {
			scheduler.Enqueue(&SceneAction{Op: OpAddNode, Name: "/b", Create: noopFactory})
		}
	}

	scheduler.Enqueue(&SceneAction{Op: OpAddNode, Name: "/a", Create: noopFactory})
	scheduler.flush()

	assert.Equal(t, store.Ops(), []string{"add:/a"})
	assert.Equal(t, scheduler.PendingCount(), 1)

	scheduler.flush()
	assert.Equal(t, store.Ops(), []string{"add:/a", "add:/b"})
	assert.Equal(t, scheduler.PendingCount(), 0)
}

func TestFlushTimer(t *testing.T) {
	cancelCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &recordingStore{}
	scheduler := NewFlushScheduler(cancelCtx, store, 10*time.Millisecond)

	scheduler.Enqueue(&SceneAction{Op: OpAddNode, Name: "/a", Create: noopFactory})
	waitFor(t, 5*time.Second, func() bool {
		return len(store.Ops()) == 1
	})

	// actions still queued at close are discarded
	scheduler.Close()
	// the run loop observes the cancel on its next wakeup
	time.Sleep(50 * time.Millisecond)
	scheduler.Enqueue(&SceneAction{Op: OpAddNode, Name: "/b", Create: noopFactory})
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, store.Ops(), []string{"add:/a"})
}

// a store that panics on one mutation must not stall the rest of the batch
func TestFlushApplyPanic(t *testing.T) {
	cancelCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &recordingStore{}
	scheduler := NewFlushScheduler(cancelCtx, store, 1*time.Hour)
	defer scheduler.Close()

	scheduler.Enqueue(&SceneAction{Op: OpAddNode, Name: "/a", Create: func() any {
		panic("store rejected mutation")
	}})
	scheduler.Enqueue(&SceneAction{Op: OpAddNode, Name: "/b", Create: noopFactory})

	scheduler.flush()
	assert.Equal(t, store.Ops(), []string{"add:/b"})
}
