package viser

import (
	"context"
	"sync"

	"github.com/golang/glog"
)

// serialGate is a FIFO fair mutual exclusion gate. Tickets enter in call
// order and are granted in the same order, independent of how long each
// holder keeps the gate. Enter is non-blocking so the caller can fix the
// ticket's position in the queue before handing the work to a goroutine.
type serialGate struct {
	stateLock sync.Mutex
	tail      chan struct{}
}

func newSerialGate() *serialGate {
	return &serialGate{}
}

func (self *serialGate) Enter() *gateTicket {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	ticket := &gateTicket{
		prev: self.tail,
		done: make(chan struct{}),
	}
	self.tail = ticket.done
	return ticket
}

type gateTicket struct {
	prev <-chan struct{}
	done chan struct{}
	once sync.Once
}

func (self *gateTicket) Wait(ctx context.Context) error {
	if self.prev == nil {
		return nil
	}
	select {
	case <-self.prev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release must be called on every exit path. If the ticket was abandoned
// before its turn, the grant is still passed on in order.
func (self *gateTicket) Release() {
	self.once.Do(func() {
		if self.prev == nil {
			close(self.done)
			return
		}
		select {
		case <-self.prev:
			close(self.done)
		default:
			go func() {
				<-self.prev
				close(self.done)
			}()
		}
	})
}

type DecodeFunction func(ctx context.Context, frameBytes []byte) (Message, error)

type HandleMessageFunction func(message Message)

// OrderedDecoder serializes decode-and-handle so that handlers run in
// strict frame arrival order even though decoding suspends. Decode work
// does not overlap across frames. That throughput cost is intentional:
// ordering correctness dominates for scene mutations, which are not
// commutative.
type OrderedDecoder struct {
	ctx    context.Context
	gate   *serialGate
	decode DecodeFunction
	handle HandleMessageFunction
}

func NewOrderedDecoder(
	ctx context.Context,
	decode DecodeFunction,
	handle HandleMessageFunction,
) *OrderedDecoder {
	return &OrderedDecoder{
		ctx:    ctx,
		gate:   newSerialGate(),
		decode: decode,
		handle: handle,
	}
}

// Submit queues one raw frame. The ticket is taken synchronously, so the
// caller's submission order is the application order.
func (self *OrderedDecoder) Submit(frameBytes []byte) {
	ticket := self.gate.Enter()
	go func() {
		defer ticket.Release()

		if err := ticket.Wait(self.ctx); err != nil {
			return
		}

		message, err := self.decode(self.ctx, frameBytes)
		if err != nil {
			// drop the single frame, the pipeline continues
			glog.Infof("[g]drop frame = %s\n", err)
			return
		}

		defer func() {
			if r := recover(); r != nil {
				glog.Errorf("[g]handle panic = %v\n", r)
			}
		}()
		self.handle(message)
	}()
}
