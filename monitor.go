package viser

import (
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Reconnect fixes the retry delay from the moment the attempt starts,
// so time spent failing to connect counts against the delay.
type Reconnect struct {
	endTime time.Time
}

func NewReconnect(timeout time.Duration) *Reconnect {
	return &Reconnect{
		endTime: time.Now().Add(timeout),
	}
}

func (self *Reconnect) After() <-chan time.Time {
	return time.After(time.Until(self.endTime))
}

type ConnectionChangeFunction func(connected bool)

// connectMonitor fans connected/disconnected transitions out to
// registered callbacks, in registration order.
type connectMonitor struct {
	stateLock      sync.Mutex
	nextCallbackId int
	callbacks      map[int]ConnectionChangeFunction
}

func newConnectMonitor() *connectMonitor {
	return &connectMonitor{
		callbacks: map[int]ConnectionChangeFunction{},
	}
}

// returns a function to remove the callback
func (self *connectMonitor) Add(callback ConnectionChangeFunction) func() {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	callbackId := self.nextCallbackId
	self.nextCallbackId += 1
	self.callbacks[callbackId] = callback
	return func() {
		self.stateLock.Lock()
		defer self.stateLock.Unlock()

		delete(self.callbacks, callbackId)
	}
}

func (self *connectMonitor) notify(connected bool) {
	self.stateLock.Lock()
	callbackIds := maps.Keys(self.callbacks)
	slices.Sort(callbackIds)
	callbacks := make([]ConnectionChangeFunction, 0, len(callbackIds))
	for _, callbackId := range callbackIds {
		callbacks = append(callbacks, self.callbacks[callbackId])
	}
	self.stateLock.Unlock()

	for _, callback := range callbacks {
		callback(connected)
	}
}
