package viser

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
)

type SceneTransportSettings struct {
	// decouples the initial connect from construction
	ConnectDelay       time.Duration
	WsHandshakeTimeout time.Duration
	// fixed, not exponential. A single client against a single server
	// has no thundering herd to avoid.
	ReconnectTimeout time.Duration
	// 0 disables the read deadline. The protocol does not require
	// server pings.
	ReadTimeout time.Duration
}

func DefaultSceneTransportSettings() *SceneTransportSettings {
	return &SceneTransportSettings{
		ConnectDelay:       100 * time.Millisecond,
		WsHandshakeTimeout: 2 * time.Second,
		ReconnectTimeout:   1 * time.Second,
		ReadTimeout:        0,
	}
}

type ReceiveFrameFunction func(frameBytes []byte)

// SceneTransport owns the websocket lifecycle: connect, forward inbound
// binary frames in arrival order, and retry indefinitely on close or
// error. Connection errors are never fatal. The stream is strictly
// inbound; the transport writes nothing.
type SceneTransport struct {
	ctx    context.Context
	cancel context.CancelFunc

	url      string
	receive  ReceiveFrameFunction
	settings *SceneTransportSettings

	monitor *connectMonitor

	stateLock sync.Mutex
	ws        *websocket.Conn
	connected bool
}

func NewSceneTransportWithDefaults(
	ctx context.Context,
	url string,
	receive ReceiveFrameFunction,
) *SceneTransport {
	return NewSceneTransport(ctx, url, receive, DefaultSceneTransportSettings())
}

func NewSceneTransport(
	ctx context.Context,
	url string,
	receive ReceiveFrameFunction,
	settings *SceneTransportSettings,
) *SceneTransport {
	cancelCtx, cancel := context.WithCancel(ctx)
	transport := &SceneTransport{
		ctx:      cancelCtx,
		cancel:   cancel,
		url:      url,
		receive:  receive,
		settings: settings,
		monitor:  newConnectMonitor(),
	}
	go transport.run()
	return transport
}

func (self *SceneTransport) run() {
	defer self.cancel()

	select {
	case <-self.ctx.Done():
		return
	case <-time.After(self.settings.ConnectDelay):
	}

	for {
		reconnect := NewReconnect(self.settings.ReconnectTimeout)

		dialer := &websocket.Dialer{
			HandshakeTimeout: self.settings.WsHandshakeTimeout,
		}
		ws, _, err := dialer.DialContext(self.ctx, self.url, nil)
		if err != nil {
			glog.Infof("[t]connect %s error = %s\n", self.url, err)
			select {
			case <-self.ctx.Done():
				return
			case <-reconnect.After():
				continue
			}
		}

		self.setConnected(ws)
		self.runConnection(ws)
		self.setDisconnected()

		select {
		case <-self.ctx.Done():
			return
		case <-reconnect.After():
		}
	}
}

// reads until close or error. At most one connection is live at a time.
func (self *SceneTransport) runConnection(ws *websocket.Conn) {
	handleCtx, handleCancel := context.WithCancel(self.ctx)
	defer handleCancel()

	go func() {
		<-handleCtx.Done()
		ws.Close()
	}()

	for {
		select {
		case <-handleCtx.Done():
			return
		default:
		}

		if 0 < self.settings.ReadTimeout {
			ws.SetReadDeadline(time.Now().Add(self.settings.ReadTimeout))
		}
		messageType, message, err := ws.ReadMessage()
		if err != nil {
			glog.Infof("[t]<- error = %s\n", err)
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			if 0 == len(message) {
				// ping
				glog.V(2).Infof("[t]ping<-\n")
				continue
			}
			glog.V(2).Infof("[t]<- %d bytes\n", len(message))
			self.receive(message)
		default:
			glog.V(2).Infof("[t]other=%d<-\n", messageType)
		}
	}
}

// the handle and the flag flip together, under one lock. There is no
// window where connected is observed true with no live handle.
func (self *SceneTransport) setConnected(ws *websocket.Conn) {
	self.stateLock.Lock()
	self.ws = ws
	self.connected = true
	self.stateLock.Unlock()

	self.monitor.notify(true)
}

func (self *SceneTransport) setDisconnected() {
	self.stateLock.Lock()
	self.ws = nil
	self.connected = false
	self.stateLock.Unlock()

	self.monitor.notify(false)
}

func (self *SceneTransport) IsConnected() bool {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return self.connected
}

// returns a function to remove the callback
func (self *SceneTransport) AddConnectionChangeCallback(callback ConnectionChangeFunction) func() {
	return self.monitor.Add(callback)
}

func (self *SceneTransport) Close() {
	self.cancel()
}
