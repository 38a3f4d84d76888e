package viser

import (
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"
)

// Logging convention for this package:
// Info:
//     essential events for abnormal behavior. Silent on normal operation,
//     except one time initialization data useful for monitoring.
//     - connect errors, dropped frames
// Error:
//     unexpected panics even if handled and suppressed for partial operation
// V(2):
//     frequent per-frame events for trace debugging

type SceneClientSettings struct {
	ConnectDelay       time.Duration
	WsHandshakeTimeout time.Duration
	ReconnectTimeout   time.Duration
	ReadTimeout        time.Duration
	FlushInterval      time.Duration
}

func DefaultSceneClientSettings() *SceneClientSettings {
	return &SceneClientSettings{
		ConnectDelay:       100 * time.Millisecond,
		WsHandshakeTimeout: 2 * time.Second,
		ReconnectTimeout:   1 * time.Second,
		ReadTimeout:        0,
		FlushInterval:      50 * time.Millisecond,
	}
}

// SceneClient maintains a live, ordered mirror of a remote scene graph.
//
// Inbound frames flow transport -> ordered decoder -> dispatcher -> flush
// scheduler -> store. The decoder guarantees that actions are enqueued in
// frame arrival order, and the scheduler applies them in that order at a
// bounded rate. Within one connection the total order of store mutations
// equals the arrival order of frames. No order is guaranteed across a
// reconnect; the server re-synchronizes with reset_scene after connecting.
type SceneClient struct {
	ctx    context.Context
	cancel context.CancelFunc

	instanceId ulid.ULID
	url        string
	store      SceneStore
	settings   *SceneClientSettings

	scheduler *FlushScheduler
	decoder   *OrderedDecoder
	transport *SceneTransport
}

func NewSceneClientWithDefaults(
	ctx context.Context,
	url string,
	store SceneStore,
) *SceneClient {
	return NewSceneClient(ctx, url, store, DefaultSceneClientSettings())
}

func NewSceneClient(
	ctx context.Context,
	url string,
	store SceneStore,
	settings *SceneClientSettings,
) *SceneClient {
	cancelCtx, cancel := context.WithCancel(ctx)

	client := &SceneClient{
		ctx:        cancelCtx,
		cancel:     cancel,
		instanceId: ulid.Make(),
		url:        url,
		store:      store,
		settings:   settings,
	}

	client.scheduler = NewFlushScheduler(cancelCtx, store, settings.FlushInterval)
	client.decoder = NewOrderedDecoder(cancelCtx, client.decodeFrame, client.handleMessage)
	client.transport = NewSceneTransport(cancelCtx, url, client.decoder.Submit, &SceneTransportSettings{
		ConnectDelay:       settings.ConnectDelay,
		WsHandshakeTimeout: settings.WsHandshakeTimeout,
		ReconnectTimeout:   settings.ReconnectTimeout,
		ReadTimeout:        settings.ReadTimeout,
	})

	glog.Infof("[c]start %s -> %s\n", client.instanceId, url)

	return client
}

func (self *SceneClient) decodeFrame(ctx context.Context, frameBytes []byte) (Message, error) {
	return DecodeMessage(frameBytes)
}

// runs inside the ordered decode gate, in strict arrival order
func (self *SceneClient) handleMessage(message Message) {
	action := DispatchMessage(message)
	self.scheduler.Enqueue(action)
}

func (self *SceneClient) InstanceId() ulid.ULID {
	return self.instanceId
}

func (self *SceneClient) IsConnected() bool {
	return self.transport.IsConnected()
}

// returns a function to remove the callback
func (self *SceneClient) AddConnectionChangeCallback(callback ConnectionChangeFunction) func() {
	return self.transport.AddConnectionChangeCallback(callback)
}

// Close stops the reconnect loop and the flush timer together. An
// in-flight decode is allowed to finish, but its action is never applied.
func (self *SceneClient) Close() {
	self.cancel()
}
