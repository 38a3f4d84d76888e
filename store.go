package viser

import (
	"strings"
	"sync"
)

// NodeFactory creates the renderable payload for a scene node.
// The store decides when to invoke it.
type NodeFactory func() any

// SceneStore holds the authoritative node set. The runtime calls it
// exclusively from within scene actions on the flush side.
type SceneStore interface {
	AddNode(name string, create NodeFactory)
	RemoveNode(name string)
	ResetAll()
}

// optional store capability. Stores that do not implement it
// treat visibility messages as no-ops.
type VisibilityStore interface {
	SetNodeVisibility(name string, visible bool)
}

// optional store capability for the full bleed background,
// which is not a scene node.
type BackgroundStore interface {
	SetBackground(texture *Texture)
}

// node payloads produced by the dispatcher

type FrameNode struct {
	Wxyz       [4]float64
	Position   [3]float64
	ShowAxes   bool
	AxesLength float64
	AxesRadius float64
}

type PointCloudNode struct {
	Points    [][3]float32
	Colors    [][3]uint8
	PointSize float64
}

type CameraFrustumNode struct {
	Fov    float64
	Aspect float64
	Scale  float64
	Color  [3]uint8
}

type MeshNode struct {
	Vertices [][3]float32
	Faces    [][3]uint32
}

type ImageNode struct {
	Texture      *Texture
	RenderWidth  float64
	RenderHeight float64
}

// MemorySceneStore is an in-memory store used by tests and viserctl.
type MemorySceneStore struct {
	stateLock  sync.Mutex
	nodes      map[string]any
	hidden     map[string]bool
	background *Texture
}

func NewMemorySceneStore() *MemorySceneStore {
	return &MemorySceneStore{
		nodes:  map[string]any{},
		hidden: map[string]bool{},
	}
}

func (self *MemorySceneStore) AddNode(name string, create NodeFactory) {
	node := create()

	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.nodes[name] = node
	delete(self.hidden, name)
}

// node names are paths. Removing a node removes its children.
func (self *MemorySceneStore) RemoveNode(name string) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	delete(self.nodes, name)
	delete(self.hidden, name)
	childPrefix := name + "/"
	for childName := range self.nodes {
		if strings.HasPrefix(childName, childPrefix) {
			delete(self.nodes, childName)
			delete(self.hidden, childName)
		}
	}
}

func (self *MemorySceneStore) ResetAll() {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	clear(self.nodes)
	clear(self.hidden)
	self.background = nil
}

func (self *MemorySceneStore) SetNodeVisibility(name string, visible bool) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if _, ok := self.nodes[name]; !ok {
		return
	}
	if visible {
		delete(self.hidden, name)
	} else {
		self.hidden[name] = true
	}
}

func (self *MemorySceneStore) SetBackground(texture *Texture) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.background = texture
}

func (self *MemorySceneStore) Node(name string) (any, bool) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	node, ok := self.nodes[name]
	return node, ok
}

func (self *MemorySceneStore) NodeCount() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return len(self.nodes)
}

func (self *MemorySceneStore) NodeVisible(name string) bool {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if _, ok := self.nodes[name]; !ok {
		return false
	}
	return !self.hidden[name]
}

func (self *MemorySceneStore) Background() *Texture {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return self.background
}
