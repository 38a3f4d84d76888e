package viser

import (
	"github.com/golang/glog"
)

type SceneActionOp int

const (
	OpNone SceneActionOp = iota
	OpAddNode
	OpRemoveNode
	OpResetAll
	OpSetVisibility
	OpSetBackground
)

// SceneAction is one deferred mutation against a SceneStore. Actions are
// tagged command values rather than opaque closures so the pending queue
// stays inspectable.
type SceneAction struct {
	Op      SceneActionOp
	Name    string
	Create  NodeFactory
	Visible bool
	Texture *Texture
}

func (self *SceneAction) Apply(store SceneStore) {
	switch self.Op {
	case OpAddNode:
		store.AddNode(self.Name, self.Create)
	case OpRemoveNode:
		store.RemoveNode(self.Name)
	case OpResetAll:
		store.ResetAll()
	case OpSetVisibility:
		if visibilityStore, ok := store.(VisibilityStore); ok {
			visibilityStore.SetNodeVisibility(self.Name, self.Visible)
		}
	case OpSetBackground:
		if backgroundStore, ok := store.(BackgroundStore); ok {
			backgroundStore.SetBackground(self.Texture)
		}
	}
}

// DispatchMessage maps one decoded message to a scene action without
// executing it. Payload preparation with ordering-sensitive side effects,
// like resolving image textures, happens here rather than at apply time.
// Dispatch never fails; bad payloads become logged no-ops.
func DispatchMessage(message Message) *SceneAction {
	switch v := message.(type) {
	case *FrameMessage:
		node := &FrameNode{
			Wxyz:       v.Wxyz,
			Position:   v.Position,
			ShowAxes:   v.ShowAxes,
			AxesLength: v.AxesLength,
			AxesRadius: v.AxesRadius,
		}
		return &SceneAction{
			Op:     OpAddNode,
			Name:   v.Name,
			Create: func() any { return node },
		}
	case *PointCloudMessage:
		points, err := UnpackVec3f(v.Position)
		if err != nil {
			glog.Infof("[d]drop %s %s = %s\n", v.MessageType(), v.Name, err)
			return &SceneAction{Op: OpNone}
		}
		colors, err := UnpackRgb(v.Color)
		if err != nil {
			glog.Infof("[d]drop %s %s = %s\n", v.MessageType(), v.Name, err)
			return &SceneAction{Op: OpNone}
		}
		if len(points) != len(colors) {
			glog.Infof("[d]drop %s %s = %d points, %d colors\n", v.MessageType(), v.Name, len(points), len(colors))
			return &SceneAction{Op: OpNone}
		}
		node := &PointCloudNode{
			Points:    points,
			Colors:    colors,
			PointSize: v.PointSize,
		}
		return &SceneAction{
			Op:     OpAddNode,
			Name:   v.Name,
			Create: func() any { return node },
		}
	case *CameraFrustumMessage:
		node := &CameraFrustumNode{
			Fov:    v.Fov,
			Aspect: v.Aspect,
			Scale:  v.Scale,
			Color: [3]uint8{
				uint8(v.Color >> 16),
				uint8(v.Color >> 8),
				uint8(v.Color),
			},
		}
		return &SceneAction{
			Op:     OpAddNode,
			Name:   v.Name,
			Create: func() any { return node },
		}
	case *MeshMessage:
		vertices, err := UnpackVec3f(v.Vertices)
		if err != nil {
			glog.Infof("[d]drop %s %s = %s\n", v.MessageType(), v.Name, err)
			return &SceneAction{Op: OpNone}
		}
		faces, err := UnpackVec3u32(v.Faces)
		if err != nil {
			glog.Infof("[d]drop %s %s = %s\n", v.MessageType(), v.Name, err)
			return &SceneAction{Op: OpNone}
		}
		node := &MeshNode{
			Vertices: vertices,
			Faces:    faces,
		}
		return &SceneAction{
			Op:     OpAddNode,
			Name:   v.Name,
			Create: func() any { return node },
		}
	case *ImageMessage:
		// resolve the texture now so the node never flickers in unloaded
		texture, err := DecodeTexture(v.MediaType, v.Base64Data)
		if err != nil {
			glog.Infof("[d]drop %s %s = %s\n", v.MessageType(), v.Name, err)
			return &SceneAction{Op: OpNone}
		}
		node := &ImageNode{
			Texture:      texture,
			RenderWidth:  v.RenderWidth,
			RenderHeight: v.RenderHeight,
		}
		return &SceneAction{
			Op:     OpAddNode,
			Name:   v.Name,
			Create: func() any { return node },
		}
	case *BackgroundImageMessage:
		texture, err := DecodeTexture(v.MediaType, v.Base64Data)
		if err != nil {
			glog.Infof("[d]drop %s = %s\n", v.MessageType(), err)
			return &SceneAction{Op: OpNone}
		}
		return &SceneAction{
			Op:      OpSetBackground,
			Texture: texture,
		}
	case *RemoveSceneNodeMessage:
		return &SceneAction{
			Op:   OpRemoveNode,
			Name: v.Name,
		}
	case *SetSceneNodeVisibilityMessage:
		return &SceneAction{
			Op:      OpSetVisibility,
			Name:    v.Name,
			Visible: v.Visible,
		}
	case *ResetSceneMessage:
		return &SceneAction{
			Op: OpResetAll,
		}
	default:
		glog.Infof("[d]ignore message type=%s\n", message.MessageType())
		return &SceneAction{Op: OpNone}
	}
}
