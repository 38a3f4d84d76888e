package viser

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

// wire format: one msgpack map per websocket binary frame,
// with a "type" key that selects the message variant.
// All other keys are the variant fields, snake_case.

const (
	TypeFrame                  = "frame"
	TypePointCloud             = "point_cloud"
	TypeCameraFrustum          = "camera_frustum"
	TypeMesh                   = "mesh"
	TypeImage                  = "image"
	TypeBackgroundImage        = "background_image"
	TypeRemoveSceneNode        = "remove_scene_node"
	TypeSetSceneNodeVisibility = "set_scene_node_visibility"
	TypeResetScene             = "reset_scene"
)

type Message interface {
	MessageType() string
}

// create/replace a coordinate frame node.
// `Wxyz` is a unit quaternion, scalar first.
type FrameMessage struct {
	Type       string     `msgpack:"type"`
	Name       string     `msgpack:"name"`
	Wxyz       [4]float64 `msgpack:"wxyz"`
	Position   [3]float64 `msgpack:"position"`
	ShowAxes   bool       `msgpack:"show_axes"`
	AxesLength float64    `msgpack:"axes_length"`
	AxesRadius float64    `msgpack:"axes_radius"`
}

func (self *FrameMessage) MessageType() string {
	return TypeFrame
}

// create/replace a point cloud node.
// `Position` is a packed buffer of 3xfloat32 per point, little endian.
// `Color` is a packed buffer of 3xuint8 per point.
type PointCloudMessage struct {
	Type      string  `msgpack:"type"`
	Name      string  `msgpack:"name"`
	Position  []byte  `msgpack:"position"`
	Color     []byte  `msgpack:"color"`
	PointSize float64 `msgpack:"point_size"`
}

func (self *PointCloudMessage) MessageType() string {
	return TypePointCloud
}

// create/replace a camera frustum node.
// `Color` is a packed rgb int, (255, 255, 255) => 0xffffff
type CameraFrustumMessage struct {
	Type   string  `msgpack:"type"`
	Name   string  `msgpack:"name"`
	Fov    float64 `msgpack:"fov"`
	Aspect float64 `msgpack:"aspect"`
	Scale  float64 `msgpack:"scale"`
	Color  int     `msgpack:"color"`
}

func (self *CameraFrustumMessage) MessageType() string {
	return TypeCameraFrustum
}

// create/replace a triangle mesh node.
// `Vertices` is a packed buffer of 3xfloat32 per vertex,
// `Faces` a packed buffer of 3xuint32 per face, little endian.
type MeshMessage struct {
	Type     string `msgpack:"type"`
	Name     string `msgpack:"name"`
	Vertices []byte `msgpack:"vertices"`
	Faces    []byte `msgpack:"faces"`
}

func (self *MeshMessage) MessageType() string {
	return TypeMesh
}

// create/replace a textured plane node
type ImageMessage struct {
	Type         string  `msgpack:"type"`
	Name         string  `msgpack:"name"`
	MediaType    string  `msgpack:"media_type"`
	Base64Data   string  `msgpack:"base64_data"`
	RenderWidth  float64 `msgpack:"render_width"`
	RenderHeight float64 `msgpack:"render_height"`
}

func (self *ImageMessage) MessageType() string {
	return TypeImage
}

// set the full bleed background. Not a scene node.
type BackgroundImageMessage struct {
	Type       string `msgpack:"type"`
	MediaType  string `msgpack:"media_type"`
	Base64Data string `msgpack:"base64_data"`
}

func (self *BackgroundImageMessage) MessageType() string {
	return TypeBackgroundImage
}

// remove one node by name. Node names are paths,
// and removing a node removes its children.
type RemoveSceneNodeMessage struct {
	Type string `msgpack:"type"`
	Name string `msgpack:"name"`
}

func (self *RemoveSceneNodeMessage) MessageType() string {
	return TypeRemoveSceneNode
}

type SetSceneNodeVisibilityMessage struct {
	Type    string `msgpack:"type"`
	Name    string `msgpack:"name"`
	Visible bool   `msgpack:"visible"`
}

func (self *SetSceneNodeVisibilityMessage) MessageType() string {
	return TypeSetSceneNodeVisibility
}

// remove all nodes
type ResetSceneMessage struct {
	Type string `msgpack:"type"`
}

func (self *ResetSceneMessage) MessageType() string {
	return TypeResetScene
}

// a message with a type tag this client does not recognize.
// Defined no-op path, never an error.
type UnknownMessage struct {
	Type string
}

func (self *UnknownMessage) MessageType() string {
	return self.Type
}

var messageTypes = map[string]func() Message{
	TypeFrame:                  func() Message { return &FrameMessage{} },
	TypePointCloud:             func() Message { return &PointCloudMessage{} },
	TypeCameraFrustum:          func() Message { return &CameraFrustumMessage{} },
	TypeMesh:                   func() Message { return &MeshMessage{} },
	TypeImage:                  func() Message { return &ImageMessage{} },
	TypeBackgroundImage:        func() Message { return &BackgroundImageMessage{} },
	TypeRemoveSceneNode:        func() Message { return &RemoveSceneNodeMessage{} },
	TypeSetSceneNodeVisibility: func() Message { return &SetSceneNodeVisibilityMessage{} },
	TypeResetScene:             func() Message { return &ResetSceneMessage{} },
}

func EncodeMessage(message Message) ([]byte, error) {
	switch v := message.(type) {
	case *FrameMessage:
		v.Type = TypeFrame
	case *PointCloudMessage:
		v.Type = TypePointCloud
	case *CameraFrustumMessage:
		v.Type = TypeCameraFrustum
	case *MeshMessage:
		v.Type = TypeMesh
	case *ImageMessage:
		v.Type = TypeImage
	case *BackgroundImageMessage:
		v.Type = TypeBackgroundImage
	case *RemoveSceneNodeMessage:
		v.Type = TypeRemoveSceneNode
	case *SetSceneNodeVisibilityMessage:
		v.Type = TypeSetSceneNodeVisibility
	case *ResetSceneMessage:
		v.Type = TypeResetScene
	default:
		return nil, fmt.Errorf("Unknown message type: %T", v)
	}
	return msgpack.Marshal(message)
}

func RequireEncodeMessage(message Message) []byte {
	b, err := EncodeMessage(message)
	if err != nil {
		panic(err)
	}
	return b
}

func DecodeMessage(b []byte) (Message, error) {
	var envelope struct {
		Type string `msgpack:"type"`
	}
	if err := msgpack.Unmarshal(b, &envelope); err != nil {
		return nil, err
	}
	newMessage, ok := messageTypes[envelope.Type]
	if !ok {
		return &UnknownMessage{Type: envelope.Type}, nil
	}
	message := newMessage()
	if err := msgpack.Unmarshal(b, message); err != nil {
		return nil, err
	}
	return message, nil
}

// packed buffer helpers. Buffers are native numpy layouts: little endian,
// tightly packed, three components per element.

func PackVec3f(values [][3]float32) []byte {
	b := make([]byte, 0, 12*len(values))
	for _, value := range values {
		for _, component := range value {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(component))
		}
	}
	return b
}

func UnpackVec3f(b []byte) ([][3]float32, error) {
	if len(b)%12 != 0 {
		return nil, fmt.Errorf("vec3f buffer size must be a multiple of 12: %d", len(b))
	}
	values := make([][3]float32, len(b)/12)
	for i := range values {
		for j := 0; j < 3; j += 1 {
			values[i][j] = math.Float32frombits(binary.LittleEndian.Uint32(b[12*i+4*j:]))
		}
	}
	return values, nil
}

func PackVec3u32(values [][3]uint32) []byte {
	b := make([]byte, 0, 12*len(values))
	for _, value := range values {
		for _, component := range value {
			b = binary.LittleEndian.AppendUint32(b, component)
		}
	}
	return b
}

func UnpackVec3u32(b []byte) ([][3]uint32, error) {
	if len(b)%12 != 0 {
		return nil, fmt.Errorf("vec3u32 buffer size must be a multiple of 12: %d", len(b))
	}
	values := make([][3]uint32, len(b)/12)
	for i := range values {
		for j := 0; j < 3; j += 1 {
			values[i][j] = binary.LittleEndian.Uint32(b[12*i+4*j:])
		}
	}
	return values, nil
}

func PackRgb(values [][3]uint8) []byte {
	b := make([]byte, 0, 3*len(values))
	for _, value := range values {
		b = append(b, value[0], value[1], value[2])
	}
	return b
}

func UnpackRgb(b []byte) ([][3]uint8, error) {
	if len(b)%3 != 0 {
		return nil, fmt.Errorf("rgb buffer size must be a multiple of 3: %d", len(b))
	}
	values := make([][3]uint8, len(b)/3)
	for i := range values {
		values[i] = [3]uint8{b[3*i], b[3*i+1], b[3*i+2]}
	}
	return values, nil
}
