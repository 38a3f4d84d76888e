package viser

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/go-playground/assert/v2"
)

func testPngBase64() string {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDispatchFrame(t *testing.T) {
	action := DispatchMessage(&FrameMessage{
		Name:       "/origin",
		Wxyz:       [4]float64{1, 0, 0, 0},
		Position:   [3]float64{1, 2, 3},
		ShowAxes:   true,
		AxesLength: 0.5,
		AxesRadius: 0.025,
	})
	assert.Equal(t, action.Op, OpAddNode)
	assert.Equal(t, action.Name, "/origin")

	node := action.Create().(*FrameNode)
	assert.Equal(t, node.Position, [3]float64{1, 2, 3})
	assert.Equal(t, node.ShowAxes, true)
}

func TestDispatchPointCloud(t *testing.T) {
	points := [][3]float32{{0, 0, 0}, {1, 1, 1}}
	colors := [][3]uint8{{255, 0, 0}, {0, 255, 0}}
	action := DispatchMessage(&PointCloudMessage{
		Name:      "/cloud",
		Position:  PackVec3f(points),
		Color:     PackRgb(colors),
		PointSize: 0.1,
	})
	assert.Equal(t, action.Op, OpAddNode)

	node := action.Create().(*PointCloudNode)
	assert.Equal(t, node.Points, points)
	assert.Equal(t, node.Colors, colors)

	// truncated buffer drops the message
	action = DispatchMessage(&PointCloudMessage{
		Name:     "/cloud",
		Position: make([]byte, 13),
		Color:    PackRgb(colors),
	})
	assert.Equal(t, action.Op, OpNone)

	// mismatched point and color counts drop the message
	action = DispatchMessage(&PointCloudMessage{
		Name:     "/cloud",
		Position: PackVec3f(points),
		Color:    PackRgb(colors[:1]),
	})
	assert.Equal(t, action.Op, OpNone)
}

func TestDispatchCameraFrustum(t *testing.T) {
	action := DispatchMessage(&CameraFrustumMessage{
		Name:   "/camera",
		Fov:    1.047,
		Aspect: 1.5,
		Scale:  0.3,
		Color:  0x5a77ff,
	})
	assert.Equal(t, action.Op, OpAddNode)

	node := action.Create().(*CameraFrustumNode)
	assert.Equal(t, node.Color, [3]uint8{0x5a, 0x77, 0xff})
}

func TestDispatchMesh(t *testing.T) {
	vertices := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	faces := [][3]uint32{{0, 1, 2}}
	action := DispatchMessage(&MeshMessage{
		Name:     "/mesh",
		Vertices: PackVec3f(vertices),
		Faces:    PackVec3u32(faces),
	})
	assert.Equal(t, action.Op, OpAddNode)

	node := action.Create().(*MeshNode)
	assert.Equal(t, node.Vertices, vertices)
	assert.Equal(t, node.Faces, faces)
}

// the texture resolves at dispatch time, before the store can observe
// the node
func TestDispatchImageEagerTexture(t *testing.T) {
	action := DispatchMessage(&ImageMessage{
		Name:         "/billboard",
		MediaType:    MediaTypePng,
		Base64Data:   testPngBase64(),
		RenderWidth:  1,
		RenderHeight: 1,
	})
	assert.Equal(t, action.Op, OpAddNode)

	node := action.Create().(*ImageNode)
	assert.NotEqual(t, node.Texture, nil)
	assert.NotEqual(t, node.Texture.Image, nil)

	// a bad payload drops the message instead of deferring the failure
	action = DispatchMessage(&ImageMessage{
		Name:       "/billboard",
		MediaType:  MediaTypePng,
		Base64Data: "not base64!",
	})
	assert.Equal(t, action.Op, OpNone)

	action = DispatchMessage(&ImageMessage{
		Name:       "/billboard",
		MediaType:  "image/tiff",
		Base64Data: testPngBase64(),
	})
	assert.Equal(t, action.Op, OpNone)
}

func TestDispatchBackgroundImage(t *testing.T) {
	action := DispatchMessage(&BackgroundImageMessage{
		MediaType:  MediaTypePng,
		Base64Data: testPngBase64(),
	})
	assert.Equal(t, action.Op, OpSetBackground)
	assert.NotEqual(t, action.Texture, nil)
}

func TestDispatchControlMessages(t *testing.T) {
	action := DispatchMessage(&RemoveSceneNodeMessage{Name: "/origin"})
	assert.Equal(t, action.Op, OpRemoveNode)
	assert.Equal(t, action.Name, "/origin")

	action = DispatchMessage(&SetSceneNodeVisibilityMessage{Name: "/origin", Visible: false})
	assert.Equal(t, action.Op, OpSetVisibility)
	assert.Equal(t, action.Visible, false)

	action = DispatchMessage(&ResetSceneMessage{})
	assert.Equal(t, action.Op, OpResetAll)
}

// an unrecognized tag produces a no-op action, never an error
func TestDispatchUnknown(t *testing.T) {
	action := DispatchMessage(&UnknownMessage{Type: "gui_update"})
	assert.Equal(t, action.Op, OpNone)

	// applying the no-op touches nothing
	store := &recordingStore{}
	action.Apply(store)
	assert.Equal(t, len(store.Ops()), 0)
}
