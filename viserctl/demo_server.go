package main

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/GinaGreen4586515/viser"
)

// demoServer plays a scripted scene to every client that connects,
// then keeps the connection alive with empty-frame pings. Useful for
// exercising a watch client end to end.
type demoServer struct {
	address  string
	upgrader websocket.Upgrader
}

func newDemoServer(address string) *demoServer {
	return &demoServer{
		address: address,
	}
}

func (self *demoServer) ListenAndServe() error {
	return http.ListenAndServe(self.address, http.HandlerFunc(self.handle))
}

func (self *demoServer) handle(w http.ResponseWriter, r *http.Request) {
	ws, err := self.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	for _, message := range demoScript() {
		b, err := viser.EncodeMessage(message)
		if err != nil {
			Err.Printf("Encode error (%s).", err)
			return
		}
		if err := ws.WriteMessage(websocket.BinaryMessage, b); err != nil {
			return
		}
	}

	for {
		time.Sleep(1 * time.Second)
		// ping
		if err := ws.WriteMessage(websocket.BinaryMessage, make([]byte, 0)); err != nil {
			return
		}
	}
}

// a fresh connection always starts from reset_scene, per the protocol
// convention for re-synchronizing after reconnect
func demoScript() []viser.Message {
	points := [][3]float32{}
	colors := [][3]uint8{}
	n := 64
	for i := 0; i < n; i += 1 {
		a := 2 * math.Pi * float64(i) / float64(n)
		points = append(points, [3]float32{
			float32(math.Cos(a)),
			float32(math.Sin(a)),
			0,
		})
		colors = append(colors, [3]uint8{uint8(255 * i / n), 64, 192})
	}

	return []viser.Message{
		&viser.ResetSceneMessage{},
		&viser.FrameMessage{
			Name:       "/origin",
			Wxyz:       [4]float64{1, 0, 0, 0},
			Position:   [3]float64{0, 0, 0},
			ShowAxes:   true,
			AxesLength: 0.5,
			AxesRadius: 0.025,
		},
		&viser.PointCloudMessage{
			Name:      "/origin/ring",
			Position:  viser.PackVec3f(points),
			Color:     viser.PackRgb(colors),
			PointSize: 0.05,
		},
		&viser.CameraFrustumMessage{
			Name:   "/camera",
			Fov:    1.047,
			Aspect: 16.0 / 9.0,
			Scale:  0.3,
			Color:  0x5a77ff,
		},
		&viser.ImageMessage{
			Name:         "/billboard",
			MediaType:    viser.MediaTypePng,
			Base64Data:   demoPngBase64(),
			RenderWidth:  1,
			RenderHeight: 1,
		},
		&viser.SetSceneNodeVisibilityMessage{
			Name:    "/camera",
			Visible: false,
		},
	}
}

func demoPngBase64() string {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y += 1 {
		for x := 0; x < 8; x += 1 {
			img.Set(x, y, color.RGBA{
				R: uint8(32 * x),
				G: uint8(32 * y),
				B: 128,
				A: 255,
			})
		}
	}
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
