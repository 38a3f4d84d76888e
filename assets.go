package viser

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

const (
	MediaTypeJpeg = "image/jpeg"
	MediaTypePng  = "image/png"
)

// a fully decoded image payload. Textures are resolved eagerly at dispatch
// time so that applying the node mutation is cheap and the store never
// observes a node with an unresolved texture.
type Texture struct {
	MediaType string
	Image     image.Image
}

func DecodeTexture(mediaType string, base64Data string) (*Texture, error) {
	switch mediaType {
	case MediaTypeJpeg, MediaTypePng:
	default:
		return nil, fmt.Errorf("Unknown media type: %s", mediaType)
	}
	b, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	return &Texture{
		MediaType: mediaType,
		Image:     img,
	}, nil
}
