// Package capture turns user input (uploaded pictures, webcam frames) into
// image buffers the decoder can work on.
package capture

import (
	"fmt"
	"image"
	"io"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Source yields frames for scanning. Grab blocks until a frame is available
// or the source fails.
type Source interface {
	Grab() (image.Image, error)
	Close() error
}

// Image decodes one uploaded or posted picture. PNG, JPEG and GIF are
// accepted.
func Image(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// File decodes the picture at path.
func File(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, err := Image(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}
