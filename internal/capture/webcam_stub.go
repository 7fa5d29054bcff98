//go:build !linux

package capture

import "fmt"

// OpenWebcam is only implemented on Linux (V4L2). Other platforms use the
// browser capture path in the web UI.
func OpenWebcam(device string, width, height uint32) (Source, error) {
	return nil, fmt.Errorf("webcam capture is only supported on linux")
}
