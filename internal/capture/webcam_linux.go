//go:build linux

package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/blackjack/webcam"
)

// V4L2 fourcc codes for the two frame formats we can turn into an image.
const (
	pixFmtMJPEG = webcam.PixelFormat(0x47504a4d) // 'MJPG'
	pixFmtYUYV  = webcam.PixelFormat(0x56595559) // 'YUYV'
)

const frameWaitSeconds = 5

type webcamSource struct {
	cam    *webcam.Webcam
	format webcam.PixelFormat
	width  int
	height int
}

// OpenWebcam opens a V4L2 device and starts streaming. MJPEG is preferred
// over YUYV when the device offers both.
func OpenWebcam(device string, width, height uint32) (Source, error) {
	cam, err := webcam.Open(device)
	if err != nil {
		return nil, fmt.Errorf("open webcam %s: %w", device, err)
	}

	supported := cam.GetSupportedFormats()
	var pick webcam.PixelFormat
	for _, f := range []webcam.PixelFormat{pixFmtMJPEG, pixFmtYUYV} {
		if _, ok := supported[f]; ok {
			pick = f
			break
		}
	}
	if pick == 0 {
		cam.Close()
		return nil, fmt.Errorf("webcam %s: no MJPEG or YUYV format available", device)
	}

	f, w, h, err := cam.SetImageFormat(pick, width, height)
	if err != nil {
		cam.Close()
		return nil, fmt.Errorf("set webcam format: %w", err)
	}
	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, fmt.Errorf("start webcam stream: %w", err)
	}

	return &webcamSource{cam: cam, format: f, width: int(w), height: int(h)}, nil
}

func (s *webcamSource) Grab() (image.Image, error) {
	if err := s.cam.WaitForFrame(frameWaitSeconds); err != nil {
		return nil, fmt.Errorf("wait for frame: %w", err)
	}
	frame, err := s.cam.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("read frame: empty frame")
	}

	switch s.format {
	case pixFmtMJPEG:
		img, err := jpeg.Decode(bytes.NewReader(frame))
		if err != nil {
			return nil, fmt.Errorf("decode mjpeg frame: %w", err)
		}
		return img, nil
	case pixFmtYUYV:
		return yuyvToGray(frame, s.width, s.height), nil
	}
	return nil, fmt.Errorf("unsupported pixel format %v", s.format)
}

func (s *webcamSource) Close() error {
	return s.cam.Close()
}
