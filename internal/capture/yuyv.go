package capture

import "image"

// yuyvToGray extracts the luma channel of a packed YUYV frame. Chroma is
// discarded; the QR decoder binarizes the image anyway.
func yuyvToGray(frame []byte, w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	n := w * h
	if avail := len(frame) / 2; avail < n {
		n = avail
	}
	for i := 0; i < n; i++ {
		img.Pix[i] = frame[2*i]
	}
	return img
}
