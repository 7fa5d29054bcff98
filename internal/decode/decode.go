package decode

import (
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	multiqr "github.com/makiuchi-d/gozxing/multi/qrcode"
)

var hints = map[gozxing.DecodeHintType]interface{}{
	gozxing.DecodeHintType_TRY_HARDER: true,
}

// Payloads returns the decoded text of every QR code found in img.
// A frame without any QR code yields an empty slice and a nil error;
// an error means the image itself could not be processed.
func Payloads(img image.Image) ([]string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("prepare bitmap: %w", err)
	}

	results, err := multiqr.NewQRCodeMultiReader().DecodeMultiple(bmp, hints)
	if err != nil {
		if _, notFound := err.(gozxing.NotFoundException); notFound {
			return nil, nil
		}
		return nil, fmt.Errorf("decode qr: %w", err)
	}

	payloads := make([]string, 0, len(results))
	for _, r := range results {
		payloads = append(payloads, r.GetText())
	}
	return payloads, nil
}
