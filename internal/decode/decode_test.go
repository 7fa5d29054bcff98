package decode

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "35170523456789000144650010000123451000123456"

func qrImage(t *testing.T, text string) image.Image {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, 256, 256, nil)
	require.NoError(t, err)
	return matrix
}

func TestPayloadsSingleCode(t *testing.T) {
	payload := "https://www.fazenda.sp.gov.br/nfce/qrcode?p=" + testKey + "|2|1|1|A1B2C3"
	got, err := Payloads(qrImage(t, payload))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, payload, got[0])
}

func TestPayloadsBlankFrame(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 320, 240))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}

	got, err := Payloads(blank)
	require.NoError(t, err, "a frame without a QR code is not an error")
	assert.Empty(t, got)
}

func TestPayloadsMultipleCodes(t *testing.T) {
	left := qrImage(t, "first "+testKey)
	right := qrImage(t, "second receipt")

	// Two codes side by side on a white canvas with generous quiet zones.
	canvas := image.NewRGBA(image.Rect(0, 0, 640, 320))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(16, 32, 272, 288), left, image.Point{}, draw.Over)
	draw.Draw(canvas, image.Rect(352, 32, 608, 288), right, image.Point{}, draw.Over)

	got, err := Payloads(canvas)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"first " + testKey, "second receipt"}, got)
}
