package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// pngHeader returns a png that declares w x h 8-bit gray pixels but carries
// no pixel data.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := func(kind string, data []byte) {
		_ = binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		crc := crc32.NewIEEE()
		crc.Write([]byte(kind))
		crc.Write(data)
		buf.WriteString(kind)
		buf.Write(data)
		_ = binary.Write(&buf, binary.BigEndian, crc.Sum32())
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth; color type, compression, filter, interlace stay 0
	chunk("IHDR", ihdr)
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestRequested(t *testing.T) {
	assert.False(t, Requested(map[string]string{}))
	assert.False(t, Requested(map[string]string{"download": "1"}))
	assert.True(t, Requested(map[string]string{"grayscale": ""}))
}

func TestParseFilters(t *testing.T) {
	filters, err := ParseFilters(map[string]string{"resize": "10x0", "grayscale": "", "utm": "x"})
	require.NoError(t, err)
	assert.Len(t, filters, 2)

	_, err = ParseFilters(map[string]string{"utm": "x"})
	assert.Error(t, err)
}

func TestParseFiltersRejectsBadParams(t *testing.T) {
	cases := map[string]map[string]string{
		"missing dimensions": {"resize": ""},
		"bad format":         {"resize": "10-10"},
		"both zero":          {"resize": "0x0"},
		"too large":          {"resize": "5000x10"},
		"negative":           {"resize": "-1x10"},
		"crop needs both":    {"crop_to_size": "10x0"},
		"rotate range":       {"rotate": "720"},
		"blur range":         {"gaussian_blur": "0"},
		"pixelate range":     {"pixelate": "51"},
		"not a number":       {"brightness_increase": "lots"},
	}

	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFilters(params)
			require.Error(t, err)
			var filterErr FilterError
			assert.ErrorAs(t, err, &filterErr)
		})
	}
}

func TestRenderKeepsPNGFormat(t *testing.T) {
	filters, err := ParseFilters(map[string]string{"resize": "10x0"})
	require.NoError(t, err)

	out, mimeType, err := Render(encodePNG(t, solid(40, 20)), filters)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 10, img.Bounds().Dx())
	assert.Equal(t, 5, img.Bounds().Dy())
}

func TestRenderKeepsJPEGFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(16, 16), nil))

	filters, err := ParseFilters(map[string]string{"grayscale": ""})
	require.NoError(t, err)

	out, mimeType, err := Render(buf.Bytes(), filters)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)

	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestRenderRejectsUndecodablePayload(t *testing.T) {
	filters, err := ParseFilters(map[string]string{"invert": ""})
	require.NoError(t, err)

	_, _, err = Render([]byte("\x89PNG\r\n\x1a\nnot really"), filters)
	assert.Error(t, err)
}

func TestRenderRejectsOversizedHeaderBeforeDecoding(t *testing.T) {
	filters, err := ParseFilters(map[string]string{"invert": ""})
	require.NoError(t, err)

	payload := pngHeader(16000, 16000)
	cfg, err := png.DecodeConfig(bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, 16000, cfg.Width)

	_, _, err = Render(payload, filters)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, _, err = Render(pngHeader(MaxImageWidth+1, 10), filters)
	assert.ErrorIs(t, err, ErrTooLarge)
}
