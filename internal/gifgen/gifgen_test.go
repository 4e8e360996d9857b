package gifgen

import (
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestGenerate(t *testing.T) {
	frames := []image.Image{
		solid(160, 90, color.RGBA{255, 0, 0, 255}),
		solid(160, 90, color.RGBA{0, 0, 255, 255}),
		solid(320, 180, color.RGBA{0, 255, 0, 255}),
	}
	path := filepath.Join(t.TempDir(), "out", "replay.gif")

	size, err := Generate(frames, path, Options{FrameDelay: 500 * time.Millisecond, FinalHold: time.Second, MaxWidth: 80})
	require.NoError(t, err)
	assert.Positive(t, size)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)

	require.Len(t, g.Image, 3)
	assert.Equal(t, []int{50, 50, 150}, g.Delay)
	for _, img := range g.Image {
		assert.Equal(t, image.Rect(0, 0, 80, 45), img.Bounds())
	}
	r, _, _, _ := g.Image[0].At(10, 10).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

func TestGenerate_NoFrames(t *testing.T) {
	_, err := Generate(nil, filepath.Join(t.TempDir(), "x.gif"), Options{})
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestOutputSize(t *testing.T) {
	w, h := outputSize(image.Rect(0, 0, 1280, 720), 800)
	assert.Equal(t, []uint{800, 450}, []uint{w, h})
	w, h = outputSize(image.Rect(0, 0, 640, 360), 800)
	assert.Equal(t, []uint{640, 360}, []uint{w, h})
}

func TestGeneratePalette_Full(t *testing.T) {
	p := generatePalette([]image.Image{solid(8, 8, color.RGBA{1, 2, 3, 255})})
	require.Len(t, p, 256)
	assert.Equal(t, color.RGBA{1, 2, 3, 255}, p[0])
}
