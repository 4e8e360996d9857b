// Package gifgen encodes replay frames into an animated GIF.
package gifgen

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/nfnt/resize"
)

// ErrNoFrames is returned when there is nothing to encode.
var ErrNoFrames = errors.New("no frames")

// Options configures GIF generation
type Options struct {
	FrameDelay time.Duration // how long each frame is shown
	FinalHold  time.Duration // extra time on the last frame
	MaxWidth   uint          // frames wider than this are scaled down
}

func (o *Options) defaults() {
	if o.FrameDelay <= 0 {
		o.FrameDelay = 800 * time.Millisecond
	}
	if o.MaxWidth == 0 {
		o.MaxWidth = 800
	}
}

// Generate writes frames to outputPath and returns the file size.
func Generate(frames []image.Image, outputPath string, opts Options) (int64, error) {
	if len(frames) == 0 {
		return 0, ErrNoFrames
	}
	opts.defaults()

	width, height := outputSize(frames[0].Bounds(), opts.MaxWidth)
	palette := generatePalette(frames)

	g := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		LoopCount: 0,
	}
	delay := centiseconds(opts.FrameDelay)
	for i, frame := range frames {
		scaled := frame
		if b := frame.Bounds(); uint(b.Dx()) != width || uint(b.Dy()) != height {
			scaled = resize.Resize(width, height, frame, resize.Lanczos3)
		}
		paletted := image.NewPaletted(image.Rect(0, 0, int(width), int(height)), palette)
		draw.FloydSteinberg.Draw(paletted, paletted.Bounds(), scaled, scaled.Bounds().Min)
		g.Image[i] = paletted
		g.Delay[i] = delay
	}
	g.Delay[len(frames)-1] += centiseconds(opts.FinalHold)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("create gif: %w", err)
	}
	defer f.Close()

	if err := gif.EncodeAll(f, g); err != nil {
		return 0, fmt.Errorf("encode gif: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// outputSize keeps the aspect ratio of b, narrowing it to maxWidth.
func outputSize(b image.Rectangle, maxWidth uint) (uint, uint) {
	w, h := uint(b.Dx()), uint(b.Dy())
	if w <= maxWidth || w == 0 {
		return w, h
	}
	return maxWidth, max(uint(float64(maxWidth)*float64(h)/float64(w)), 1)
}

func centiseconds(d time.Duration) int {
	return int(d / (10 * time.Millisecond))
}

// generatePalette builds a 256-color palette from the most frequent colors
// sampled across all frames.
func generatePalette(frames []image.Image) color.Palette {
	counts := make(map[color.RGBA]int)
	const step = 4
	for _, img := range frames {
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y += step {
			for x := b.Min.X; x < b.Max.X; x += step {
				r, g, bl, a := img.At(x, y).RGBA()
				counts[color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(bl >> 8), uint8(a >> 8)}]++
			}
		}
	}

	type colorCount struct {
		c     color.RGBA
		count int
	}
	colors := make([]colorCount, 0, len(counts))
	for c, n := range counts {
		colors = append(colors, colorCount{c, n})
	}
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].count != colors[j].count {
			return colors[i].count > colors[j].count
		}
		return rgbaKey(colors[i].c) < rgbaKey(colors[j].c)
	})

	palette := make(color.Palette, 0, 256)
	for i := 0; i < len(colors) && len(palette) < 256; i++ {
		palette = append(palette, colors[i].c)
	}
	// grayscale ramp keeps rarely sampled colors from dithering badly
	for i := 0; len(palette) < 256; i++ {
		gray := uint8(i)
		palette = append(palette, color.RGBA{gray, gray, gray, 255})
	}
	return palette
}

func rgbaKey(c color.RGBA) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}
