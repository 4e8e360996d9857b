// Package overlay draws interaction markers onto replay frames: a pointer
// or caret where the step acted and a ripple where it clicked.
package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/v0xg/appscout/internal/executor"
)

var (
	outlineColor = color.RGBA{0, 0, 0, 255}
	fillColor    = color.RGBA{255, 255, 255, 255}
	rippleColor  = color.RGBA{66, 133, 244, 255}
)

// Mark returns one image per frame with its cursor drawn on top. Frames
// whose cursor was never positioned are copied unchanged.
func Mark(frames []executor.Frame) []image.Image {
	out := make([]image.Image, len(frames))
	for i, f := range frames {
		out[i] = drawCursorOnFrame(f.Image, f.Cursor)
	}
	return out
}

// drawCursorOnFrame creates a new image with cursor overlay
func drawCursorOnFrame(frame image.Image, pos executor.CursorPosition) image.Image {
	bounds := frame.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, frame, bounds.Min, draw.Src)

	if pos.X == 0 && pos.Y == 0 {
		return result
	}
	x, y := bounds.Min.X+pos.X, bounds.Min.Y+pos.Y

	if pos.Click {
		drawClickRipple(result, x, y)
	}
	if pos.State == executor.CursorText {
		drawCaret(result, x, y)
	} else {
		drawArrow(result, x, y)
	}
	return result
}

// drawArrow draws an arrow pointer with its tip at (x, y).
func drawArrow(img *image.RGBA, x, y int) {
	outline := []image.Point{{0, 0}, {0, 16}, {4, 12}, {7, 18}, {10, 17}, {7, 11}, {12, 11}}

	for dy := 0; dy < 18; dy++ {
		for dx := 0; dx < 13; dx++ {
			if insideArrow(dx, dy) {
				setPixelSafe(img, x+dx, y+dy, fillColor)
			}
		}
	}
	for i, p1 := range outline {
		p2 := outline[(i+1)%len(outline)]
		drawLine(img, x+p1.X, y+p1.Y, x+p2.X, y+p2.Y, outlineColor)
	}
}

func insideArrow(dx, dy int) bool {
	switch {
	case dx < 0 || dy < 0 || dy > 16:
		return false
	case dy <= 11:
		return dx <= dy*12/16
	default:
		return dx <= 4
	}
}

// drawCaret draws a text I-beam centered on (x, y).
func drawCaret(img *image.RGBA, x, y int) {
	const half = 9
	for dx := -1; dx <= 1; dx++ {
		drawLine(img, x+dx, y-half, x+dx, y+half, fillColor)
	}
	drawLine(img, x, y-half, x, y+half, outlineColor)
	drawLine(img, x-3, y-half, x+3, y-half, outlineColor)
	drawLine(img, x-3, y+half, x+3, y+half, outlineColor)
}

// drawLine draws a line between two points using Bresenham's algorithm
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		setPixelSafe(img, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawClickRipple draws two concentric rings around the click point.
func drawClickRipple(img *image.RGBA, x, y int) {
	for _, radius := range []float64{10, 16} {
		for angle := 0.0; angle < 360; angle++ {
			rad := angle * math.Pi / 180
			px := x + int(math.Round(radius*math.Cos(rad)))
			py := y + int(math.Round(radius*math.Sin(rad)))
			setPixelSafe(img, px, py, rippleColor)
			setPixelSafe(img, px+1, py, rippleColor)
		}
	}
}

func setPixelSafe(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
