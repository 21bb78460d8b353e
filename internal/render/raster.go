package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Label backing rectangle padding in pixels.
const (
	labelPadX = 5.0
	labelPadY = 3.0
)

var labelFace = basicfont.Face7x13

// MeasureLabel returns the canvas-space size of a label's backing rectangle,
// text extent plus padding. The annotation engine uses it for hit rectangles
// so taps land on exactly what is drawn.
func MeasureLabel(text string) (w, h float64) {
	tw := float64(font.MeasureString(labelFace, text).Round())
	th := float64(labelFace.Metrics().Height.Round())
	return tw + 2*labelPadX, th + 2*labelPadY
}

// Rasterize draws the ops in order into a new RGBA image over the given
// background color. A zero-alpha background leaves the image transparent.
func Rasterize(ops []Op, w, h int, background color.RGBA) *image.RGBA {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if background.A > 0 {
		draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	}
	for _, op := range ops {
		switch o := op.(type) {
		case StrokeOp:
			drawStroke(img, o)
		case DotOp:
			fillCircle(img, o.Center.X, o.Center.Y, o.Radius, o.Color)
		case LabelOp:
			drawLabel(img, o)
		}
	}
	return img
}

func drawStroke(img *image.RGBA, o StrokeOp) {
	if len(o.Points) < 2 {
		return
	}
	radius := o.Width / 2
	for i := 1; i < len(o.Points); i++ {
		drawSegment(img, o.Points[i-1].X, o.Points[i-1].Y, o.Points[i].X, o.Points[i].Y, radius, o.Color)
	}
}

// drawSegment walks the segment with Bresenham and stamps a filled disc at
// each step, which gives round caps and joins for free.
func drawSegment(img *image.RGBA, fx1, fy1, fx2, fy2, radius float64, col color.RGBA) {
	x1, y1 := int(math.Round(fx1)), int(math.Round(fy1))
	x2, y2 := int(math.Round(fx2)), int(math.Round(fy2))

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy
	for {
		if radius <= 0.5 {
			blendPixel(img, x1, y1, col)
		} else {
			fillCircle(img, float64(x1), float64(y1), radius, col)
		}

		if x1 == x2 && y1 == y2 {
			break
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

func fillCircle(img *image.RGBA, cx, cy, r float64, col color.RGBA) {
	if r <= 0 {
		return
	}
	minX := int(cx - r - 1)
	maxX := int(cx + r + 1)
	minY := int(cy - r - 1)
	maxY := int(cy + r + 1)
	r2 := r * r

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			if dx*dx+dy*dy <= r2 {
				blendPixel(img, x, y, col)
			}
		}
	}
}

// blendPixel alpha-blends col over the existing pixel, skipping anything
// outside the image.
func blendPixel(img *image.RGBA, x, y int, col color.RGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		return
	}
	if col.A == 255 {
		img.SetRGBA(x, y, col)
		return
	}
	if col.A == 0 {
		return
	}
	alpha := float64(col.A) / 255
	inv := 1 - alpha
	existing := img.RGBAAt(x, y)
	img.SetRGBA(x, y, color.RGBA{
		R: uint8(float64(col.R)*alpha + float64(existing.R)*inv),
		G: uint8(float64(col.G)*alpha + float64(existing.G)*inv),
		B: uint8(float64(col.B)*alpha + float64(existing.B)*inv),
		A: 255,
	})
}

func drawLabel(img *image.RGBA, o LabelOp) {
	w, h := MeasureLabel(o.Text)
	x1 := int(math.Round(o.Center.X - w/2))
	y1 := int(math.Round(o.Center.Y - h/2))
	x2 := int(math.Round(o.Center.X + w/2))
	y2 := int(math.Round(o.Center.Y + h/2))

	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			blendPixel(img, x, y, o.Background)
		}
	}

	tw := font.MeasureString(labelFace, o.Text)
	ascent := labelFace.Metrics().Ascent.Round()
	height := labelFace.Metrics().Height.Round()
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(o.Color),
		Face: labelFace,
		Dot: fixed.Point26_6{
			X: fixed.I(int(math.Round(o.Center.X))) - tw/2,
			Y: fixed.I(int(math.Round(o.Center.Y)) + ascent - height/2),
		},
	}
	d.DrawString(o.Text)
}
