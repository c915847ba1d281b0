package gfx

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// ImageCanvas is an in-memory Canvas backed by an *image.RGBA.
// Writes outside the image bounds are clipped. It is not safe for
// concurrent use.
type ImageCanvas struct {
	img   *image.RGBA
	src   *image.Uniform
	op    draw.Op
	color color.NRGBA
	mode  BlendMode
}

// NewImageCanvas returns a w×h canvas cleared to transparent black.
func NewImageCanvas(w, h int) *ImageCanvas {
	return WrapImage(image.NewRGBA(image.Rect(0, 0, w, h)))
}

// WrapImage returns a canvas drawing into img.
func WrapImage(img *image.RGBA) *ImageCanvas {
	return &ImageCanvas{
		img:   img,
		src:   image.NewUniform(color.NRGBA{A: 255}),
		op:    draw.Src,
		color: color.NRGBA{A: 255},
	}
}

// Image returns the backing image. It aliases the canvas pixels.
func (ic *ImageCanvas) Image() *image.RGBA { return ic.img }

// Bounds returns the drawable area.
func (ic *ImageCanvas) Bounds() image.Rectangle { return ic.img.Rect }

// Clear overwrites every pixel with clr regardless of the blend mode.
func (ic *ImageCanvas) Clear(clr color.NRGBA) {
	draw.Draw(ic.img, ic.img.Rect, image.NewUniform(clr), image.Point{}, draw.Src)
}

// Resize replaces the backing image when the size changes. Pixels are not
// preserved.
func (ic *ImageCanvas) Resize(w, h int) {
	if ic.img.Rect.Dx() == w && ic.img.Rect.Dy() == h {
		return
	}
	ic.img = image.NewRGBA(image.Rect(0, 0, w, h))
}

// DrawColor returns the current draw color.
func (ic *ImageCanvas) DrawColor() color.NRGBA { return ic.color }

// Mode returns the current blend mode.
func (ic *ImageCanvas) Mode() BlendMode { return ic.mode }

// SetDrawColor implements Canvas.
func (ic *ImageCanvas) SetDrawColor(c color.NRGBA) {
	ic.color = c
	ic.src.C = c
}

// SetBlendMode implements Canvas.
func (ic *ImageCanvas) SetBlendMode(m BlendMode) {
	ic.mode = m
	if m == BlendAlpha {
		ic.op = draw.Over
	} else {
		ic.op = draw.Src
	}
}

// DrawPoint implements Canvas.
func (ic *ImageCanvas) DrawPoint(p image.Point) error {
	if !p.In(ic.img.Rect) {
		return nil
	}
	if ic.op == draw.Src {
		ic.img.Set(p.X, p.Y, ic.color)
		return nil
	}
	draw.Draw(ic.img, image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))}, ic.src, image.Point{}, ic.op)
	return nil
}

// DrawLine implements Canvas. Both endpoints are written.
func (ic *ImageCanvas) DrawLine(a, b image.Point) error {
	if a.X == b.X || a.Y == b.Y {
		x1, x2 := ordered(a.X, b.X)
		y1, y2 := ordered(a.Y, b.Y)
		return ic.FillRect(image.Rect(x1, y1, x2+1, y2+1))
	}

	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	for {
		if err := ic.DrawPoint(a); err != nil {
			return err
		}
		if a == b {
			return nil
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			a.X += sx
		}
		if e2 <= dx {
			e += dx
			a.Y += sy
		}
	}
}

// FillRect implements Canvas.
func (ic *ImageCanvas) FillRect(r image.Rectangle) error {
	r = r.Canon().Intersect(ic.img.Rect)
	if r.Empty() {
		return nil
	}
	draw.Draw(ic.img, r, ic.src, image.Point{}, ic.op)
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
