package gfx

import (
	"image"
	"image/color"
	"testing"
)

func TestImageCanvasBlendModes(t *testing.T) {
	ic := NewImageCanvas(4, 4)
	ic.Clear(color.NRGBA{R: 255, A: 255})

	p := image.Pt(1, 1)
	if err := PixelColor(ic, p, color.NRGBA{B: 255, A: 128}); err != nil {
		t.Fatal(err)
	}
	if ic.Mode() != BlendAlpha {
		t.Errorf("mode = %v, want blend", ic.Mode())
	}
	got := ic.Image().RGBAAt(p.X, p.Y)
	if got.A != 255 || got.R < 120 || got.R > 135 || got.B < 120 || got.B > 135 {
		t.Errorf("blended pixel = %v, want roughly half red half blue", got)
	}

	q := image.Pt(2, 2)
	if err := PixelColor(ic, q, color.NRGBA{G: 200, A: 255}); err != nil {
		t.Fatal(err)
	}
	if got := ic.Image().RGBAAt(q.X, q.Y); got != (color.RGBA{G: 200, A: 255}) {
		t.Errorf("opaque pixel = %v, want pure green", got)
	}
	if ic.Mode() != BlendNone {
		t.Errorf("mode = %v, want none", ic.Mode())
	}
}

func TestImageCanvasClipsOutOfBounds(t *testing.T) {
	ic := NewImageCanvas(8, 8)
	if err := PixelColor(ic, image.Pt(-1, 3), opaqueWhite); err != nil {
		t.Errorf("point outside bounds: %v", err)
	}
	if err := Box(ic, image.Pt(-5, -5), image.Pt(2, 2), opaqueWhite); err != nil {
		t.Fatal(err)
	}
	if err := Line(ic, image.Pt(-10, 20), image.Pt(20, -10), opaqueWhite); err != nil {
		t.Fatal(err)
	}
	if err := FilledCircle(ic, image.Pt(100, 100), 20, opaqueWhite); err != nil {
		t.Fatal(err)
	}
	if got := ic.Image().RGBAAt(0, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("clipped box missed (0,0): %v", got)
	}
	if got := ic.Image().RGBAAt(3, 0); got.A != 0 {
		t.Errorf("box leaked to (3,0): %v", got)
	}
}

func TestImageCanvasLineEndpoints(t *testing.T) {
	tests := []struct {
		name string
		a, b image.Point
		n    int
	}{
		{"horizontal", image.Pt(1, 2), image.Pt(6, 2), 6},
		{"vertical reversed", image.Pt(3, 7), image.Pt(3, 1), 7},
		{"diagonal", image.Pt(0, 0), image.Pt(5, 5), 6},
		{"shallow", image.Pt(0, 0), image.Pt(7, 2), 8},
		{"single", image.Pt(4, 4), image.Pt(4, 4), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ic := NewImageCanvas(10, 10)
			if err := Line(ic, tt.a, tt.b, opaqueWhite); err != nil {
				t.Fatal(err)
			}
			count := 0
			pix := ic.Image().Pix
			for i := 3; i < len(pix); i += 4 {
				if pix[i] != 0 {
					count++
				}
			}
			if count != tt.n {
				t.Errorf("lit %d pixels, want %d", count, tt.n)
			}
			for _, p := range []image.Point{tt.a, tt.b} {
				if ic.Image().RGBAAt(p.X, p.Y).A == 0 {
					t.Errorf("endpoint %v not drawn", p)
				}
			}
		})
	}
}

func TestImageCanvasMatchesRecorder(t *testing.T) {
	ic := NewImageCanvas(64, 64)
	rc := newRecordCanvas()
	draw := func(c Canvas) error {
		if err := ThickLine(c, image.Pt(3, 60), image.Pt(50, 7), 5, opaqueWhite); err != nil {
			return err
		}
		if err := Arc(c, image.Pt(32, 32), 20, 200, 340, opaqueWhite); err != nil {
			return err
		}
		return RoundedRectangle(c, image.Pt(5, 5), image.Pt(40, 30), 6, opaqueWhite)
	}
	if err := draw(ic); err != nil {
		t.Fatal(err)
	}
	if err := draw(rc); err != nil {
		t.Fatal(err)
	}
	for p := range rc.pixels {
		if ic.Image().RGBAAt(p.X, p.Y).A == 0 {
			t.Errorf("pixel %v recorded but not drawn", p)
		}
	}
}

func TestImageCanvasResize(t *testing.T) {
	ic := NewImageCanvas(4, 4)
	old := ic.Image()
	ic.Resize(4, 4)
	if ic.Image() != old {
		t.Error("same size should keep the image")
	}
	ic.Resize(9, 3)
	if got := ic.Bounds(); got != image.Rect(0, 0, 9, 3) {
		t.Errorf("bounds = %v", got)
	}
}

func TestImageCanvasDrawColor(t *testing.T) {
	ic := NewImageCanvas(2, 2)
	ic.SetDrawColor(halfRed)
	if ic.DrawColor() != halfRed {
		t.Errorf("DrawColor = %v", ic.DrawColor())
	}
}
