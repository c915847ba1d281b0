// Package gfx is a software 2D rasterizer for integer screen coordinates.
//
// # Overview
//
// Every primitive in this package is a pixel-level algorithm built on five
// operations of a [Canvas]: set the draw color, set the blend mode, draw a
// point, draw a line and fill a rectangle. Higher-level shapes (polygons,
// thick lines, ellipses, arcs, rounded boxes) never delegate to a vector
// library.
//
//	c := gfx.NewImageCanvas(640, 480)
//	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
//
//	if err := gfx.FilledCircle(c, image.Pt(320, 240), 40, white); err != nil {
//		log.Fatal(err)
//	}
//	if err := gfx.Arc(c, image.Pt(320, 240), 60, 0, 90, white); err != nil {
//		log.Fatal(err)
//	}
//
// # Blending
//
// Colors are non-premultiplied ([color.NRGBA]). A color whose alpha is 255
// is drawn with [BlendNone] and overwrites pixels; any other alpha selects
// [BlendAlpha]. Each primitive applies the blend mode and then the color
// immediately before it writes, so no call depends on state left behind by
// an earlier one.
//
// # Coordinate System
//
// Origin at the top-left, x to the right, y down. Arc angles are integer
// degrees; 0 points along +x and angles grow clockwise on screen.
//
// # Errors
//
// Invalid input yields [ErrInvalidGeometry] or [ErrInvalidParameter]. Canvas
// failures are wrapped with [ErrCanvasWrite] and keep the original error in
// the chain. Composite shapes stop at the first failure; pixels written
// before it stay written.
package gfx
