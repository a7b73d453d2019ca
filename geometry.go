// seehuhn.de/go/overlay - place images onto pages of existing PDF files
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package overlay

import (
	"fmt"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
)

// Rect is a placement rectangle on a page, in PDF points.
//
// X and Y give the corner of the rectangle closest to the origin selected by
// [Options.Origin].  With the default origin, this is the top-left corner of
// the rectangle, measured from the top-left corner of the visible page.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

func (r Rect) String() string {
	return fmt.Sprintf("(%g, %g, %g×%g)", r.X, r.Y, r.Width, r.Height)
}

// Validate checks that the rectangle can be used as a placement.
// All fields must be finite and non-negative, and the rectangle must
// have a positive area.
func (r Rect) Validate() error {
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &PlacementError{Rect: r, Reason: "coordinates must be finite"}
		}
	}
	switch {
	case r.X < 0 || r.Y < 0:
		return &PlacementError{Rect: r, Reason: "position must not be negative"}
	case r.Width <= 0:
		return &PlacementError{Rect: r, Reason: "width must be positive"}
	case r.Height <= 0:
		return &PlacementError{Rect: r, Reason: "height must be positive"}
	}
	return nil
}

// Origin selects the reference corner for placement coordinates.
type Origin int

const (
	// OriginTopLeft measures coordinates from the top-left corner of the
	// page as displayed, with y increasing downwards.
	OriginTopLeft Origin = iota

	// OriginBottomLeft measures coordinates from the bottom-left corner of
	// the page as displayed, with y increasing upwards.  For unrotated
	// pages this is the usual PDF coordinate system, shifted to the corner
	// of the crop box.
	OriginBottomLeft
)

func (o Origin) String() string {
	switch o {
	case OriginTopLeft:
		return "top-left"
	case OriginBottomLeft:
		return "bottom-left"
	default:
		return fmt.Sprintf("Origin(%d)", int(o))
	}
}

// rotation is the clockwise rotation of a page, in degrees.
// The valid values are 0, 90, 180 and 270.
type rotation int

// decodeRotation normalises the value of a /Rotate entry.  Values which are
// not a multiple of 90 are ignored.
func decodeRotation(deg pdf.Integer) rotation {
	if deg%90 != 0 {
		return 0
	}
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return rotation(deg)
}

// pageGeometry describes the visible area of a page.
type pageGeometry struct {
	Box    pdf.Rectangle // the crop box, in default user space
	Rotate rotation      // clockwise rotation applied when displaying
}

// displaySize returns the width and height of the page as displayed.
func (g *pageGeometry) displaySize() (float64, float64) {
	w := g.Box.URx - g.Box.LLx
	h := g.Box.URy - g.Box.LLy
	if g.Rotate == 90 || g.Rotate == 270 {
		return h, w
	}
	return w, h
}

// displayToUser maps the displayed page, with the origin in the bottom-left
// corner, to default user space.
func (g *pageGeometry) displayToUser() matrix.Matrix {
	w := g.Box.URx - g.Box.LLx
	h := g.Box.URy - g.Box.LLy

	var m matrix.Matrix
	switch g.Rotate {
	case 90:
		m = matrix.Matrix{0, 1, -1, 0, w, 0}
	case 180:
		m = matrix.Matrix{-1, 0, 0, -1, w, h}
	case 270:
		m = matrix.Matrix{0, -1, 1, 0, 0, h}
	default:
		m = matrix.Identity
	}
	return m.Mul(matrix.Translate(g.Box.LLx, g.Box.LLy))
}

// imageMatrix returns the transformation which maps the unit square, the
// image space of every PDF image, onto the placement rectangle.  The image
// appears upright on the displayed page.
//
// If keepAspect is set, the image is scaled uniformly to the largest size
// which fits into the rectangle, and is centred within the rectangle.
func (g *pageGeometry) imageMatrix(r Rect, origin Origin, imgW, imgH int, keepAspect bool) matrix.Matrix {
	x, y, w, h := r.X, r.Y, r.Width, r.Height

	if keepAspect && imgW > 0 && imgH > 0 {
		scale := min(w/float64(imgW), h/float64(imgH))
		fw := float64(imgW) * scale
		fh := float64(imgH) * scale
		x += (w - fw) / 2
		y += (h - fh) / 2
		w, h = fw, fh
	}

	// bottom-left corner of the image, in display coordinates
	if origin == OriginTopLeft {
		_, pageH := g.displaySize()
		y = pageH - y - h
	}

	place := matrix.Matrix{w, 0, 0, h, x, y}
	return place.Mul(g.displayToUser())
}
