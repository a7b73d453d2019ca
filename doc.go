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

// Package overlay places raster images onto pages of existing PDF files.
//
// The main entry point is [Composite], which takes the bytes of a PDF file
// and of an image, and returns a new PDF file in which the image has been
// drawn into a rectangle on one of the pages:
//
//	out, err := overlay.Composite(pdfData, pngData, 0, overlay.Rect{
//		X: 300, Y: 550, Width: 150, Height: 150,
//	}, nil)
//
// The output contains the same pages, in the same order, as the input.
// Only the selected page changes: the image is added on top of (or, with
// [Options.Underlay], below) the existing page content.  All other objects
// are copied unchanged.
//
// All work is done in memory and no state is shared between calls, so the
// functions in this package can be used concurrently.
//
// Coordinates are given in PDF points (1/72 inch), relative to the visible
// area of the page.  By default the origin is the top-left corner of the
// page as displayed, with y increasing downwards; see [Origin].  Pages with a
// /Rotate entry are handled so that the image appears upright in a viewer.
package overlay
