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
	"bytes"

	"seehuhn.de/go/pdf"
)

// PageInfo describes the visible area of a page, as used for placement
// coordinates.
type PageInfo struct {
	// Width and Height give the size of the page as displayed, in PDF
	// points.  For pages rotated by 90 or 270 degrees, these are the
	// height and width of the crop box.
	Width, Height float64

	// Rotate is the clockwise rotation of the page in degrees:
	// 0, 90, 180 or 270.
	Rotate int
}

// Inspect returns information about the pages of a PDF document, in page
// order.  If the document cannot be read, a [*DocumentParseError] is
// returned.  Only the password fields of opt are used.
func Inspect(pdfData []byte, opt *Options) ([]PageInfo, error) {
	if opt == nil {
		opt = &Options{}
	}

	doc, err := pdf.NewReader(bytes.NewReader(pdfData), opt.readerOptions())
	if err != nil {
		return nil, &DocumentParseError{Err: err}
	}
	defer doc.Close()

	var res []PageInfo
	_, err = walkPages(doc, func(_ int, p *pageInfo) bool {
		g := p.geometry(doc)
		w, h := g.displaySize()
		res = append(res, PageInfo{
			Width:  w,
			Height: h,
			Rotate: int(g.Rotate),
		})
		return true
	})
	if err != nil {
		return nil, asParseError(err)
	}
	return res, nil
}
