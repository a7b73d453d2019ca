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
	"errors"
	"math"

	"seehuhn.de/go/pdf"
)

// inheritable lists the page attributes which can be inherited from
// ancestor nodes in the page tree.
var inheritable = []pdf.Name{"Resources", "MediaBox", "CropBox", "Rotate"}

// letter is used for pages without a media box.
var letter = pdf.Rectangle{URx: 612, URy: 792}

var (
	errInvalidPageTree = errors.New("invalid page tree")
	errPageTreeLoop    = errors.New("loop in page tree")
)

// pageInfo describes a leaf of the page tree.
type pageInfo struct {
	// Ref is the reference of the page object, or 0 if the page
	// dictionary is stored as a direct object.
	Ref pdf.Reference

	// Dict is the page dictionary, as stored in the file.
	// The dictionary must not be modified.
	Dict pdf.Dict

	// Inherited holds inheritable attributes which are not present in Dict
	// but are set on an ancestor node.
	Inherited pdf.Dict
}

// Get returns the value of a page attribute, taking inheritance into
// account.
func (p *pageInfo) Get(key pdf.Name) pdf.Object {
	if val, ok := p.Dict[key]; ok {
		return val
	}
	return p.Inherited[key]
}

// walkPages calls yield for the pages of the document, in order, until yield
// returns false.  The return value is the number of pages visited.
func walkPages(r pdf.Getter, yield func(pageNo int, p *pageInfo) bool) (int, error) {
	catalog := r.GetMeta().Catalog
	if catalog == nil || catalog.Pages == 0 {
		return 0, errInvalidPageTree
	}

	type todo struct {
		node      pdf.Object
		inherited pdf.Dict
	}
	stack := []todo{{node: catalog.Pages, inherited: pdf.Dict{}}}
	seen := map[pdf.Reference]bool{}

	count := 0
	for len(stack) > 0 {
		k := len(stack) - 1
		t := stack[k]
		stack = stack[:k]

		ref, isRef := t.node.(pdf.Reference)
		if isRef {
			if seen[ref] {
				return count, errPageTreeLoop
			}
			seen[ref] = true
		}

		node, err := pdf.GetDict(r, t.node)
		if err != nil {
			return count, err
		} else if node == nil {
			// missing kids are silently skipped
			continue
		}

		tp, err := pdf.GetName(r, node["Type"])
		if err != nil {
			return count, err
		}
		if tp == "" {
			// some writers omit /Type; leaves have no /Kids
			if _, hasKids := node["Kids"]; hasKids {
				tp = "Pages"
			} else {
				tp = "Page"
			}
		}

		switch tp {
		case "Page":
			p := &pageInfo{
				Ref:       ref,
				Dict:      node,
				Inherited: pdf.Dict{},
			}
			for _, name := range inheritable {
				if _, ok := node[name]; !ok {
					if val, ok := t.inherited[name]; ok {
						p.Inherited[name] = val
					}
				}
			}
			if !yield(count, p) {
				return count + 1, nil
			}
			count++

		case "Pages":
			kids, err := pdf.GetArray(r, node["Kids"])
			if err != nil {
				return count, err
			}

			inherited := t.inherited
			copied := false
			for _, name := range inheritable {
				if val, ok := node[name]; ok {
					if !copied {
						copied = true
						inherited = make(pdf.Dict, len(t.inherited)+1)
						for key, v := range t.inherited {
							inherited[key] = v
						}
					}
					inherited[name] = val
				}
			}

			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, todo{node: kids[i], inherited: inherited})
			}

		default:
			return count, errInvalidPageTree
		}
	}

	return count, nil
}

// numPages returns the number of pages in the document.
func numPages(r pdf.Getter) (int, error) {
	return walkPages(r, func(int, *pageInfo) bool { return true })
}

// findPage locates the page with the given zero-based index.
// If the document has too few pages, a [*PageIndexError] is returned.
func findPage(r pdf.Getter, pageNo int) (*pageInfo, error) {
	if pageNo < 0 {
		n, err := numPages(r)
		if err != nil {
			return nil, err
		}
		return nil, &PageIndexError{Page: pageNo, NumPages: n}
	}

	var res *pageInfo
	n, err := walkPages(r, func(i int, p *pageInfo) bool {
		if i == pageNo {
			res = p
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, &PageIndexError{Page: pageNo, NumPages: n}
	}
	return res, nil
}

// geometry returns the visible area of the page.
//
// The visible area is the crop box, clipped to the media box.  Invalid or
// missing boxes fall back to the media box and then to US Letter size.
func (p *pageInfo) geometry(r pdf.Getter) *pageGeometry {
	g := &pageGeometry{Box: letter}

	mediaBox, err := pdf.GetRectangle(r, p.Get("MediaBox"))
	if err == nil && mediaBox != nil && !isEmpty(mediaBox) {
		g.Box = *mediaBox
	}

	cropBox, err := pdf.GetRectangle(r, p.Get("CropBox"))
	if err == nil && cropBox != nil {
		clipped := pdf.Rectangle{
			LLx: math.Max(cropBox.LLx, g.Box.LLx),
			LLy: math.Max(cropBox.LLy, g.Box.LLy),
			URx: math.Min(cropBox.URx, g.Box.URx),
			URy: math.Min(cropBox.URy, g.Box.URy),
		}
		if !isEmpty(&clipped) {
			g.Box = clipped
		}
	}

	rot, err := pdf.GetInteger(r, p.Get("Rotate"))
	if err == nil {
		g.Rotate = decodeRotation(rot)
	}

	return g
}

func isEmpty(rect *pdf.Rectangle) bool {
	return rect.URx <= rect.LLx || rect.URy <= rect.LLy
}
