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
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics"
	"seehuhn.de/go/pdf/pdfcopy"
)

// layer describes the image drawing which is added to a page.
type layer struct {
	Image    graphics.XObject // the image to draw
	Gray     bool             // the image uses a single colour channel
	Matrix   matrix.Matrix    // maps the unit square to the placement area
	Underlay bool             // draw below the existing content
}

// composePage returns a copy of the page dictionary, with the image layer
// added.  Objects reachable from the page are copied to rm.Out.
//
// The page gets its own resource dictionary, so that resources shared with
// other pages, or inherited from the page tree, are not modified.
func composePage(rm *pdf.ResourceManager, copier *pdfcopy.Copier, doc pdf.Getter, page *pageInfo, l *layer) (pdf.Dict, error) {
	out := rm.Out

	dict, err := copier.CopyDict(page.Dict)
	if err != nil {
		return nil, err
	}

	res, xobj, err := copyResources(copier, doc, page.Get("Resources"), l.Gray)
	if err != nil {
		return nil, err
	}
	dict["Resources"] = res

	orig, err := copyContents(copier, doc, page.Dict["Contents"])
	if err != nil {
		return nil, err
	}

	draw, err := drawLayer(rm, xobj, l)
	if err != nil {
		return nil, err
	}

	var contents pdf.Array
	switch {
	case l.Underlay:
		ref, err := writeContent(out, draw)
		if err != nil {
			return nil, err
		}
		contents = append(contents, ref)
		contents = append(contents, orig...)
	case len(orig) == 0:
		ref, err := writeContent(out, draw)
		if err != nil {
			return nil, err
		}
		contents = append(contents, ref)
	default:
		// Isolate the existing content, so that changes to the graphics
		// state which are not undone by the page do not affect the image.
		pre, err := writeContent(out, []byte("q\n"))
		if err != nil {
			return nil, err
		}
		post, err := writeContent(out, append([]byte("Q\n"), draw...))
		if err != nil {
			return nil, err
		}
		contents = append(contents, pre)
		contents = append(contents, orig...)
		contents = append(contents, post)
	}
	dict["Contents"] = contents

	return dict, nil
}

// drawLayer returns the content stream operators which draw the image.
// The image is added to xobj, under a name which is not yet in use.
func drawLayer(rm *pdf.ResourceManager, xobj pdf.Dict, l *layer) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := graphics.NewWriter(buf, rm)
	w.Resources.XObject = xobj

	w.PushGraphicsState()
	w.Transform(roundMatrix(l.Matrix))
	w.DrawXObject(l.Image)
	w.PopGraphicsState()
	if w.Err != nil {
		return nil, w.Err
	}
	return buf.Bytes(), nil
}

// roundMatrix rounds the coefficients of m to four decimal places.  This is
// more than enough precision for page coordinates, and keeps the content
// stream short.
func roundMatrix(m matrix.Matrix) matrix.Matrix {
	var res matrix.Matrix
	for i, x := range m {
		x = math.Round(x*1e4) / 1e4
		if x == 0 {
			x = 0 // avoid "-0"
		}
		res[i] = x
	}
	return res
}

// copyResources returns a fresh copy of a resource dictionary, together with
// its (also fresh) XObject sub-dictionary.
func copyResources(copier *pdfcopy.Copier, doc pdf.Getter, obj pdf.Object, gray bool) (pdf.Dict, pdf.Dict, error) {
	src, err := pdf.GetDict(doc, obj)
	if err != nil {
		return nil, nil, err
	}
	res, err := copier.CopyDict(src)
	if err != nil {
		return nil, nil, err
	}

	xsrc, err := pdf.GetDict(doc, src["XObject"])
	if err != nil {
		return nil, nil, err
	}
	xobj, err := copier.CopyDict(xsrc)
	if err != nil {
		return nil, nil, err
	}
	res["XObject"] = xobj

	// ProcSet is obsolete, but if a page lists its procedure sets, the
	// list should include the one for images.
	procSet, err := pdf.GetArray(doc, src["ProcSet"])
	if err == nil && procSet != nil {
		want := pdf.Name("ImageC")
		if gray {
			want = "ImageB"
		}
		var ps pdf.Array
		found := false
		for _, obj := range procSet {
			name, _ := pdf.GetName(doc, obj)
			if name == "" {
				continue
			}
			if name == want {
				found = true
			}
			ps = append(ps, name)
		}
		if !found {
			ps = append(ps, want)
		}
		res["ProcSet"] = ps
	}

	return res, xobj, nil
}

// copyContents returns references to the copied content streams of a page.
// The page's /Contents entry can be a single stream or an array of streams.
func copyContents(copier *pdfcopy.Copier, doc pdf.Getter, obj pdf.Object) (pdf.Array, error) {
	var refs pdf.Array
	switch obj := obj.(type) {
	case nil:
		return nil, nil
	case pdf.Array:
		refs = obj
	case pdf.Reference:
		val, err := pdf.Resolve(doc, obj)
		if err != nil {
			return nil, err
		}
		if a, isArray := val.(pdf.Array); isArray {
			refs = a
		} else if val != nil {
			refs = pdf.Array{obj}
		}
	default:
		return nil, nil
	}

	var res pdf.Array
	for _, elem := range refs {
		ref, isRef := elem.(pdf.Reference)
		if !isRef {
			continue
		}
		newRef, err := copier.CopyReference(ref)
		if err != nil {
			return nil, err
		}
		res = append(res, newRef)
	}
	return res, nil
}

// writeContent writes a new content stream and returns its reference.
func writeContent(out *pdf.Writer, body []byte) (pdf.Reference, error) {
	ref := out.Alloc()
	stm, err := out.OpenStream(ref, nil, pdf.FilterFlate{})
	if err != nil {
		return 0, err
	}
	_, err = stm.Write(body)
	if err != nil {
		return 0, err
	}
	err = stm.Close()
	if err != nil {
		return 0, err
	}
	return ref, nil
}
