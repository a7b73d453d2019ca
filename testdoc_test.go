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
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"seehuhn.de/go/pdf"
)

// testPage describes one page of a test document.
type testPage struct {
	Content string   // content stream, or "" for a page without contents
	Extra   pdf.Dict // additional entries for the page dictionary
}

// makeDoc writes a PDF file with a flat page tree.  Entries of pagesExtra
// are added to the root of the page tree.
func makeDoc(t *testing.T, pagesExtra pdf.Dict, pages ...testPage) []byte {
	t.Helper()
	return makeDocWithOptions(t, nil, pagesExtra, pages...)
}

// makeDocWithOptions is like makeDoc, but allows to set writer options,
// for example to encrypt the file.
func makeDocWithOptions(t *testing.T, opt *pdf.WriterOptions, pagesExtra pdf.Dict, pages ...testPage) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	w, err := pdf.NewWriter(buf, pdf.V1_7, opt)
	if err != nil {
		t.Fatal(err)
	}

	pagesRef := w.Alloc()
	var kids pdf.Array
	for _, p := range pages {
		dict := pdf.Dict{
			"Type":   pdf.Name("Page"),
			"Parent": pagesRef,
		}
		for key, val := range p.Extra {
			dict[key] = val
		}
		if p.Content != "" {
			dict["Contents"] = putStream(t, w, p.Content)
		}
		ref := w.Alloc()
		err := w.Put(ref, dict)
		if err != nil {
			t.Fatal(err)
		}
		kids = append(kids, ref)
	}

	pagesDict := pdf.Dict{
		"Type":     pdf.Name("Pages"),
		"Kids":     kids,
		"Count":    pdf.Integer(len(kids)),
		"MediaBox": box(0, 0, 612, 792),
	}
	for key, val := range pagesExtra {
		pagesDict[key] = val
	}
	err = w.Put(pagesRef, pagesDict)
	if err != nil {
		t.Fatal(err)
	}
	w.GetMeta().Catalog.Pages = pagesRef

	err = w.Close()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func putStream(t *testing.T, w *pdf.Writer, body string) pdf.Reference {
	t.Helper()

	ref := w.Alloc()
	stm, err := w.OpenStream(ref, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = stm.Write([]byte(body))
	if err != nil {
		t.Fatal(err)
	}
	err = stm.Close()
	if err != nil {
		t.Fatal(err)
	}
	return ref
}

func box(llx, lly, urx, ury float64) pdf.Array {
	return pdf.Array{pdf.Number(llx), pdf.Number(lly), pdf.Number(urx), pdf.Number(ury)}
}

// openDoc opens a PDF file and returns the reader together with the
// pages of the document.
func openDoc(t *testing.T, data []byte) (*pdf.Reader, []*pageInfo) {
	t.Helper()

	r, err := pdf.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })

	var pages []*pageInfo
	_, err = walkPages(r, func(_ int, p *pageInfo) bool {
		pages = append(pages, p)
		return true
	})
	if err != nil {
		t.Fatal(err)
	}
	return r, pages
}

// pageContent returns the concatenated, decoded content streams of a page.
func pageContent(t *testing.T, r pdf.Getter, p *pageInfo) string {
	t.Helper()

	contents, err := pdf.Resolve(r, p.Dict["Contents"])
	if err != nil {
		t.Fatal(err)
	}
	var refs pdf.Array
	switch contents := contents.(type) {
	case nil:
		return ""
	case pdf.Array:
		refs = contents
	default:
		refs = pdf.Array{p.Dict["Contents"]}
	}

	res := &bytes.Buffer{}
	for _, ref := range refs {
		stm, err := pdf.GetStream(r, ref)
		if err != nil {
			t.Fatal(err)
		}
		body, err := pdf.DecodeStream(r, stm, 0)
		if err != nil {
			t.Fatal(err)
		}
		_, err = io.Copy(res, body)
		body.Close()
		if err != nil {
			t.Fatal(err)
		}
	}
	return res.String()
}

// xObjects returns the XObject resource dictionary of a page.
func xObjects(t *testing.T, r pdf.Getter, p *pageInfo) pdf.Dict {
	t.Helper()

	res, err := pdf.GetDict(r, p.Get("Resources"))
	if err != nil {
		t.Fatal(err)
	}
	xobj, err := pdf.GetDict(r, res["XObject"])
	if err != nil {
		t.Fatal(err)
	}
	return xobj
}

// makePNG returns a PNG file of the given size, filled with c.
func makePNG(t *testing.T, width, height int, c color.NRGBA) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.SetNRGBA(x, y, c)
		}
	}
	buf := &bytes.Buffer{}
	err := png.Encode(buf, img)
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
