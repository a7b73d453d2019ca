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

package image

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/icc"
	"seehuhn.de/go/pdf"
)

// embedAndRead writes the image to a new PDF file and reads back the image
// XObject.
func embedAndRead(t *testing.T, im *Image) (*pdf.Reader, *pdf.Stream) {
	t.Helper()

	buf := &bytes.Buffer{}
	w, err := pdf.NewWriter(buf, pdf.V1_7, nil)
	if err != nil {
		t.Fatal(err)
	}
	rm := pdf.NewResourceManager(w)
	ref, _, err := pdf.ResourceManagerEmbed(rm, im)
	if err != nil {
		t.Fatal(err)
	}
	err = rm.Close()
	if err != nil {
		t.Fatal(err)
	}
	w.GetMeta().Trailer["Quir:E"] = ref

	// a minimal page tree, to make the file valid
	pagesRef := w.Alloc()
	err = w.Put(pagesRef, pdf.Dict{
		"Type":  pdf.Name("Pages"),
		"Kids":  pdf.Array{},
		"Count": pdf.Integer(0),
	})
	if err != nil {
		t.Fatal(err)
	}
	w.GetMeta().Catalog.Pages = pagesRef
	err = w.Close()
	if err != nil {
		t.Fatal(err)
	}

	r, err := pdf.NewReader(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })

	stm, err := pdf.GetStream(r, r.GetMeta().Trailer["Quir:E"])
	if err != nil {
		t.Fatal(err)
	}
	if stm == nil {
		t.Fatal("image stream not found")
	}
	return r, stm
}

func readStream(t *testing.T, r pdf.Getter, stm *pdf.Stream) []byte {
	t.Helper()
	body, err := pdf.DecodeStream(r, stm, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestEmbedRGB(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	im := &Image{Format: "png", Data: img}

	r, stm := embedAndRead(t, im)

	cs, _ := pdf.GetName(r, stm.Dict["ColorSpace"])
	if cs != "DeviceRGB" {
		t.Errorf("colour space %v", stm.Dict["ColorSpace"])
	}
	if _, hasMask := stm.Dict["SMask"]; hasMask {
		t.Error("opaque image has a soft mask")
	}

	want := []byte{255, 0, 0, 0, 255, 0, 0, 0, 255, 10, 20, 30}
	if d := cmp.Diff(want, readStream(t, r, stm)); d != "" {
		t.Errorf("pixels (-want +got):\n%s", d)
	}
}

func TestEmbedAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 128, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 255, G: 128, A: 64})
	im := &Image{Format: "png", Data: img}

	r, stm := embedAndRead(t, im)

	// colour values are stored without premultiplication
	want := []byte{255, 128, 0, 255, 128, 0}
	if d := cmp.Diff(want, readStream(t, r, stm)); d != "" {
		t.Errorf("pixels (-want +got):\n%s", d)
	}

	mask, err := pdf.GetStream(r, stm.Dict["SMask"])
	if err != nil {
		t.Fatal(err)
	}
	if mask == nil {
		t.Fatal("soft mask missing")
	}
	cs, _ := pdf.GetName(r, mask.Dict["ColorSpace"])
	if cs != "DeviceGray" {
		t.Errorf("mask colour space %v", mask.Dict["ColorSpace"])
	}
	if d := cmp.Diff([]byte{255, 64}, readStream(t, r, mask)); d != "" {
		t.Errorf("alpha (-want +got):\n%s", d)
	}
}

func TestEmbedGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.SetGray(0, 0, color.Gray{Y: 0})
	img.SetGray(1, 0, color.Gray{Y: 100})
	img.SetGray(2, 0, color.Gray{Y: 255})
	im := &Image{Format: "png", Data: img}

	r, stm := embedAndRead(t, im)
	cs, _ := pdf.GetName(r, stm.Dict["ColorSpace"])
	if cs != "DeviceGray" {
		t.Errorf("colour space %v", stm.Dict["ColorSpace"])
	}
	if d := cmp.Diff([]byte{0, 100, 255}, readStream(t, r, stm)); d != "" {
		t.Errorf("pixels (-want +got):\n%s", d)
	}
}

func TestEmbedJPEG(t *testing.T) {
	data := encodeJPEG(t, rgbImage(8, 8, color.NRGBA{R: 255, A: 255}))
	im, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}

	r, stm := embedAndRead(t, im)
	filter, _ := pdf.GetName(r, stm.Dict["Filter"])
	if filter != "DCTDecode" {
		t.Errorf("filter %v", stm.Dict["Filter"])
	}
	if _, hasDecode := stm.Dict["Decode"]; hasDecode {
		t.Error("unexpected Decode array")
	}
	w, _ := pdf.GetInteger(r, stm.Dict["Width"])
	h, _ := pdf.GetInteger(r, stm.Dict["Height"])
	if w != 8 || h != 8 {
		t.Errorf("size %dx%d", w, h)
	}
}

func TestEmbedICC(t *testing.T) {
	im := &Image{
		Format: "png",
		Data:   rgbImage(1, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 255}),
		ICC:    icc.SRGBv2Profile,
	}

	r, stm := embedAndRead(t, im)
	cs, err := pdf.GetArray(r, stm.Dict["ColorSpace"])
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 2 || cs[0] != pdf.Name("ICCBased") {
		t.Fatalf("colour space %v", cs)
	}
	prof, err := pdf.GetStream(r, cs[1])
	if err != nil {
		t.Fatal(err)
	}
	n, _ := pdf.GetInteger(r, prof.Dict["N"])
	if n != 3 {
		t.Errorf("N = %d, want 3", n)
	}
	if !bytes.Equal(readStream(t, r, prof), icc.SRGBv2Profile) {
		t.Error("profile data changed")
	}
}
