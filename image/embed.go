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
	gocolor "image/color"
	"io"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics"
	"seehuhn.de/go/pdf/graphics/color"
	pdfimage "seehuhn.de/go/pdf/graphics/image"
)

var _ graphics.XObject = (*Image)(nil)

// Subtype returns /Image.
// This implements the [graphics.XObject] interface.
func (im *Image) Subtype() pdf.Name {
	return pdf.Name("Image")
}

// Embed writes the image to the PDF file as an image XObject and returns a
// reference to the XObject.
// This implements the [pdf.Embedder] interface.
//
// JPEG images are copied unchanged, using the DCTDecode filter.  All other
// images are compressed losslessly.  If the image has an alpha channel, the
// alpha values are written as a soft mask.
func (im *Image) Embed(rm *pdf.ResourceManager) (pdf.Native, pdf.Unused, error) {
	var zero pdf.Unused

	cs := im.colorSpace()
	switch {
	case im.jpeg != nil:
		ref, err := im.embedJPEG(rm, cs)
		return ref, zero, err
	case im.HasAlpha():
		ref, err := im.embedWithSoftMask(rm, cs)
		return ref, zero, err
	}

	var dict *pdfimage.Dict
	switch cs.Family() {
	case color.FamilyDeviceGray, color.FamilyDeviceRGB:
		dict = pdfimage.FromImage(im.Data, cs, 8)
	default:
		// The library converts CMYK pixels via RGB and cannot write
		// ICCBased samples, so the pixel data is written directly.
		dict = &pdfimage.Dict{
			Width:            im.Width(),
			Height:           im.Height(),
			ColorSpace:       cs,
			BitsPerComponent: 8,
			WriteData: func(w io.Writer) error {
				return writePixels(w, im, cs.Channels())
			},
		}
	}
	return dict.Embed(rm)
}

// colorSpace returns the PDF colour space for the image samples.
func (im *Image) colorSpace() color.Space {
	if im.ICC != nil {
		cs, err := color.ICCBased(im.ICC, nil)
		if err == nil && cs.Channels() == im.Channels() {
			return cs
		}
	}
	switch im.Channels() {
	case 1:
		return color.DeviceGraySpace
	case 4:
		return color.DeviceCMYKSpace
	default:
		return color.DeviceRGBSpace
	}
}

// embedJPEG writes the compressed JPEG data as a DCTDecode image.
func (im *Image) embedJPEG(rm *pdf.ResourceManager, cs color.Space) (pdf.Reference, error) {
	csObj, _, err := pdf.ResourceManagerEmbed(rm, cs)
	if err != nil {
		return 0, err
	}

	// see Table 87 of ISO 32000-2:2020
	dict := pdf.Dict{
		"Type":             pdf.Name("XObject"),
		"Subtype":          pdf.Name("Image"),
		"Width":            pdf.Integer(im.Width()),
		"Height":           pdf.Integer(im.Height()),
		"ColorSpace":       csObj,
		"BitsPerComponent": pdf.Integer(8),
		"Filter":           pdf.Name("DCTDecode"),
	}
	if im.adobeCMYK {
		dict["Decode"] = pdf.Array{
			pdf.Integer(1), pdf.Integer(0),
			pdf.Integer(1), pdf.Integer(0),
			pdf.Integer(1), pdf.Integer(0),
			pdf.Integer(1), pdf.Integer(0),
		}
	}

	ref := rm.Out.Alloc()
	stm, err := rm.Out.OpenStream(ref, dict)
	if err != nil {
		return 0, err
	}
	_, err = stm.Write(im.jpeg)
	if err != nil {
		return 0, err
	}
	err = stm.Close()
	if err != nil {
		return 0, err
	}
	return ref, nil
}

// embedWithSoftMask writes the colour channels of the image, together with
// a soft mask holding the alpha channel.
func (im *Image) embedWithSoftMask(rm *pdf.ResourceManager, cs color.Space) (pdf.Reference, error) {
	width := im.Width()
	height := im.Height()

	mask := &pdfimage.Dict{
		Width:            width,
		Height:           height,
		ColorSpace:       color.DeviceGraySpace,
		BitsPerComponent: 8,
		WriteData: func(w io.Writer) error {
			return writeAlpha(w, im)
		},
	}
	maskRef, _, err := pdf.ResourceManagerEmbed(rm, mask)
	if err != nil {
		return 0, err
	}
	csObj, _, err := pdf.ResourceManagerEmbed(rm, cs)
	if err != nil {
		return 0, err
	}

	dict := pdf.Dict{
		"Type":             pdf.Name("XObject"),
		"Subtype":          pdf.Name("Image"),
		"Width":            pdf.Integer(width),
		"Height":           pdf.Integer(height),
		"ColorSpace":       csObj,
		"BitsPerComponent": pdf.Integer(8),
		"SMask":            maskRef,
	}
	n := cs.Channels()
	filter := pdf.FilterFlate{
		"Columns":   pdf.Integer(width),
		"Colors":    pdf.Integer(n),
		"Predictor": pdf.Integer(15),
	}

	ref := rm.Out.Alloc()
	stm, err := rm.Out.OpenStream(ref, dict, filter)
	if err != nil {
		return 0, err
	}
	err = writePixels(stm, im, n)
	if err != nil {
		return 0, err
	}
	err = stm.Close()
	if err != nil {
		return 0, err
	}
	return ref, nil
}

// writePixels writes the image data row by row, using n bytes per pixel.
// Colour values are not premultiplied by alpha.
func writePixels(out io.Writer, im *Image, n int) error {
	src := im.Data
	b := src.Bounds()
	row := make([]byte, 0, b.Dx()*n)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row = row[:0]
		for x := b.Min.X; x < b.Max.X; x++ {
			c := src.At(x, y)
			switch n {
			case 1:
				g := gocolor.GrayModel.Convert(c).(gocolor.Gray)
				row = append(row, g.Y)
			case 4:
				k := gocolor.CMYKModel.Convert(c).(gocolor.CMYK)
				row = append(row, k.C, k.M, k.Y, k.K)
			default:
				nc := gocolor.NRGBAModel.Convert(c).(gocolor.NRGBA)
				row = append(row, nc.R, nc.G, nc.B)
			}
		}
		_, err := out.Write(row)
		if err != nil {
			return err
		}
	}
	return nil
}

// writeAlpha writes the alpha channel of the image, one byte per pixel.
func writeAlpha(out io.Writer, im *Image) error {
	src := im.Data
	b := src.Bounds()
	row := make([]byte, 0, b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row = row[:0]
		for x := b.Min.X; x < b.Max.X; x++ {
			nc := gocolor.NRGBAModel.Convert(src.At(x, y)).(gocolor.NRGBA)
			row = append(row, nc.A)
		}
		_, err := out.Write(row)
		if err != nil {
			return err
		}
	}
	return nil
}
