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

// Package image loads raster images and embeds them into PDF files as image
// XObjects.
//
// Images are decoded with the standard library and golang.org/x/image, so
// PNG, JPEG, GIF, BMP, TIFF and WebP files are supported.  JPEG files are
// embedded without re-encoding.  Embedded ICC colour profiles are carried
// over into the PDF file where possible.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	gocolor "image/color"

	// image formats understood by Decode
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"seehuhn.de/go/pdf"
)

// Image is a decoded raster image.
type Image struct {
	// Format is the name of the file format the image was read from,
	// for example "png" or "jpeg".
	Format string

	// Data holds the decoded pixels.
	Data image.Image

	// ICC is the embedded colour profile of the image, or nil if the
	// image has no usable profile.
	ICC []byte

	// jpeg holds the compressed image data for images which can be
	// embedded using the DCTDecode filter.
	jpeg []byte

	// adobeCMYK is set for four-channel JPEG files with an Adobe APP14
	// marker.  These store inverted CMYK values.
	adobeCMYK bool
}

// DecodeError is returned by [Decode] if the image data cannot be read.
type DecodeError struct {
	Err error
}

func (err *DecodeError) Error() string {
	return "image: " + err.Err.Error()
}

func (err *DecodeError) Unwrap() error {
	return err.Err
}

// MaxPixels is the largest number of pixels which [Decode] accepts.
const MaxPixels = 1 << 26

var (
	errEmpty    = errors.New("empty image")
	errTooLarge = fmt.Errorf("image has more than %d pixels", MaxPixels)
)

// Decode reads an image from the given data.
//
// If the data is not an image in one of the supported formats, or if the
// image has more than [MaxPixels] pixels, an error of type [*DecodeError] is
// returned.
func Decode(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Err: errEmpty}
	}

	// Check the size first, so that huge images are rejected before the
	// pixel data is allocated.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, &DecodeError{Err: errEmpty}
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, &DecodeError{Err: errTooLarge}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &DecodeError{Err: errEmpty}
	}

	res := &Image{
		Format: format,
		Data:   img,
	}

	switch format {
	case "jpeg":
		info := scanJPEG(data)
		res.jpeg = data
		res.adobeCMYK = info.adobe && res.Channels() == 4
		res.ICC = info.icc
	case "png":
		res.ICC = pngProfile(data)
	}
	if res.ICC != nil && !profileMatches(res.ICC, res.Channels()) {
		res.ICC = nil
	}

	return res, nil
}

// Width returns the width of the image in pixels.
func (im *Image) Width() int {
	return im.Data.Bounds().Dx()
}

// Height returns the height of the image in pixels.
func (im *Image) Height() int {
	return im.Data.Bounds().Dy()
}

// Channels returns the number of colour channels used to store the image in
// the PDF file.  This is 1 for greyscale images, 4 for CMYK images and 3 for
// everything else.  Alpha is stored separately and is not counted.
func (im *Image) Channels() int {
	switch im.Data.ColorModel() {
	case gocolor.GrayModel, gocolor.Gray16Model:
		return 1
	case gocolor.CMYKModel:
		return 4
	default:
		return 3
	}
}

// HasAlpha reports whether the image has pixels which are not fully opaque.
func (im *Image) HasAlpha() bool {
	if im.jpeg != nil {
		return false
	}

	img := im.Data
	switch img.ColorModel() {
	case gocolor.GrayModel, gocolor.Gray16Model, gocolor.CMYKModel, gocolor.YCbCrModel:
		return false
	}

	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if a != 0xffff {
				return true
			}
		}
	}
	return false
}

// MinVersion returns the lowest PDF version which can represent the image.
func (im *Image) MinVersion() pdf.Version {
	switch {
	case im.HasAlpha():
		return pdf.V1_4 // soft masks
	case im.ICC != nil:
		return pdf.V1_3 // ICCBased colour spaces
	default:
		return pdf.V1_2
	}
}
