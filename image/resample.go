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
	"image/jpeg"

	"golang.org/x/image/draw"
)

// jpegQuality is used when a resampled JPEG image is compressed again.
const jpegQuality = 90

// Resample returns a copy of the image, scaled to the given size using
// Catmull-Rom interpolation.  If the image already has the requested size,
// im is returned unchanged.
//
// Greyscale and CMYK images keep their colour model, all other images are
// converted to non-premultiplied RGBA.  JPEG images are compressed again, so
// that they can still be embedded using the DCTDecode filter.
func (im *Image) Resample(width, height int) (*Image, error) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if width == im.Width() && height == im.Height() {
		return im, nil
	}

	r := image.Rect(0, 0, width, height)
	var dst draw.Image
	switch im.Channels() {
	case 1:
		dst = image.NewGray(r)
	case 4:
		dst = image.NewCMYK(r)
	default:
		dst = image.NewNRGBA(r)
	}
	draw.CatmullRom.Scale(dst, r, im.Data, im.Data.Bounds(), draw.Src, nil)

	res := &Image{
		Format: im.Format,
		Data:   dst,
		ICC:    im.ICC,
	}

	// The standard library JPEG encoder cannot write CMYK data.
	if im.jpeg != nil && res.Channels() != 4 {
		buf := &bytes.Buffer{}
		err := jpeg.Encode(buf, dst, &jpeg.Options{Quality: jpegQuality})
		if err != nil {
			return nil, err
		}
		res.jpeg = buf.Bytes()
	}

	return res, nil
}

// Downsample reduces the resolution of the image so that it does not
// exceed maxDPI when drawn into an area of the given size, in PDF points.
// Images which already have a low enough resolution are returned unchanged.
func (im *Image) Downsample(widthPt, heightPt, maxDPI float64) (*Image, error) {
	if maxDPI <= 0 || widthPt <= 0 || heightPt <= 0 {
		return im, nil
	}

	maxW := int(widthPt / 72 * maxDPI)
	maxH := int(heightPt / 72 * maxDPI)
	w, h := im.Width(), im.Height()
	if w <= maxW && h <= maxH {
		return im, nil
	}

	// keep the aspect ratio of the pixel grid
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	return im.Resample(int(float64(w)*scale+0.5), int(float64(h)*scale+0.5))
}
