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
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zlib"
	"seehuhn.de/go/icc"
)

// maxProfileSize limits the size of decompressed ICC profiles.
const maxProfileSize = 4 << 20

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// pngProfile returns the contents of the iCCP chunk of a PNG file,
// or nil if there is no such chunk.
func pngProfile(data []byte) []byte {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil
	}

	pos := len(pngSignature)
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos:]))
		tp := string(data[pos+4 : pos+8])
		start := pos + 8
		end := start + length
		if length < 0 || end+4 > len(data) {
			return nil
		}

		switch tp {
		case "iCCP":
			return inflateProfile(data[start:end])
		case "IDAT", "IEND":
			// the profile must precede the image data
			return nil
		}

		pos = end + 4 // skip the CRC
	}
	return nil
}

// inflateProfile decodes the body of an iCCP chunk: a profile name of 1-79
// bytes, a zero byte, the compression method and the zlib-compressed
// profile.
func inflateProfile(body []byte) []byte {
	k := bytes.IndexByte(body, 0)
	if k < 1 || k+2 > len(body) || body[k+1] != 0 {
		return nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(body[k+2:]))
	if err != nil {
		return nil
	}
	defer zr.Close()

	profile, err := io.ReadAll(io.LimitReader(zr, maxProfileSize+1))
	if err != nil || len(profile) > maxProfileSize {
		return nil
	}
	return profile
}

// profileMatches reports whether profile is a valid ICC profile for
// images with the given number of colour channels.
func profileMatches(profile []byte, channels int) bool {
	p, err := icc.Decode(profile)
	if err != nil {
		return false
	}
	switch p.ColorSpace {
	case icc.GraySpace, icc.RGBSpace, icc.CMYKSpace:
		return p.ColorSpace.NumComponents() == channels
	default:
		return false
	}
}
