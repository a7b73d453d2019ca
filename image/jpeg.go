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
	"slices"
)

type jpegInfo struct {
	adobe bool   // an Adobe APP14 segment is present
	icc   []byte // the reassembled ICC profile, if any
}

var iccMarker = []byte("ICC_PROFILE\x00")

// scanJPEG reads the marker segments which precede the image data.
// Problems are ignored, since the data has already been validated by the
// JPEG decoder.
func scanJPEG(data []byte) *jpegInfo {
	info := &jpegInfo{}
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return info
	}

	type iccChunk struct {
		seq  byte
		data []byte
	}
	var chunks []iccChunk
	var iccCount byte

	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			break
		}
		marker := data[pos+1]
		if marker == 0xFF { // fill byte
			pos++
			continue
		}
		if marker == 0xD8 || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			pos += 2
			continue
		}
		if marker == 0xDA || marker == 0xD9 { // start of scan, end of image
			break
		}

		length := int(data[pos+2])<<8 | int(data[pos+3])
		if length < 2 || pos+2+length > len(data) {
			break
		}
		body := data[pos+4 : pos+2+length]

		switch marker {
		case 0xE2: // APP2
			if bytes.HasPrefix(body, iccMarker) && len(body) >= len(iccMarker)+2 {
				seq := body[len(iccMarker)]
				count := body[len(iccMarker)+1]
				if iccCount == 0 {
					iccCount = count
				}
				if count == iccCount && seq >= 1 && seq <= count {
					chunks = append(chunks, iccChunk{seq: seq, data: body[len(iccMarker)+2:]})
				}
			}
		case 0xEE: // APP14
			if bytes.HasPrefix(body, []byte("Adobe")) {
				info.adobe = true
			}
		}

		pos += 2 + length
	}

	if len(chunks) > 0 && len(chunks) == int(iccCount) {
		slices.SortFunc(chunks, func(a, b iccChunk) int {
			return int(a.seq) - int(b.seq)
		})
		var profile []byte
		for i, c := range chunks {
			if int(c.seq) != i+1 {
				return info
			}
			profile = append(profile, c.data...)
		}
		info.icc = profile
	}

	return info
}
