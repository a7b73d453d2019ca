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

import "encoding/base64"

// DataURI encodes a PDF file as a "data:" URI, for example for display in
// an HTML iframe.
func DataURI(pdfData []byte) string {
	const prefix = "data:application/pdf;base64,"
	buf := make([]byte, len(prefix)+base64.StdEncoding.EncodedLen(len(pdfData)))
	copy(buf, prefix)
	base64.StdEncoding.Encode(buf[len(prefix):], pdfData)
	return string(buf)
}
