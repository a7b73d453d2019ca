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
	"fmt"
	"strconv"
)

// DocumentParseError indicates that the input could not be read as a PDF
// document.  This covers malformed files, broken page trees and documents
// which could not be decrypted.
type DocumentParseError struct {
	Err error
}

func (err *DocumentParseError) Error() string {
	if err.Err == nil {
		return "cannot parse PDF document"
	}
	return "cannot parse PDF document: " + err.Err.Error()
}

func (err *DocumentParseError) Unwrap() error {
	return err.Err
}

// PageIndexError indicates that the requested page does not exist.
type PageIndexError struct {
	Page     int // the requested, zero-based page index
	NumPages int // the number of pages in the document
}

func (err *PageIndexError) Error() string {
	if err.NumPages == 0 {
		return "page " + strconv.Itoa(err.Page) + " out of range (document has no pages)"
	}
	return fmt.Sprintf("page %d out of range [0, %d)", err.Page, err.NumPages)
}

// ImageDecodeError indicates that the image data is corrupt or in a format
// which is not supported.
type ImageDecodeError struct {
	Err error
}

func (err *ImageDecodeError) Error() string {
	if err.Err == nil {
		return "cannot decode image"
	}
	return "cannot decode image: " + err.Err.Error()
}

func (err *ImageDecodeError) Unwrap() error {
	return err.Err
}

// PlacementError indicates that a placement rectangle cannot be used.
type PlacementError struct {
	Rect   Rect
	Reason string
}

func (err *PlacementError) Error() string {
	return "invalid placement " + err.Rect.String() + ": " + err.Reason
}
