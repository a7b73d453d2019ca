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
	"errors"
	"io"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pdfcopy"

	"seehuhn.de/go/overlay/image"
)

// Options control how an image is placed onto a page.
// A nil *Options is equivalent to the zero value.
type Options struct {
	// Origin selects the reference corner for the placement rectangle.
	Origin Origin

	// KeepAspect makes the image keep its aspect ratio.  The image is
	// scaled to the largest size which fits into the placement rectangle
	// and is centred inside the rectangle.  If KeepAspect is false, the
	// image is stretched to fill the rectangle exactly.
	KeepAspect bool

	// Underlay draws the image below the existing page content, instead of
	// on top of it.
	Underlay bool

	// MaxDPI, if positive, limits the resolution of the embedded image.
	// Images with a higher resolution at the placed size are downsampled.
	MaxDPI float64

	// Password is used to open encrypted documents.
	Password string

	// ReadPassword, if set, is called when Password does not unlock an
	// encrypted document.  ID is the file identifier and try counts the
	// previous attempts.  Returning the empty string aborts.
	ReadPassword func(ID []byte, try int) string

	// OwnerPassword is the owner password for the output file, if the
	// input document is encrypted.  If this is empty, a random owner
	// password is used.  The output always keeps the user password and the
	// user permissions of the input.
	OwnerPassword string
}

func (opt *Options) readerOptions() *pdf.ReaderOptions {
	if opt.Password == "" && opt.ReadPassword == nil {
		return nil
	}
	return &pdf.ReaderOptions{
		ReadPassword: func(ID []byte, try int) string {
			if opt.Password != "" {
				if try == 0 {
					return opt.Password
				}
				try--
			}
			if opt.ReadPassword != nil {
				return opt.ReadPassword(ID, try)
			}
			return ""
		},
	}
}

// Composite draws an image into a rectangle on one page of a PDF document.
//
// pdfData and imageData hold the complete input files.  The page is given by
// its zero-based index.  The result is a complete PDF file, with the same
// pages as the input.
//
// The following errors are returned for invalid input:
//   - [*PlacementError] if rect is not a valid placement,
//   - [*DocumentParseError] if pdfData cannot be read as a PDF file,
//   - [*PageIndexError] if the page does not exist,
//   - [*ImageDecodeError] if imageData is not an image in a supported format.
func Composite(pdfData, imageData []byte, pageNo int, rect Rect, opt *Options) ([]byte, error) {
	err := rect.Validate()
	if err != nil {
		return nil, err
	}

	img, err := image.Decode(imageData)
	if err != nil {
		return nil, &ImageDecodeError{Err: err}
	}

	buf := &bytes.Buffer{}
	err = Apply(buf, bytes.NewReader(pdfData), img, pageNo, rect, opt)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Apply reads a PDF document from r, draws img into a rectangle on the given
// page, and writes the resulting document to w.
//
// Encrypted documents stay encrypted.  The output uses the password which
// unlocked the input as its user password, and keeps the user permissions.
//
// Errors are reported as for [Composite].  If an error occurs after output
// has started, w may contain an incomplete file.
func Apply(w io.Writer, r io.ReadSeeker, img *image.Image, pageNo int, rect Rect, opt *Options) error {
	if opt == nil {
		opt = &Options{}
	}
	err := rect.Validate()
	if err != nil {
		return err
	}
	if img == nil {
		return &ImageDecodeError{Err: errors.New("no image")}
	}

	// The password which unlocks the input also protects the output.
	var unlocked string
	ropt := opt.readerOptions()
	if ropt != nil {
		readPassword := ropt.ReadPassword
		ropt.ReadPassword = func(ID []byte, try int) string {
			unlocked = readPassword(ID, try)
			return unlocked
		}
	}

	doc, err := pdf.NewReader(r, ropt)
	if err != nil {
		return &DocumentParseError{Err: err}
	}
	defer doc.Close()

	page, err := findPage(doc, pageNo)
	if err != nil {
		return asParseError(err)
	}
	if page.Ref == 0 {
		return &DocumentParseError{Err: errDirectPage}
	}

	geom := page.geometry(doc)
	if opt.MaxDPI > 0 {
		img, err = img.Downsample(rect.Width, rect.Height, opt.MaxDPI)
		if err != nil {
			return &ImageDecodeError{Err: err}
		}
	}
	m := geom.imageMatrix(rect, opt.Origin, img.Width(), img.Height(), opt.KeepAspect)

	wopt, err := writerOptions(doc, page, opt, func() string { return unlocked })
	if err != nil {
		return &DocumentParseError{Err: err}
	}

	metaIn := doc.GetMeta()
	out, err := pdf.NewWriter(w, max(metaIn.Version, img.MinVersion()), wopt)
	if err != nil {
		return err
	}
	rm := pdf.NewResourceManager(out)
	copier := pdfcopy.NewCopier(out, doc)

	// All references to the old page object, for example from the page
	// tree or from annotations, are redirected to the new page.
	pageRef := out.Alloc()
	copier.Redirect(page.Ref, pageRef)

	pageDict, err := composePage(rm, copier, doc, page, &layer{
		Image:    img,
		Gray:     img.Channels() == 1,
		Matrix:   m,
		Underlay: opt.Underlay,
	})
	if err != nil {
		return asParseError(err)
	}
	err = out.Put(pageRef, pageDict)
	if err != nil {
		return err
	}

	catalog, err := pdfcopy.CopyStruct(copier, metaIn.Catalog)
	if err != nil {
		return asParseError(err)
	}
	if unlocked != wopt.UserPassword {
		return &DocumentParseError{Err: errPasswordChanged}
	}

	metaOut := out.GetMeta()
	metaOut.Catalog = catalog
	metaOut.Info = metaIn.Info

	err = rm.Close()
	if err != nil {
		return err
	}
	return out.Close()
}

var errDirectPage = errors.New("page object is not an indirect object")

// asParseError classifies errors found while reading the input document.
func asParseError(err error) error {
	var pageErr *PageIndexError
	if errors.As(err, &pageErr) {
		return err
	}
	var parseErr *DocumentParseError
	if errors.As(err, &parseErr) {
		return err
	}

	var malformed *pdf.MalformedFileError
	var authErr *pdf.AuthenticationError
	if errors.As(err, &malformed) || errors.As(err, &authErr) ||
		errors.Is(err, errInvalidPageTree) || errors.Is(err, errPageTreeLoop) {
		return &DocumentParseError{Err: err}
	}
	return err
}
