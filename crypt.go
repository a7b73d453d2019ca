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
	"crypto/rand"
	"errors"

	"seehuhn.de/go/pdf"
)

var errPasswordChanged = errors.New("document was unlocked with a different password while copying")

// writerOptions returns the options for writing the output file.  If the
// input is encrypted, the output is encrypted with the same user password
// and the same user permissions.  The owner password is taken from opt, or
// is chosen at random.
//
// The argument unlocked is the password which was last passed to the PDF
// reader, or the empty string if the reader never asked for a password.
func writerOptions(doc pdf.Getter, page *pageInfo, opt *Options, unlocked func() string) (*pdf.WriterOptions, error) {
	meta := doc.GetMeta()
	wopt := &pdf.WriterOptions{ID: meta.ID}

	encObj, isEncrypted := meta.Trailer["Encrypt"]
	if !isEncrypted {
		return wopt, nil
	}

	// Decrypting a stream makes the reader compute the file key, asking for
	// a password if needed.  This must happen before the output file is
	// created, since the output uses the same password.
	err := unlockDocument(doc, page)
	if err != nil {
		return nil, err
	}

	enc, err := pdf.GetDict(doc, encObj)
	if err != nil {
		return nil, err
	}
	R, err := pdf.GetInteger(doc, enc["R"])
	if err != nil {
		return nil, err
	}
	P, err := pdf.GetInteger(doc, enc["P"])
	if err != nil {
		return nil, err
	}

	wopt.UserPassword = unlocked()
	wopt.UserPermissions = permissions(int(R), uint32(P))
	wopt.OwnerPassword = opt.OwnerPassword
	if wopt.OwnerPassword == "" {
		// An owner password equal to the user password would lift the
		// permission restrictions.
		wopt.OwnerPassword = rand.Text()
	}
	return wopt, nil
}

// unlockDocument reads one content stream of the document, starting with
// the given page.  For encrypted documents, this needs the file key.
func unlockDocument(doc pdf.Getter, page *pageInfo) error {
	found, err := readFirstStream(doc, page)
	if found || err != nil {
		return err
	}
	var readErr error
	_, err = walkPages(doc, func(_ int, p *pageInfo) bool {
		found, readErr = readFirstStream(doc, p)
		return !found && readErr == nil
	})
	if readErr != nil {
		return readErr
	}
	return err
}

func readFirstStream(doc pdf.Getter, page *pageInfo) (bool, error) {
	contents, err := pdf.Resolve(doc, page.Dict["Contents"])
	if err != nil {
		return false, err
	}
	refs, isArray := contents.(pdf.Array)
	if !isArray {
		refs = pdf.Array{page.Dict["Contents"]}
	}
	for _, ref := range refs {
		stm, err := pdf.GetStream(doc, ref)
		if err != nil {
			return false, err
		}
		if stm != nil {
			return true, nil
		}
	}
	return false, nil
}

// permissions converts the /P entry of a standard security handler into a
// permission set.  See table 22 of ISO 32000-2:2020.
func permissions(R int, P uint32) pdf.Perm {
	bit := func(n int) bool { return P&(1<<(n-1)) != 0 }

	perm := pdf.PermAll
	switch {
	case R == 2:
		if !bit(3) {
			perm &^= pdf.PermPrint | pdf.PermPrintDegraded
		}
	case R >= 3:
		if !bit(3) && !bit(12) {
			perm &^= pdf.PermPrint | pdf.PermPrintDegraded
		} else if bit(3) && !bit(12) {
			perm &^= pdf.PermPrint
		}
	}

	if !bit(4) {
		perm &^= pdf.PermModify
		if !bit(11) {
			perm &^= pdf.PermAssemble
		}
	}
	if !bit(5) {
		perm &^= pdf.PermCopy
	}
	if !bit(6) {
		perm &^= pdf.PermAnnotate
		if !bit(9) {
			perm &^= pdf.PermForms
		}
	}
	return perm
}
