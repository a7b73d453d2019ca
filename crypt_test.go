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
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/pdf"
)

const (
	userPassword  = "secret"
	ownerPassword = "boss"
)

// encryptedDoc returns a one-page document which needs a password to open.
func encryptedDoc(t *testing.T, perm pdf.Perm) []byte {
	t.Helper()
	opt := &pdf.WriterOptions{
		UserPassword:    userPassword,
		OwnerPassword:   ownerPassword,
		UserPermissions: perm,
	}
	return makeDocWithOptions(t, opt, nil, testPage{Content: testContent})
}

// openEncrypted opens a PDF file using the given password.
func openEncrypted(t *testing.T, data []byte, passwd string) (*pdf.Reader, []*pageInfo) {
	t.Helper()

	ropt := &pdf.ReaderOptions{
		ReadPassword: func(_ []byte, try int) string {
			if try == 0 {
				return passwd
			}
			return ""
		},
	}
	r, err := pdf.NewReader(bytes.NewReader(data), ropt)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })

	var pages []*pageInfo
	_, err = walkPages(r, func(_ int, p *pageInfo) bool {
		pages = append(pages, p)
		return true
	})
	if err != nil {
		t.Fatal(err)
	}
	return r, pages
}

// filePermissions returns the user permissions recorded in the encryption
// dictionary of a file.
func filePermissions(t *testing.T, r pdf.Getter) pdf.Perm {
	t.Helper()

	enc, err := pdf.GetDict(r, r.GetMeta().Trailer["Encrypt"])
	if err != nil {
		t.Fatal(err)
	}
	if enc == nil {
		t.Fatal("output is not encrypted")
	}
	R, _ := pdf.GetInteger(r, enc["R"])
	P, _ := pdf.GetInteger(r, enc["P"])
	return permissions(int(R), uint32(P))
}

func TestCompositeEncrypted(t *testing.T) {
	perm := pdf.PermPrint | pdf.PermPrintDegraded | pdf.PermCopy
	in := encryptedDoc(t, perm)
	img := makePNG(t, 2, 2, opaque)
	rect := Rect{X: 10, Y: 10, Width: 10, Height: 10}

	out, err := Composite(in, img, 0, rect, &Options{Password: userPassword})
	if err != nil {
		t.Fatal(err)
	}

	r, pages := openEncrypted(t, out, userPassword)
	want := "q\n" + testContent + "Q\nq\n10 0 0 10 10 772 cm\n/X1 Do\nQ\n"
	if d := cmp.Diff(want, pageContent(t, r, pages[0])); d != "" {
		t.Errorf("content (-want +got):\n%s", d)
	}
	if got := filePermissions(t, r); got != perm {
		t.Errorf("permissions: got %v, want %v", got, perm)
	}

	// without the password, the page content cannot be read
	r2, pages2 := openEncrypted(t, out, "")
	_, err = pdf.GetStream(r2, pages2[0].Dict["Contents"].(pdf.Array)[0])
	var authErr *pdf.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Errorf("reading without password: got %v, want AuthenticationError", err)
	}
}

func TestCompositeOwnerPassword(t *testing.T) {
	in := encryptedDoc(t, pdf.PermCopy)
	img := makePNG(t, 1, 1, opaque)

	opt := &Options{Password: userPassword, OwnerPassword: "new owner"}
	out, err := Composite(in, img, 0, Rect{Width: 1, Height: 1}, opt)
	if err != nil {
		t.Fatal(err)
	}

	// both the user password and the new owner password open the file
	for _, passwd := range []string{userPassword, "new owner"} {
		r, pages := openEncrypted(t, out, passwd)
		if len(pageContent(t, r, pages[0])) == 0 {
			t.Errorf("%q: empty page", passwd)
		}
	}
}

func TestCompositeRestrictedNoPassword(t *testing.T) {
	// The file opens without a password, but the owner restricted the
	// permissions.
	opt := &pdf.WriterOptions{
		OwnerPassword:   ownerPassword,
		UserPermissions: pdf.PermCopy | pdf.PermForms,
	}
	in := makeDocWithOptions(t, opt, nil, testPage{Content: testContent})
	img := makePNG(t, 1, 1, opaque)

	out, err := Composite(in, img, 0, Rect{Width: 1, Height: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}

	r, pages := openEncrypted(t, out, "")
	if got := filePermissions(t, r); got != opt.UserPermissions {
		t.Errorf("permissions: got %v, want %v", got, opt.UserPermissions)
	}
	want := "q\n" + testContent + "Q\nq\n1 0 0 1 0 791 cm\n/X1 Do\nQ\n"
	if d := cmp.Diff(want, pageContent(t, r, pages[0])); d != "" {
		t.Errorf("content (-want +got):\n%s", d)
	}
}

func TestCompositeWrongPassword(t *testing.T) {
	in := encryptedDoc(t, pdf.PermAll)
	img := makePNG(t, 1, 1, opaque)

	_, err := Composite(in, img, 0, Rect{Width: 1, Height: 1}, &Options{Password: "wrong"})
	var parseErr *DocumentParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("got %v, want DocumentParseError", err)
	}
	var authErr *pdf.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Errorf("got %v, want AuthenticationError", err)
	}
}

func TestCompositePasswordRetry(t *testing.T) {
	in := encryptedDoc(t, pdf.PermAll)
	img := makePNG(t, 1, 1, opaque)

	// Password is tried first, then ReadPassword is asked with the
	// attempts counted from zero.
	var tries []int
	opt := &Options{
		Password: "wrong",
		ReadPassword: func(_ []byte, try int) string {
			tries = append(tries, try)
			if try == 1 {
				return userPassword
			}
			return "also wrong"
		},
	}
	out, err := Composite(in, img, 0, Rect{Width: 1, Height: 1}, opt)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]int{0, 1}, tries); d != "" {
		t.Errorf("tries (-want +got):\n%s", d)
	}

	// the password which unlocked the input protects the output
	r, pages := openEncrypted(t, out, userPassword)
	if len(pageContent(t, r, pages[0])) == 0 {
		t.Error("empty page")
	}
}

func TestReaderOptions(t *testing.T) {
	if (&Options{}).readerOptions() != nil {
		t.Error("reader options without passwords")
	}

	opt := &Options{
		Password: "a",
		ReadPassword: func(_ []byte, try int) string {
			return []string{"b", "c"}[try]
		},
	}
	read := opt.readerOptions().ReadPassword
	var got []string
	for try := range 3 {
		got = append(got, read(nil, try))
	}
	if d := cmp.Diff([]string{"a", "b", "c"}, got); d != "" {
		t.Errorf("passwords (-want +got):\n%s", d)
	}

	read = (&Options{Password: "a"}).readerOptions().ReadPassword
	if read(nil, 0) != "a" || read(nil, 1) != "" {
		t.Error("Password must be tried exactly once")
	}
}

func TestPermissions(t *testing.T) {
	cases := []struct {
		R    int
		P    uint32
		want pdf.Perm
	}{
		{3, 0xFFFFFFFC, pdf.PermAll},
		{3, 0xFFFFF0C0, 0},
		{3, 0xFFFFF0C4, pdf.PermPrintDegraded},
		{4, 0xFFFFFCC4, pdf.PermPrint | pdf.PermPrintDegraded | pdf.PermAssemble},
		{2, 0xFFFFFFC4, pdf.PermPrint | pdf.PermPrintDegraded | pdf.PermForms | pdf.PermAssemble},
	}
	for _, c := range cases {
		if got := permissions(c.R, c.P); got != c.want {
			t.Errorf("permissions(%d, %#x) = %v, want %v", c.R, c.P, got, c.want)
		}
	}
}
