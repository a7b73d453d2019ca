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

// Pdf-place-image draws an image into a rectangle on one page of a PDF file.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"seehuhn.de/go/overlay"
	"seehuhn.de/go/overlay/image"
	"seehuhn.de/go/overlay/tools/internal/buildinfo"
	"seehuhn.de/go/overlay/tools/internal/profile"
)

// config holds all command-line flag values.
type config struct {
	out        string
	force      bool
	page       int
	rect       overlay.Rect
	origin     string
	keepAspect bool
	underlay   bool
	maxDPI     float64
	password   string
	ownerPwd   string
	dataURI    bool
	info       bool
	verbose    bool
	cpuProfile string
	memProfile string
}

func main() {
	os.Exit(runMain(os.Args[1:], os.Stdout, os.Stderr))
}

// runMain runs the tool with the given command line arguments and returns
// the exit code.
func runMain(args []string, stdout, stderr io.Writer) int {
	cfg := &config{}
	flags := cfg.flagSet(stderr)
	err := flags.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	} else if err != nil {
		return 2
	}

	wantArgs := 2
	if cfg.info {
		wantArgs = 1
	}
	if flags.NArg() != wantArgs {
		flags.Usage()
		return 2
	}

	logger := newLogger(cfg.verbose)
	defer logger.Sync()

	prof, err := profile.Start(cfg.cpuProfile, cfg.memProfile)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	err = run(cfg, logger, flags.Args(), stdout)
	if stopErr := prof.Stop(); stopErr != nil {
		logger.Warn("profiling failed", zap.Error(stopErr))
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func (cfg *config) flagSet(output io.Writer) *flag.FlagSet {
	flags := flag.NewFlagSet("pdf-place-image", flag.ContinueOnError)
	flags.SetOutput(output)
	flags.StringVar(&cfg.out, "o", "out.pdf", "output `file`, \"-\" for standard output")
	flags.BoolVar(&cfg.force, "f", false, "overwrite the output file if it exists")
	flags.IntVar(&cfg.page, "page", 0, "zero-based page `index`")
	flags.Float64Var(&cfg.rect.X, "x", 300, "horizontal position in points")
	flags.Float64Var(&cfg.rect.Y, "y", 550, "vertical position in points")
	flags.Float64Var(&cfg.rect.Width, "w", 150, "image width in points")
	flags.Float64Var(&cfg.rect.Height, "h", 150, "image height in points")
	flags.StringVar(&cfg.origin, "origin", "tl", "coordinate origin: `tl` (top-left) or bl (bottom-left)")
	flags.BoolVar(&cfg.keepAspect, "keep-aspect", false, "keep the aspect ratio of the image")
	flags.BoolVar(&cfg.underlay, "under", false, "draw the image below the page content")
	flags.Float64Var(&cfg.maxDPI, "max-dpi", 0, "downsample images above this `resolution`")
	flags.StringVar(&cfg.password, "p", "", "PDF password")
	flags.StringVar(&cfg.ownerPwd, "owner-password", "", "owner password for encrypted output")
	flags.BoolVar(&cfg.dataURI, "data-uri", false, "write a data: URI instead of a PDF file")
	flags.BoolVar(&cfg.info, "info", false, "list the page sizes and exit")
	flags.BoolVar(&cfg.verbose, "v", false, "print diagnostic messages")
	flags.StringVar(&cfg.cpuProfile, "cpuprofile", "", "write a CPU profile to `file`")
	flags.StringVar(&cfg.memProfile, "memprofile", "", "write a memory profile to `file`")

	flags.Usage = func() {
		w := flags.Output()
		fmt.Fprintln(w, buildinfo.Header("pdf-place-image", "place an image onto a PDF page"))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Usage:")
		fmt.Fprintln(w, "  pdf-place-image [options] <file.pdf> <image>")
		fmt.Fprintln(w, "  pdf-place-image -info <file.pdf>")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		flags.PrintDefaults()
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Examples:")
		fmt.Fprintln(w, "  pdf-place-image -o signed.pdf contract.pdf signature.png")
		fmt.Fprintln(w, "  pdf-place-image -page 1 -x 72 -y 72 -w 200 -h 100 -keep-aspect in.pdf logo.jpg")
	}
	return flags
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func run(cfg *config, logger *zap.Logger, args []string, stdout io.Writer) error {
	opt, err := cfg.options()
	if err != nil {
		return err
	}

	pdfName := args[0]
	pdfData, err := os.ReadFile(pdfName)
	if err != nil {
		return err
	}
	logger.Debug("read document", zap.String("file", pdfName), zap.Int("bytes", len(pdfData)))

	if cfg.info {
		return listPages(stdout, pdfData, opt)
	}

	if cfg.out == "-" {
		if !cfg.dataURI && isTerminal(stdout) {
			return errors.New("refusing to write PDF data to a terminal")
		}
	} else if !cfg.force {
		_, err := os.Stat(cfg.out)
		if err == nil {
			return fmt.Errorf("output file %q already exists", cfg.out)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	imgName := args[1]
	imgData, err := os.ReadFile(imgName)
	if err != nil {
		return err
	}
	img, err := image.Decode(imgData)
	if err != nil {
		return &overlay.ImageDecodeError{Err: err}
	}
	logger.Debug("decoded image",
		zap.String("file", imgName),
		zap.String("format", img.Format),
		zap.Int("width", img.Width()),
		zap.Int("height", img.Height()),
		zap.Int("channels", img.Channels()),
		zap.Bool("alpha", img.HasAlpha()),
		zap.Bool("icc", img.ICC != nil))

	result, err := composite(pdfData, img, cfg, opt)
	if err != nil {
		return err
	}
	logger.Debug("placed image",
		zap.Int("page", cfg.page),
		zap.Stringer("rect", cfg.rect),
		zap.Stringer("origin", opt.Origin),
		zap.Int("bytes", len(result)))

	if cfg.dataURI {
		result = []byte(overlay.DataURI(result) + "\n")
	}

	if cfg.out == "-" {
		_, err = stdout.Write(result)
		return err
	}

	err = os.WriteFile(cfg.out, result, 0o644)
	if err != nil {
		return err
	}
	logger.Debug("wrote output", zap.String("file", cfg.out))
	return nil
}

func composite(pdfData []byte, img *image.Image, cfg *config, opt *overlay.Options) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := overlay.Apply(buf, bytes.NewReader(pdfData), img, cfg.page, cfg.rect, opt)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (cfg *config) options() (*overlay.Options, error) {
	opt := &overlay.Options{
		KeepAspect:    cfg.keepAspect,
		Underlay:      cfg.underlay,
		MaxDPI:        cfg.maxDPI,
		Password:      cfg.password,
		OwnerPassword: cfg.ownerPwd,
	}
	switch cfg.origin {
	case "tl", "top-left":
		opt.Origin = overlay.OriginTopLeft
	case "bl", "bottom-left":
		opt.Origin = overlay.OriginBottomLeft
	default:
		return nil, fmt.Errorf("invalid origin %q (use tl or bl)", cfg.origin)
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		opt.ReadPassword = askPassword
	}
	return opt, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// askPassword prompts for the password of an encrypted document.
// The prompt goes to stderr, since stdout may carry the output.
func askPassword(_ []byte, try int) string {
	if try >= 3 {
		return ""
	}
	fmt.Fprint(os.Stderr, "password: ")
	passwd, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return ""
	}
	return string(passwd)
}

func listPages(w io.Writer, pdfData []byte, opt *overlay.Options) error {
	pages, err := overlay.Inspect(pdfData, opt)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%d pages\n", len(pages))
	for i, p := range pages {
		fmt.Fprintf(w, "%4d  %7.2f x %7.2f pt", i, p.Width, p.Height)
		if p.Rotate != 0 {
			fmt.Fprintf(w, "  rotated %d°", p.Rotate)
		}
		fmt.Fprintln(w)
	}
	return nil
}
