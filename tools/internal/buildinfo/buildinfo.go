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

// Package buildinfo reports version information for the command line tools.
package buildinfo

import (
	"runtime/debug"
)

// Version returns the version of the main module of the running binary.
// For development builds this is the abbreviated VCS revision, with a
// "+dirty" suffix for modified working trees.  If no information is
// available, the empty string is returned.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 8 {
		rev = rev[:8]
	}
	if rev != "" && dirty {
		rev += "+dirty"
	}
	return rev
}

// Header returns the first line of a usage message: the tool name, the
// version if known, and a short description.
func Header(tool, description string) string {
	name := tool
	if v := Version(); v != "" {
		name += " " + v
	}
	return name + " (" + description + ")"
}
