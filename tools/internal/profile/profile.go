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

// Package profile writes pprof profiles for the command line tools.
package profile

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// Session is an active profiling session.
type Session struct {
	cpu     *os.File
	memPath string
}

// Start begins CPU profiling into cpuPath, if this is non-empty.  A heap
// allocation profile is written to memPath, if non-empty, when the session
// is stopped.
func Start(cpuPath, memPath string) (*Session, error) {
	s := &Session{memPath: memPath}
	if cpuPath == "" {
		return s, nil
	}

	fd, err := os.Create(cpuPath)
	if err != nil {
		return nil, fmt.Errorf("CPU profile: %w", err)
	}
	err = pprof.StartCPUProfile(fd)
	if err != nil {
		fd.Close()
		return nil, fmt.Errorf("CPU profile: %w", err)
	}
	s.cpu = fd
	return s, nil
}

// Stop ends CPU profiling and writes the allocation profile.
// It is safe to call Stop on a nil session.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}

	var errs []error
	if s.cpu != nil {
		pprof.StopCPUProfile()
		errs = append(errs, s.cpu.Close())
		s.cpu = nil
	}
	if s.memPath != "" {
		errs = append(errs, writeAllocs(s.memPath))
		s.memPath = ""
	}
	return errors.Join(errs...)
}

func writeAllocs(path string) error {
	allocs := pprof.Lookup("allocs")
	if allocs == nil {
		return errors.New("allocation profile not available")
	}

	fd, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("memory profile: %w", err)
	}
	runtime.GC()
	err = allocs.WriteTo(fd, 0)
	err2 := fd.Close()
	if err != nil {
		return fmt.Errorf("memory profile: %w", err)
	}
	return err2
}
