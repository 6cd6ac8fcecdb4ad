// elMix: likelihood ratios for forensic DNA mixtures.
// Copyright (c) 2026 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elmix/blob/master/LICENSE.txt>.

package internal

import (
	"os"
	"path/filepath"
)

// FullPathname returns an absolute version of the given filename,
// relative to the current working directory.
func FullPathname(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		return filename, nil
	}
	wd, err := os.Getwd()
	return filepath.Join(wd, filename), err
}

// ReadFile reads the named file, after making its pathname absolute.
func ReadFile(filename string) ([]byte, error) {
	pathname, err := FullPathname(filename)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(pathname)
}

// CreateFile creates the named file, including any missing parent
// directories.
func CreateFile(filename string) (*os.File, error) {
	pathname, err := FullPathname(filename)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(pathname), 0700); err != nil {
		return nil, err
	}
	return os.Create(pathname)
}
