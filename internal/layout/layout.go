// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package layout parses the layout report of the ELF to flat image converter.
package layout

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/c2h5oh/datasize"
)

const numFields = 3

var (
	// ErrMalformedReport is returned if the converter output does not have
	// the expected shape.
	ErrMalformedReport = errors.New("malformed layout report")

	// ErrEntryOutOfRange is returned by [ImageLayout.Validate] if the entry
	// point is not within the image.
	ErrEntryOutOfRange = errors.New("entry point outside of image")
)

// ImageLayout is the memory layout of a flat image as reported by the
// converter.
type ImageLayout struct {
	// Base is the virtual address the image is loaded at.
	Base uint64
	// Entry is the virtual address execution starts at.
	Entry uint64
	// Size of the image in bytes.
	Size uint64
}

// Parse parses the converter report. It is a single line with the base
// address, the entry point and the size, all hexadecimal without prefix and
// separated by whitespace.
func Parse(report string) (ImageLayout, error) {
	fields := strings.Fields(report)
	if len(fields) != numFields {
		return ImageLayout{}, fmt.Errorf(
			"%w: want %d fields, got %d",
			ErrMalformedReport,
			numFields,
			len(fields),
		)
	}

	var values [numFields]uint64

	for idx, field := range fields {
		value, err := strconv.ParseUint(field, 16, 64)
		if err != nil {
			return ImageLayout{}, fmt.Errorf(
				"%w: field %d: %w",
				ErrMalformedReport,
				idx+1,
				err,
			)
		}

		values[idx] = value
	}

	return ImageLayout{
		Base:  values[0],
		Entry: values[1],
		Size:  values[2],
	}, nil
}

// Validate checks that the entry point lies within the image.
func (l ImageLayout) Validate() error {
	if l.Entry < l.Base || l.Entry-l.Base >= l.Size {
		return fmt.Errorf(
			"%w: entry %x, image %x-%x",
			ErrEntryOutOfRange,
			l.Entry,
			l.Base,
			l.Base+l.Size,
		)
	}

	return nil
}

// String returns the layout in the converter's report format.
func (l ImageLayout) String() string {
	return fmt.Sprintf("%x %x %x", l.Base, l.Entry, l.Size)
}

// Fprint writes the layout for operators, so addresses can be correlated with
// a disassembly or debugger.
func (l ImageLayout) Fprint(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"base address: %x\nentry point:  %x\nsize:         %x (%s)\n",
		l.Base,
		l.Entry,
		l.Size,
		datasize.ByteSize(l.Size).HR(),
	)

	return err //nolint:wrapcheck
}
