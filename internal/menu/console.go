// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

//go:build !test

package menu

import (
	efi "github.com/canonical/go-efilib"
)

// console implements both Display and KeyReader directly against the
// firmware's own ConOut/ConIn, the same package-level bindings
// internal/firmware/efi_services.go uses for WaitForKey.
type console struct{}

// NewConsole returns the real firmware-console Display/KeyReader pair.
func NewConsole() (Display, KeyReader) {
	c := console{}
	return c, c
}

func (console) WriteString(s string) error {
	return efi.ConOut().OutputString(s)
}

func (console) ReadKey() (rune, error) {
	key, err := efi.ConIn().ReadKeyStroke()
	if err != nil {
		return 0, err
	}
	return rune(key.UnicodeChar), nil
}
