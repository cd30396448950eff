// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

// Package bootconfig turns raw config text from three bootloader families
// into normalized bootentry.Entry values. Every parser is stateless: it
// receives bytes plus provenance (source device and config path) and
// returns entries, touching no firmware state of its own except, for the
// systemd-boot-style parser, a VFS lookup to enumerate a sibling
// directory of per-entry files.
package bootconfig

import (
	"github.com/acer51-doctom/superboot/internal/bootentry"
	"github.com/acer51-doctom/superboot/internal/firmware"
)

// Kind distinguishes the three supported config families, in the fixed
// probe order parsers are tried.
type Kind int

const (
	KindMenuScript Kind = iota // GRUB-style
	KindPerEntry               // systemd-boot style
	KindSection                // Limine style
)

// VFS is the narrow slice the per-entry parser needs to read the files in
// its sibling entries directory; *vfs.VFS satisfies it.
type VFS interface {
	Read(device firmware.Handle, path string) ([]byte, error)
}

// Descriptor pairs a parser with the conventional paths the scanner
// should probe for it, in order; the first hit on a partition wins.
type Descriptor struct {
	Name        string
	Kind        Kind
	ConfigType  bootentry.ConfigType
	ProbePaths  []string
	Parse       func(data []byte, device firmware.Handle, configPath string, vfs VFS) ([]bootentry.Entry, error)
}

// Registry returns the built-in parsers in the spec's fixed registration
// order: menu-script, then per-entry, then section.
func Registry() []Descriptor {
	return []Descriptor{
		{
			Name:       "grub",
			Kind:       KindMenuScript,
			ConfigType: bootentry.ConfigGrub,
			ProbePaths: []string{`\boot\grub\grub.cfg`, `\grub\grub.cfg`, `\EFI\BOOT\grub.cfg`},
			Parse:      parseMenuScript,
		},
		{
			Name:       "systemd-boot",
			Kind:       KindPerEntry,
			ConfigType: bootentry.ConfigSystemdBoot,
			ProbePaths: []string{`\loader\loader.conf`},
			Parse:      parseSystemdBoot,
		},
		{
			Name:       "limine",
			Kind:       KindSection,
			ConfigType: bootentry.ConfigLimine,
			ProbePaths: []string{`\limine.cfg`, `\boot\limine\limine.cfg`, `\EFI\BOOT\limine.cfg`},
			Parse:      parseSection,
		},
	}
}

// trimNUL drops a single trailing NUL byte, the terminator the VFS read
// contract always appends.
func trimNUL(data []byte) []byte {
	if n := len(data); n > 0 && data[n-1] == 0 {
		return data[:n-1]
	}
	return data
}
