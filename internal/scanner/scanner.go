// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

// Package scanner enumerates block-I/O handles, probes each logical
// partition against the registered bootconfig parsers, and accumulates
// the resulting entries into a bootentry.List bounded at MaxTargets.
package scanner

import (
	efi "github.com/canonical/go-efilib"

	"github.com/acer51-doctom/superboot/internal/bootconfig"
	"github.com/acer51-doctom/superboot/internal/bootentry"
	"github.com/acer51-doctom/superboot/internal/firmware"
	"github.com/acer51-doctom/superboot/internal/status"
)

// Firmware is the narrow slice scanner needs to enumerate and filter
// block devices; firmware.Services satisfies it structurally.
type Firmware interface {
	Handles(protocol firmware.GUID) ([]firmware.Handle, error)
	BlockIO(h firmware.Handle) (firmware.BlockIO, bool)
}

// VFS is the narrow slice scanner needs to read candidate config files;
// *vfs.VFS satisfies it, and also implements bootconfig.VFS so parsers
// that need directory listing get it transparently.
type VFS interface {
	Exists(device firmware.Handle, path string) bool
	Read(device firmware.Handle, path string) ([]byte, error)
}

// BlockIOProtocolGUID is the well-known protocol GUID scanner enumerates
// handles by.
var BlockIOProtocolGUID = efi.BlockIOProtocolGUID

// ScanAll enumerates every logical, present block-I/O partition and
// returns the accumulated boot entries, stopping once MaxTargets is
// reached. Per-partition and per-parser errors are swallowed: one
// unreadable or malformed config must never abort discovery of the rest.
func ScanAll(fw Firmware, vfs VFS, parsers []bootconfig.Descriptor) (*bootentry.List, error) {
	handles, err := fw.Handles(BlockIOProtocolGUID)
	if err != nil || len(handles) == 0 {
		return nil, status.New("scanner.ScanAll", status.NotFound, err)
	}

	list := &bootentry.List{}
	for _, h := range handles {
		block, ok := fw.BlockIO(h)
		if !ok || !block.LogicalPartition() || !block.MediaPresent() {
			continue
		}

		scanPartition(vfs, h, parsers, list)
		if list.Full() {
			break
		}
	}

	if len(list.Entries) == 0 {
		return list, status.New("scanner.ScanAll", status.NotFound, nil)
	}
	return list, nil
}

// scanPartition tries every parser's probe paths in order against one
// device, stopping at the first path that exists per parser — a
// partition that happens to carry both /boot/grub/grub.cfg and
// /grub/grub.cfg is only parsed once.
func scanPartition(vfs VFS, device firmware.Handle, parsers []bootconfig.Descriptor, list *bootentry.List) {
	for _, parser := range parsers {
		for _, path := range parser.ProbePaths {
			if !vfs.Exists(device, path) {
				continue
			}

			data, err := vfs.Read(device, path)
			if err != nil {
				break
			}

			entries, err := parser.Parse(trimNUL(data), device, path, vfs)
			if err != nil {
				break
			}
			for _, e := range entries {
				if !list.Add(e) {
					return
				}
			}
			break
		}
	}
}

func trimNUL(data []byte) []byte {
	if n := len(data); n > 0 && data[n-1] == 0 {
		return data[:n-1]
	}
	return data
}
