// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

// Package fsprobe provides vfs.Driver stubs for filesystem formats this
// loader can recognize but does not yet read: each one correctly claims
// (or refuses) a device during probe by its on-disk magic, but Mount
// always fails, so the VFS falls through to the next registered driver
// and ultimately reports the device unsupported rather than silently
// mismounting it with the wrong reader.
package fsprobe

import (
	"encoding/binary"

	"github.com/acer51-doctom/superboot/internal/firmware"
	"github.com/acer51-doctom/superboot/internal/status"
	"github.com/acer51-doctom/superboot/internal/vfs"
)

// stub is a Driver that probes a fixed-offset magic and never mounts.
type stub struct {
	name   string
	offset uint64
	size   int
	match  func(buf []byte) bool
}

func (s *stub) Name() string { return s.name }

func (s *stub) Probe(block firmware.BlockIO, disk firmware.DiskIO) bool {
	buf, err := readAt(block, disk, s.offset, s.size)
	if err != nil {
		return false
	}
	return s.match(buf)
}

func (s *stub) Mount(firmware.BlockIO, firmware.DiskIO) (vfs.FSState, error) {
	return nil, status.New("fsprobe."+s.name+".Mount", status.Unsupported, nil)
}

func readAt(block firmware.BlockIO, disk firmware.DiskIO, offset uint64, size int) ([]byte, error) {
	buf := make([]byte, size)
	if disk != nil {
		if err := disk.ReadDisk(block.MediaID(), offset, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}

	bs := uint64(block.BlockSize())
	startLBA := offset / bs
	endLBA := (offset + uint64(size) + bs - 1) / bs
	tmp := make([]byte, (endLBA-startLBA)*bs)
	if err := block.ReadBlocks(startLBA, tmp); err != nil {
		return nil, err
	}
	copy(buf, tmp[offset%bs:])
	return buf, nil
}

// NewBtrfs recognizes a BTRFS superblock by its magic at the 64 KiB
// offset. Chunk-tree and root-tree traversal are not implemented.
func NewBtrfs() vfs.Driver {
	const magic = 0x4D5F53665248425F // "_BHRfS_M", little-endian on disk
	return &stub{
		name:   "btrfs",
		offset: 0x10000,
		size:   8,
		match: func(buf []byte) bool {
			return binary.LittleEndian.Uint64(buf) == magic
		},
	}
}

// NewXFS recognizes an XFS superblock. sb_magicnum is stored big-endian
// on disk ("XFSB").
func NewXFS() vfs.Driver {
	const magic = 0x58465342
	return &stub{
		name:   "xfs",
		offset: 0,
		size:   4,
		match: func(buf []byte) bool {
			return binary.BigEndian.Uint32(buf) == magic
		},
	}
}

// NewNTFS recognizes an NTFS boot sector by its 8-byte OEM ID at offset 3.
func NewNTFS() vfs.Driver {
	return &stub{
		name:   "ntfs",
		offset: 0,
		size:   512,
		match: func(buf []byte) bool {
			return string(buf[3:11]) == "NTFS    "
		},
	}
}
