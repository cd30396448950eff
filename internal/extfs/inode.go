// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package extfs

import (
	"bytes"
	"encoding/binary"
)

// inode mirrors the 128-byte base inode record. IBlock carries either the
// indirect-block pointer array (unsupported here) or, when EXTENTS is set,
// an extent header followed by up to four leaf extents.
type inode struct {
	Mode        uint16
	UID         uint16
	SizeLo      uint32
	Atime       uint32
	Ctime       uint32
	Mtime       uint32
	Dtime       uint32
	GID         uint16
	LinksCount  uint16
	BlocksLo    uint32
	Flags       uint32
	OSD1        uint32
	IBlock      [60]byte
	Generation  uint32
	FileACLLo   uint32
	SizeHigh    uint32
	ObsoFaddr   uint32
	OSD2        [12]byte
}

func parseInode(buf []byte) (*inode, error) {
	var ino inode
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &ino); err != nil {
		return nil, err
	}
	return &ino, nil
}

func (i *inode) size() uint64 {
	return uint64(i.SizeHigh)<<32 | uint64(i.SizeLo)
}

func (i *inode) hasExtents() bool {
	return i.Flags&extentsFlag != 0
}

func (i *inode) isDir() bool {
	const s_ifmt = 0xF000
	const s_ifdir = 0x4000
	return i.Mode&s_ifmt == s_ifdir
}
