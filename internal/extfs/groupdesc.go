// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package extfs

import (
	"bytes"
	"encoding/binary"
)

// groupDesc mirrors the 32-byte legacy block group descriptor.
type groupDesc struct {
	BlockBitmapLo     uint32
	InodeBitmapLo     uint32
	InodeTableLo      uint32
	FreeBlocksCountLo uint16
	FreeInodesCountLo uint16
	UsedDirsCountLo   uint16
	Flags             uint16
	ExcludeBitmapLo   uint32
	BlockBitmapCsumLo uint16
	InodeBitmapCsumLo uint16
	ItableUnusedLo    uint16
	Checksum          uint16
}

func parseGroupDesc(buf []byte) (*groupDesc, error) {
	var gd groupDesc
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &gd); err != nil {
		return nil, err
	}
	return &gd, nil
}
