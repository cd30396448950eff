// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package extfs

import (
	"bytes"
	"encoding/binary"

	"github.com/acer51-doctom/superboot/internal/status"
)

// extentHeader is the 12-byte header at the start of an in-inode extent
// tree.
type extentHeader struct {
	Magic      uint16
	Entries    uint16
	Max        uint16
	Depth      uint16
	Generation uint32
}

// extent is one leaf extent: a contiguous run of physical blocks backing a
// run of logical blocks starting at Block.
type extent struct {
	Block   uint32
	Len     uint16
	StartHi uint16
	StartLo uint32
}

func (e extent) physicalStart() uint64 {
	return uint64(e.StartHi)<<32 | uint64(e.StartLo)
}

// length returns the true block count, undoing the uninitialized-extent
// bias ext4 adds to ee_len values above 32768.
func (e extent) length() uint32 {
	l := uint32(e.Len)
	if l > uninitializedBias {
		l -= uninitializedBias
	}
	return l
}

// readFileData assembles a file's contents from its inode's extent tree.
// Only depth-0 trees (a single leaf, no index nodes) are supported.
func readFileData(c *blockReader, ino *inode, size uint64) ([]byte, error) {
	if !ino.hasExtents() {
		return nil, status.New("extfs.readFileData", status.Unsupported, nil)
	}

	r := bytes.NewReader(ino.IBlock[:])
	var eh extentHeader
	if err := binary.Read(r, binary.LittleEndian, &eh); err != nil {
		return nil, status.New("extfs.readFileData", status.VolumeCorrupted, err)
	}
	if eh.Magic != extentMagic {
		return nil, status.New("extfs.readFileData", status.VolumeCorrupted, nil)
	}
	if eh.Depth != 0 {
		return nil, status.New("extfs.readFileData", status.Unsupported, nil)
	}

	out := make([]byte, size)
	remaining := size
	pos := uint64(0)

	for i := uint16(0); i < eh.Entries && remaining > 0; i++ {
		var ext extent
		if err := binary.Read(r, binary.LittleEndian, &ext); err != nil {
			return nil, status.New("extfs.readFileData", status.VolumeCorrupted, err)
		}

		phys := ext.physicalStart()
		lenBlocks := ext.length()
		blockSize := uint64(c.blockSize)

		for b := uint32(0); b < lenBlocks && remaining > 0; b++ {
			toRead := blockSize
			if remaining < toRead {
				toRead = remaining
			}
			block, err := c.readBlock(phys + uint64(b))
			if err != nil {
				return nil, status.New("extfs.readFileData", status.VolumeCorrupted, err)
			}
			copy(out[pos:pos+toRead], block[:toRead])
			pos += toRead
			remaining -= toRead
		}
	}

	return out, nil
}
