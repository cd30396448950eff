// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

// Package extfs is a read-only driver for an inode-indexed, extent-mapped
// Unix filesystem in the ext family: superblock, group descriptors, inode
// table, depth-0 extent leaves and directory scan. It implements
// vfs.Driver/vfs.FSState so the VFS can mount it like any other built-in
// filesystem.
package extfs

import (
	"bytes"
	"encoding/binary"

	"github.com/dsoprea/go-logging"

	"github.com/acer51-doctom/superboot/internal/status"
)

const (
	superMagic       = 0xEF53
	superblockOffset = 1024
	rootInode        = 2
	extentMagic      = 0xF30A
	extentsFlag      = 0x00080000
	dirEntryDir      = 2

	uninitializedBias = 32768
)

// superblock mirrors the on-disk layout through s_last_mounted; of the
// fields past s_def_resgid only s_inode_size is consulted (group-descriptor
// size and checksum metadata are out of scope for a read-only boot-time
// loader).
type superblock struct {
	InodesCount       uint32
	BlocksCountLo     uint32
	RBlocksCountLo    uint32
	FreeBlocksCountLo uint32
	FreeInodesCount   uint32
	FirstDataBlock    uint32
	LogBlockSize      uint32
	LogClusterSize    uint32
	BlocksPerGroup    uint32
	ClustersPerGroup  uint32
	InodesPerGroup    uint32
	Mtime             uint32
	Wtime             uint32
	MntCount          uint16
	MaxMntCount       uint16
	Magic             uint16
	State             uint16
	Errors            uint16
	MinorRevLevel     uint16
	Lastcheck         uint32
	Checkinterval     uint32
	CreatorOS         uint32
	RevLevel          uint32
	DefResuid         uint16
	DefResgid         uint16

	FirstIno       uint32
	InodeSize      uint16
	BlockGroupNr   uint16
	FeatureCompat  uint32
	FeatureIncompat uint32
	FeatureRoCompat uint32
	UUID           [16]byte
	VolumeName     [16]byte
	LastMounted    [64]byte
}

func parseSuperblock(buf []byte) (*superblock, error) {
	var sb superblock
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &sb); err != nil {
		log.Warningf(nil, "extfs: superblock decode failed: %v", err)
		return nil, status.New("extfs.parseSuperblock", status.VolumeCorrupted, err)
	}
	if sb.Magic != superMagic {
		return nil, status.New("extfs.parseSuperblock", status.NotFound, nil)
	}
	return &sb, nil
}

func (sb *superblock) blockSize() uint32 {
	return 1024 << sb.LogBlockSize
}

// inodeSize returns the on-disk inode record size: 128 bytes for revision-0
// filesystems, s_inode_size for dynamic-revision ones.
func (sb *superblock) inodeSize() uint32 {
	if sb.RevLevel >= 1 {
		return uint32(sb.InodeSize)
	}
	return 128
}

// groupDescSize is hard-coded to the 32-byte legacy descriptor regardless of
// the 64BIT incompatible feature flag. Filesystems built with 64-bit group
// descriptors will mislocate every inode table past the first group; this
// mirrors the original loader's behavior rather than adding the 64BIT check.
func (sb *superblock) groupDescSize() uint32 {
	return 32
}
