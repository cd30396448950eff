// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package extfs

import (
	"github.com/acer51-doctom/superboot/internal/firmware"
)

// blockReader reads filesystem blocks through DiskIO when available
// (byte-addressable, no alignment concerns) and falls back to BlockIO with
// sector-aligned reads otherwise.
type blockReader struct {
	block     firmware.BlockIO
	disk      firmware.DiskIO
	blockSize uint32
}

func (r *blockReader) readBlock(block uint64) ([]byte, error) {
	return r.readBytes(block*uint64(r.blockSize), int(r.blockSize))
}

func (r *blockReader) readBytes(offset uint64, size int) ([]byte, error) {
	buf := make([]byte, size)
	if r.disk != nil {
		if err := r.disk.ReadDisk(r.block.MediaID(), offset, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}

	bs := uint64(r.block.BlockSize())
	startLBA := offset / bs
	endLBA := (offset + uint64(size) + bs - 1) / bs
	total := (endLBA - startLBA) * bs

	tmp := make([]byte, total)
	if err := r.block.ReadBlocks(startLBA, tmp); err != nil {
		return nil, err
	}
	copy(buf, tmp[offset%bs:])
	return buf, nil
}

// readSuperblockBytes reads the raw bytes at the fixed superblock offset,
// using a full sector (or 2048 bytes, whichever is larger) when only
// BlockIO is available so the offset stays sector-aligned.
func readSuperblockBytes(block firmware.BlockIO, disk firmware.DiskIO) ([]byte, error) {
	if disk != nil {
		buf := make([]byte, 1024) // superblock's fixed-layout prefix this driver reads
		if err := disk.ReadDisk(block.MediaID(), superblockOffset, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}

	bs := block.BlockSize()
	readSize := bs
	if readSize < 2048 {
		readSize = 2048
	}
	lba := uint64(superblockOffset) / uint64(bs)
	tmp := make([]byte, readSize)
	if err := block.ReadBlocks(lba, tmp); err != nil {
		return nil, err
	}
	start := superblockOffset % bs
	end := start + 1024
	if int(end) > len(tmp) {
		end = uint32(len(tmp))
	}
	return tmp[start:end], nil
}
