// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package extfs

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/acer51-doctom/superboot/internal/status"
)

type fakeBlockIO struct{ mediaID uint32 }

func (f fakeBlockIO) MediaID() uint32             { return f.mediaID }
func (fakeBlockIO) BlockSize() uint32             { return 512 }
func (fakeBlockIO) LogicalPartition() bool        { return true }
func (fakeBlockIO) MediaPresent() bool            { return true }
func (fakeBlockIO) ReadBlocks(uint64, []byte) error { return nil }

type fakeDisk struct{ image []byte }

func (d *fakeDisk) ReadDisk(mediaID uint32, offset uint64, buf []byte) error {
	n := copy(buf, d.image[offset:])
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return nil
}

const blockSize = 4096

func putU16(img []byte, off int, v uint16) { binary.LittleEndian.PutUint16(img[off:], v) }
func putU32(img []byte, off int, v uint32) { binary.LittleEndian.PutUint32(img[off:], v) }

// buildImage assembles a minimal single-group ext4-style image with a root
// directory containing one entry, "vmlinuz", whose inode's extent describes
// the physical blocks given by extStart/extLen/fileSize.
func buildImage(extStart uint32, extLen uint16, fileSize uint32, fill byte) []byte {
	trueLen := uint32(extLen)
	if trueLen > uninitializedBias {
		trueLen -= uninitializedBias
	}
	img := make([]byte, int(extStart+trueLen+4)*blockSize)

	// Superblock at offset 1024.
	sbOff := superblockOffset
	putU32(img, sbOff+0x14, 0)    // s_first_data_block = 0
	putU32(img, sbOff+0x18, 2)    // s_log_block_size = 2 -> block size 4096
	putU32(img, sbOff+0x28, 32)   // s_inodes_per_group
	putU16(img, sbOff+0x38, superMagic)
	putU32(img, sbOff+0x4C, 0) // s_rev_level = 0 -> inode size fixed at 128

	// Group descriptor at block 1 (offset 4096): bg_inode_table_lo = block 2.
	gdOff := 1 * blockSize
	putU32(img, gdOff+8, 2) // bg_inode_table_lo = block 2

	// Root inode (ino=2) at inode table block 2, index (2-1)%32=1.
	inodeTableOff := 2 * blockSize
	rootOff := inodeTableOff + 1*128
	putU16(img, rootOff+0, 0x4000) // mode: directory
	putU32(img, rootOff+4, 34)     // i_size_lo: directory data length
	putU32(img, rootOff+32, extentsFlag)
	// extent header + one leaf extent in i_block, pointing at block 4 (dir data).
	ebOff := rootOff + 40 // offsetof(i_block) in our struct layout
	putU16(img, ebOff+0, extentMagic)
	putU16(img, ebOff+2, 1) // eh_entries
	putU16(img, ebOff+4, 4) // eh_max
	putU16(img, ebOff+6, 0) // eh_depth
	putU32(img, ebOff+8, 0)
	putU32(img, ebOff+12, 0) // ee_block
	putU16(img, ebOff+16, 1) // ee_len
	putU16(img, ebOff+18, 0) // ee_start_hi
	putU32(img, ebOff+20, 4) // ee_start_lo: dir data at block 4

	// Target inode (ino=3) at index (3-1)%32=2.
	fileOff := inodeTableOff + 2*128
	putU16(img, fileOff+0, 0x8000) // mode: regular file
	putU32(img, fileOff+4, fileSize)
	putU32(img, fileOff+32, extentsFlag)
	feOff := fileOff + 40
	putU16(img, feOff+0, extentMagic)
	putU16(img, feOff+2, 1)
	putU16(img, feOff+4, 4)
	putU16(img, feOff+6, 0)
	putU32(img, feOff+8, 0)
	putU32(img, feOff+12, 0)
	putU16(img, feOff+16, extLen)
	putU16(img, feOff+18, 0)
	putU32(img, feOff+20, extStart)

	// Root directory data block 4: "." -> 2, ".." -> 2, "vmlinuz" -> 3.
	dirOff := 4 * blockSize
	writeDirEntry(img, &dirOff, 2, ".")
	writeDirEntry(img, &dirOff, 2, "..")
	writeDirEntry(img, &dirOff, 3, "vmlinuz")

	// File data blocks.
	for b := uint32(0); b < trueLen; b++ {
		start := int(extStart+b) * blockSize
		for i := 0; i < blockSize; i++ {
			img[start+i] = fill
		}
	}

	return img
}

func writeDirEntry(img []byte, off *int, ino uint32, name string) {
	recLen := 8 + len(name)
	putU32(img, *off, ino)
	putU16(img, *off+4, uint16(recLen))
	img[*off+6] = byte(len(name))
	img[*off+7] = 1 // file type: regular (unused by our lookup)
	copy(img[*off+8:], name)
	*off += recLen
}

func TestExtentRead(t *testing.T) {
	// Spec scenario: block=4096, one extent {ee_block=0, ee_len=3, ee_start=100}, i_size_lo=9000.
	img := buildImage(100, 3, 9000, 0xAB)
	disk := &fakeDisk{image: img}
	block := fakeBlockIO{mediaID: 1}

	drv := NewDriver()
	if !drv.Probe(block, disk) {
		t.Fatal("expected probe to recognize image")
	}
	state, err := drv.Mount(block, disk)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	defer state.Close()

	data, err := state.ReadFile("/vmlinuz")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) != 9001 {
		t.Fatalf("expected 9001 bytes (9000 + trailing NUL), got %d", len(data))
	}
	if data[9000] != 0 {
		t.Fatalf("expected trailing NUL at index 9000, got %d", data[9000])
	}
	if !bytes.Equal(data[:9000], bytes.Repeat([]byte{0xAB}, 9000)) {
		t.Fatal("file content mismatch")
	}
}

func TestUninitializedExtentLength(t *testing.T) {
	// ee_len=32770 must be interpreted as length 2.
	img := buildImage(100, 32770, blockSize*2, 0xCD)
	disk := &fakeDisk{image: img}
	block := fakeBlockIO{mediaID: 1}

	drv := NewDriver()
	state, err := drv.Mount(block, disk)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	defer state.Close()

	data, err := state.ReadFile("/vmlinuz")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) != blockSize*2+1 {
		t.Fatalf("expected %d bytes, got %d", blockSize*2+1, len(data))
	}
}

func TestReadFileNotFound(t *testing.T) {
	img := buildImage(100, 1, 10, 0x01)
	disk := &fakeDisk{image: img}
	block := fakeBlockIO{mediaID: 1}

	drv := NewDriver()
	state, err := drv.Mount(block, disk)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	defer state.Close()

	_, err = state.ReadFile("/nope")
	if !status.Is(err, status.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestReadFileRejectsNonDirectoryMiddleComponent(t *testing.T) {
	img := buildImage(100, 1, 10, 0x01)
	disk := &fakeDisk{image: img}
	block := fakeBlockIO{mediaID: 1}

	drv := NewDriver()
	state, err := drv.Mount(block, disk)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	defer state.Close()

	// "vmlinuz" is a regular file; walking past it must fail rather than
	// reading its content as directory entries.
	_, err = state.ReadFile("/vmlinuz/extra")
	if !status.Is(err, status.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestProbeRejectsBadMagic(t *testing.T) {
	img := make([]byte, blockSize*4)
	disk := &fakeDisk{image: img}
	block := fakeBlockIO{mediaID: 1}

	drv := NewDriver()
	if drv.Probe(block, disk) {
		t.Fatal("expected probe to reject an image with no ext magic")
	}
}
