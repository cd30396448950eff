// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package fsprobe

import (
	"encoding/binary"
	"testing"

	"github.com/acer51-doctom/superboot/internal/status"
)

type fakeBlockIO struct{}

func (fakeBlockIO) MediaID() uint32               { return 1 }
func (fakeBlockIO) BlockSize() uint32              { return 512 }
func (fakeBlockIO) LogicalPartition() bool         { return true }
func (fakeBlockIO) MediaPresent() bool             { return true }
func (fakeBlockIO) ReadBlocks(uint64, []byte) error { return nil }

type fakeDisk struct{ image []byte }

func (d *fakeDisk) ReadDisk(mediaID uint32, offset uint64, buf []byte) error {
	copy(buf, d.image[offset:])
	return nil
}

func TestBtrfsProbeMatches(t *testing.T) {
	img := make([]byte, 0x10000+8)
	binary.LittleEndian.PutUint64(img[0x10000:], 0x4D5F53665248425F)
	disk := &fakeDisk{image: img}

	drv := NewBtrfs()
	if !drv.Probe(fakeBlockIO{}, disk) {
		t.Fatal("expected btrfs probe to match")
	}
	_, err := drv.Mount(fakeBlockIO{}, disk)
	if !status.Is(err, status.Unsupported) {
		t.Fatalf("expected Unsupported from Mount, got %v", err)
	}
}

func TestXFSProbeMatches(t *testing.T) {
	img := make([]byte, 4)
	binary.BigEndian.PutUint32(img, 0x58465342)
	disk := &fakeDisk{image: img}

	drv := NewXFS()
	if !drv.Probe(fakeBlockIO{}, disk) {
		t.Fatal("expected xfs probe to match")
	}
}

func TestNTFSProbeMatches(t *testing.T) {
	img := make([]byte, 512)
	copy(img[3:], "NTFS    ")
	disk := &fakeDisk{image: img}

	drv := NewNTFS()
	if !drv.Probe(fakeBlockIO{}, disk) {
		t.Fatal("expected ntfs probe to match")
	}
}

func TestProbeRejectsWrongMagic(t *testing.T) {
	img := make([]byte, 0x10000+8)
	disk := &fakeDisk{image: img}

	if NewBtrfs().Probe(fakeBlockIO{}, disk) {
		t.Fatal("expected btrfs probe to reject zeroed image")
	}
}
