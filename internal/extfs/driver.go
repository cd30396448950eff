// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package extfs

import (
	"fmt"

	"github.com/acer51-doctom/superboot/internal/firmware"
	"github.com/acer51-doctom/superboot/internal/status"
	"github.com/acer51-doctom/superboot/internal/vfs"
)

// fsContext is the mounted-filesystem state handed back by Mount and
// threaded through every subsequent ReadFile call.
type fsContext struct {
	br         *blockReader
	sb         *superblock
	inodeSize  uint32
	gdSize     uint32
}

// Driver is the vfs.Driver implementation for this filesystem family.
type Driver struct{}

// NewDriver returns a Driver ready to register with vfs.New. Register it
// before any deferring filesystem stub so it gets first refusal.
func NewDriver() *Driver { return &Driver{} }

func (Driver) Name() string { return "extfs" }

func (Driver) Probe(block firmware.BlockIO, disk firmware.DiskIO) bool {
	buf, err := readSuperblockBytes(block, disk)
	if err != nil {
		return false
	}
	sb, err := parseSuperblock(buf)
	return err == nil && sb != nil
}

func (Driver) Mount(block firmware.BlockIO, disk firmware.DiskIO) (vfs.FSState, error) {
	buf, err := readSuperblockBytes(block, disk)
	if err != nil {
		return nil, status.New("extfs.Mount", status.VolumeCorrupted, err)
	}
	sb, err := parseSuperblock(buf)
	if err != nil {
		return nil, err
	}

	br := &blockReader{block: block, disk: disk, blockSize: sb.blockSize()}
	return &fsContext{
		br:        br,
		sb:        sb,
		inodeSize: sb.inodeSize(),
		gdSize:    sb.groupDescSize(),
	}, nil
}

// readInode loads inode number ino (1-indexed; root is inode 2).
func (c *fsContext) readInode(ino uint32) (*inode, error) {
	group := (ino - 1) / c.sb.InodesPerGroup
	index := (ino - 1) % c.sb.InodesPerGroup

	gdOffset := uint64(c.sb.FirstDataBlock+1)*uint64(c.sb.blockSize()) + uint64(group)*uint64(c.gdSize)
	gdBuf, err := c.br.readBytes(gdOffset, int(c.gdSize))
	if err != nil {
		return nil, status.New("extfs.readInode", status.VolumeCorrupted, err)
	}
	gd, err := parseGroupDesc(gdBuf)
	if err != nil {
		return nil, status.New("extfs.readInode", status.VolumeCorrupted, err)
	}

	inodeOffset := uint64(gd.InodeTableLo)*uint64(c.sb.blockSize()) + uint64(index)*uint64(c.inodeSize)
	inoBuf, err := c.br.readBytes(inodeOffset, 128)
	if err != nil {
		return nil, status.New("extfs.readInode", status.VolumeCorrupted, err)
	}
	return parseInode(inoBuf)
}

func (c *fsContext) readFile(ino *inode) ([]byte, error) {
	return readFileData(c.br, ino, ino.size())
}

// ReadFile resolves path, reads the backing inode and returns its content
// with a trailing NUL appended so config text doubles as a C string.
func (c *fsContext) ReadFile(path string) ([]byte, error) {
	ino, err := resolvePath(c, path)
	if err != nil {
		return nil, status.New("extfs.ReadFile", status.VolumeCorrupted, err)
	}
	if ino == 0 {
		return nil, status.New("extfs.ReadFile", status.NotFound, fmt.Errorf("%s: no such file", path))
	}

	inode, err := c.readInode(ino)
	if err != nil {
		return nil, err
	}

	data, err := c.readFile(inode)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(data)+1)
	copy(out, data)
	return out, nil
}

func (c *fsContext) Close() error { return nil }
