// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

// Package vfs unifies firmware-native filesystems and the built-in
// read-only drivers behind one address: (device handle, path) -> bytes.
package vfs

import (
	"fmt"

	"github.com/acer51-doctom/superboot/internal/bytesutil"
	"github.com/acer51-doctom/superboot/internal/firmware"
	"github.com/acer51-doctom/superboot/internal/status"
)

const maxMounts = 64

// Firmware is the narrow slice of firmware.Services the VFS needs: handle
// protocol lookup, block I/O, disk I/O and the native simple-filesystem
// path. Any firmware.Services value satisfies this structurally.
type Firmware interface {
	BlockIO(h firmware.Handle) (firmware.BlockIO, bool)
	DiskIO(h firmware.Handle) (firmware.DiskIO, bool)
	SimpleFileSystem(h firmware.Handle) (firmware.SimpleFileSystem, bool)
}

// Driver is a built-in read-only filesystem driver. Probe inspects the
// block device and reports whether it recognizes the on-disk format and
// is prepared to mount it; Mount performs the actual mount and returns
// opaque state that Driver methods are later called back with.
type Driver interface {
	Name() string
	Probe(block firmware.BlockIO, disk firmware.DiskIO) bool
	Mount(block firmware.BlockIO, disk firmware.DiskIO) (FSState, error)
}

// FSState is opaque per-mount state owned by a built-in Driver.
type FSState interface {
	ReadFile(path string) ([]byte, error)
	Close() error
}

type mount struct {
	native bool
	sfs    firmware.SimpleFileSystem
	driver Driver
	state  FSState
}

// VFS is the mount table keyed by device handle.
type VFS struct {
	fw      Firmware
	drivers []Driver
	mounts  map[firmware.Handle]*mount
}

// New returns an empty VFS. drivers are probed in the given order; the
// extent-tree reader should be registered before any deferring stub.
func New(fw Firmware, drivers []Driver) *VFS {
	return &VFS{fw: fw, drivers: drivers, mounts: make(map[firmware.Handle]*mount)}
}

// Open mounts device if it is not already mounted. Open is idempotent:
// calling it twice on the same handle does not grow the mount table.
func (v *VFS) Open(device firmware.Handle) error {
	if _, ok := v.mounts[device]; ok {
		return nil
	}
	if len(v.mounts) >= maxMounts {
		return status.New("vfs.Open", status.OutOfResources, nil)
	}

	if sfs, ok := v.fw.SimpleFileSystem(device); ok {
		v.mounts[device] = &mount{native: true, sfs: sfs}
		return nil
	}

	block, hasBlock := v.fw.BlockIO(device)
	if !hasBlock {
		return status.New("vfs.Open", status.Unsupported, fmt.Errorf("no block I/O on device"))
	}
	disk, _ := v.fw.DiskIO(device)

	for _, d := range v.drivers {
		if !d.Probe(block, disk) {
			continue
		}
		state, err := d.Mount(block, disk)
		if err != nil {
			continue
		}
		v.mounts[device] = &mount{driver: d, state: state}
		return nil
	}

	return status.New("vfs.Open", status.Unsupported, fmt.Errorf("no driver recognized device"))
}

// Read reads the whole file at path on device, auto-mounting on first use.
// The returned slice has length size+1 with a trailing NUL, matching the
// firmware file-read contract so config text can be treated as a C string.
func (v *VFS) Read(device firmware.Handle, path string) ([]byte, error) {
	if err := v.Open(device); err != nil {
		return nil, err
	}
	m := v.mounts[device]

	if m.native {
		return v.readNative(m, path)
	}
	return v.readBuiltin(m, path)
}

func (v *VFS) readNative(m *mount, path string) ([]byte, error) {
	root, err := m.sfs.OpenVolume()
	if err != nil {
		return nil, status.New("vfs.Read", status.Unsupported, err)
	}
	defer root.Close()

	f, err := root.Open(bytesutil.NormalizeSeparators(path))
	if err != nil {
		return nil, status.New("vfs.Read", status.NotFound, err)
	}
	defer f.Close()

	size, err := f.Size()
	if err != nil {
		return nil, status.New("vfs.Read", status.VolumeCorrupted, err)
	}

	buf := make([]byte, size+1)
	n, err := readFull(f, buf[:size])
	if err != nil {
		return nil, status.New("vfs.Read", status.VolumeCorrupted, err)
	}
	buf[n] = 0
	return buf, nil
}

func (v *VFS) readBuiltin(m *mount, path string) ([]byte, error) {
	data, err := m.state.ReadFile(bytesutil.ToDriverPath(path))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data)+1)
	copy(out, data)
	return out, nil
}

// ReadDirNames lists the file names in a directory on device's native
// filesystem. Built-in drivers have no directory-listing primitive, so on
// a built-in mount this returns Unsupported; its consumers (the
// systemd-boot-style parser's entries directory on the ESP, and the file
// explorer, which browses simple-file-system handles) read native mounts.
func (v *VFS) ReadDirNames(device firmware.Handle, path string) ([]string, error) {
	if err := v.Open(device); err != nil {
		return nil, err
	}
	m := v.mounts[device]
	if !m.native {
		return nil, status.New("vfs.ReadDirNames", status.Unsupported, nil)
	}

	root, err := m.sfs.OpenVolume()
	if err != nil {
		return nil, status.New("vfs.ReadDirNames", status.Unsupported, err)
	}
	defer root.Close()

	dir, err := root.Open(bytesutil.NormalizeSeparators(path))
	if err != nil {
		return nil, status.New("vfs.ReadDirNames", status.NotFound, err)
	}
	defer dir.Close()

	entries, err := dir.ReadDir()
	if err != nil {
		return nil, status.New("vfs.ReadDirNames", status.VolumeCorrupted, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir {
			names = append(names, e.Name)
		}
	}
	return names, nil
}

// Exists probes for path on device without returning its contents. On the
// native path this opens and closes without reading; built-in drivers
// have no existence-only primitive so this performs a full read and
// discards it, which is acceptable because probed files are configs of at
// most a few tens of KB.
func (v *VFS) Exists(device firmware.Handle, path string) bool {
	if err := v.Open(device); err != nil {
		return false
	}
	m := v.mounts[device]

	if m.native {
		root, err := m.sfs.OpenVolume()
		if err != nil {
			return false
		}
		defer root.Close()
		f, err := root.Open(bytesutil.NormalizeSeparators(path))
		if err != nil {
			return false
		}
		f.Close()
		return true
	}

	_, err := m.state.ReadFile(bytesutil.ToDriverPath(path))
	return err == nil
}

// CloseAll releases every built-in driver's state and empties the mount
// table. Native mounts carry no owned state.
func (v *VFS) CloseAll() {
	for h, m := range v.mounts {
		if !m.native && m.state != nil {
			m.state.Close()
		}
		delete(v.mounts, h)
	}
}

func readFull(f firmware.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		total += n
		if n == 0 || err != nil {
			if err != nil {
				return total, err
			}
			break
		}
	}
	return total, nil
}
