// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

// Package measure computes a TPM PCR protection profile over the boot
// chain a scan discovered, so that an already-sealed disk-encryption key
// (left on the ESP by the OS's own provisioning, in the same place
// nullboot's reseal step expects it) can later be resealed against
// exactly the assets this boot actually selected.
package measure

import (
	"io"

	"github.com/acer51-doctom/superboot/internal/firmware"
)

// VFS is the narrow file-reading surface this package needs; both
// internal/scanner.VFS and internal/vfs.VFS satisfy it structurally.
type VFS interface {
	Read(device firmware.Handle, path string) ([]byte, error)
}

// asset is the in-memory backing for a measured image. Unlike nullboot's
// efiImageFile, this keeps no leaf-hash tree and performs no trusted-hash
// check: SuperBoot has no installed-package manifest to check boot
// assets against, so it measures whatever the scan found, the same way
// it boots whatever the scan found.
type asset struct {
	data []byte
}

func (a *asset) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(a.data)) {
		return 0, io.EOF
	}
	n := copy(p, a.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (a *asset) Close() error { return nil }

func (a *asset) Size() int64 { return int64(len(a.data)) }

// image implements secboot_efi.Image by reading a whole boot asset from
// the VFS into memory up front. Boot assets are small enough (kernels,
// initrds, chainloaded EFI binaries) that streaming reads bring no real
// benefit here, and a flat byte slice is simplest to get right without a
// toolchain to check it against.
type image struct {
	vfs    VFS
	device firmware.Handle
	path   string
}

func newImage(vfs VFS, device firmware.Handle, path string) *image {
	return &image{vfs: vfs, device: device, path: path}
}

func (i *image) String() string {
	return i.path
}

func (i *image) Open() (interface {
	io.ReaderAt
	io.Closer
	Size() int64
}, error) {
	data, err := i.vfs.Read(i.device, i.path)
	if err != nil {
		return nil, err
	}
	return &asset{data: data}, nil
}
