// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

//go:build !test

package deploy

import (
	"errors"

	efi "github.com/canonical/go-efilib"

	"github.com/acer51-doctom/superboot/internal/firmware"
)

var errNotAFileSystem = errors.New("deploy: handle does not expose a simple file system")

// RealFirmware implements Firmware directly against go-efilib, the same
// way internal/firmware's own efiServices does, adding only the
// whole-file write primitive this collaborator alone needs.
type RealFirmware struct {
	firmware.Services
}

// NewRealFirmware wraps an existing firmware.Services adapter, reusing its
// Handles/BlockIO/LoadedImage/variable methods and adding the file-write
// primitive this package alone needs.
func NewRealFirmware(svc firmware.Services) RealFirmware {
	return RealFirmware{Services: svc}
}

func (RealFirmware) ReadFile(h firmware.Handle, path string) ([]byte, error) {
	proto, err := efi.OpenProtocol(h, efi.SimpleFileSystemProtocolGUID)
	if err != nil {
		return nil, err
	}
	sfs, ok := proto.(*efi.SimpleFileSystemProtocol)
	if !ok {
		return nil, errNotAFileSystem
	}
	root, err := sfs.OpenVolume()
	if err != nil {
		return nil, err
	}
	defer root.Close()

	f, err := root.Open(path, efi.FileModeRead, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.GetInfo()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, info.FileSize)
	if _, err := f.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (RealFirmware) WriteFile(h firmware.Handle, path string, data []byte) error {
	proto, err := efi.OpenProtocol(h, efi.SimpleFileSystemProtocolGUID)
	if err != nil {
		return err
	}
	sfs, ok := proto.(*efi.SimpleFileSystemProtocol)
	if !ok {
		return errNotAFileSystem
	}
	root, err := sfs.OpenVolume()
	if err != nil {
		return err
	}
	defer root.Close()

	// Best-effort directory creation, matching deploy.c's own
	// not-fatal-if-it-already-exists handling of \EFI\superboot.
	if dir, err := root.Open(deployDir, efi.FileModeRead|efi.FileModeWrite|efi.FileModeCreate, efi.FileAttrDirectory); err == nil {
		dir.Close()
	}

	dst, err := root.Open(path, efi.FileModeRead|efi.FileModeWrite|efi.FileModeCreate, 0)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = dst.Write(data)
	return err
}
