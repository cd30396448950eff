// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

// Package chainload implements the external chain-load collaborator spec
// §1 carves out of the core ("EFI chain-loading of arbitrary PE images...
// specified only by the operations the core needs from it"): read a
// chosen .efi file off the VFS and hand control to it via the firmware's
// own LoadImage/StartImage pair.
package chainload

import (
	"fmt"

	"github.com/acer51-doctom/superboot/internal/bootentry"
	"github.com/acer51-doctom/superboot/internal/firmware"
	"github.com/acer51-doctom/superboot/internal/status"
)

// VFS is the narrow slice this package needs to read the target image.
type VFS interface {
	Read(device firmware.Handle, path string) ([]byte, error)
}

// Firmware is the narrow slice of firmware.Services this package needs:
// resolve the target's own device path, then load and start it.
type Firmware interface {
	DevicePathString(h firmware.Handle) (string, error)
	LoadImage(devicePath string, image []byte) (firmware.Handle, error)
	StartImage(h firmware.Handle) error
	UnloadImage(h firmware.Handle) error
}

// Boot reads target's EFIPath off its DeviceHandle, loads it as a PE
// image against a device path built from the firmware's own
// DevicePathString, and starts it. If StartImage returns (rather than
// never returning, as a successful chain-load would), the loaded image
// is unloaded before the error propagates, so a failed chain-load never
// leaks a loaded-image handle.
func Boot(fw Firmware, fs VFS, target bootentry.Entry) error {
	if !target.IsChainload {
		return status.New("chainload.Boot", status.InvalidParameter, fmt.Errorf("entry is not a chainload target"))
	}

	image, err := fs.Read(target.DeviceHandle, target.EFIPath)
	if err != nil {
		return status.New("chainload.Boot", status.LoadError, err)
	}

	base, err := fw.DevicePathString(target.DeviceHandle)
	if err != nil {
		return status.New("chainload.Boot", status.LoadError, err)
	}

	h, err := fw.LoadImage(base+target.EFIPath, image)
	if err != nil {
		return status.New("chainload.Boot", status.LoadError, err)
	}

	if err := fw.StartImage(h); err != nil {
		_ = fw.UnloadImage(h)
		return status.New("chainload.Boot", status.LoadError, err)
	}

	// A successful StartImage of a well-behaved chain-loaded boot
	// manager never returns; reaching here means it did, which the
	// caller treats exactly like any other boot failure.
	_ = fw.UnloadImage(h)
	return status.New("chainload.Boot", status.LoadError, fmt.Errorf("chain-loaded image returned"))
}
