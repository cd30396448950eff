// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package linuxboot

import (
	"unsafe"

	"github.com/acer51-doctom/superboot/internal/bootentry"
	"github.com/acer51-doctom/superboot/internal/e820"
	"github.com/acer51-doctom/superboot/internal/firmware"
	"github.com/acer51-doctom/superboot/internal/status"
)

var (
	errShortKernel = status.New("linuxboot", status.InvalidParameter, nil)
	errBadBootFlag = status.New("linuxboot", status.InvalidParameter, nil)
	errBadMagic    = status.New("linuxboot", status.InvalidParameter, nil)
)

// VFS is the narrow slice linuxboot needs to read a kernel and its
// initrds; *vfs.VFS satisfies it.
type VFS interface {
	Read(device firmware.Handle, path string) ([]byte, error)
}

// Firmware is the narrow slice of firmware.Services the hand-off paths
// need: page allocation for the kernel and initrd regions, a pool
// allocator for the command line, and the memory-map/ExitBootServices
// pair the legacy path drives directly.
type Firmware interface {
	AllocatePages(policy firmware.AllocPolicy, pages uint64, addr uint64) (uint64, error)
	FreePages(addr uint64, pages uint64) error
	AllocatePool(size int) []byte
	GetMemoryMap() (firmware.MemoryMap, error)
	ExitBootServices(mapKey uint64) error
}

// maxInitrdAddress keeps the initrd region addressable by the 32-bit
// ramdisk_image field when initrd_addr_max is itself 32-bit.
const maxInitrdAddress = 0xFFFFFFFF

// Boot loads target's kernel and initrds from device, validates the
// setup header, and hands off to the kernel via the EFI handover
// protocol when the kernel supports it, falling back to the legacy
// bzImage protocol otherwise. imageHandle and systemTable are the raw
// firmware values the handover entry point itself requires; they are
// threaded through from the orchestrator rather than exposed by the
// Firmware interface, which otherwise never leaks firmware-native
// pointer types to the rest of the program.
func Boot(fw Firmware, fs VFS, target bootentry.Entry, imageHandle firmware.Handle, systemTable unsafe.Pointer) error {
	kernel, err := fs.Read(target.DeviceHandle, target.KernelPath)
	if err != nil {
		return status.New("linuxboot.Boot", status.LoadError, err)
	}
	kernel = trimNUL(kernel)

	if err := validateSetupHeader(kernel); err != nil {
		return err
	}

	initrdAddr, initrdSize, err := loadInitrds(fw, fs, target)
	if err != nil {
		// Matches sb_boot_linux: an initrd load failure is a warning,
		// not a fatal error — boot continues without one.
		initrdAddr, initrdSize = 0, 0
	}

	if version(kernel) >= minHandoverVersion && handoverOffset(kernel) != 0 {
		err := bootEFIHandover(fw, kernel, target.Cmdline, initrdAddr, initrdSize, imageHandle, systemTable)
		if !status.Is(err, status.Unsupported) {
			return err
		}
	}

	return bootLegacyBzImage(fw, kernel, target.Cmdline, initrdAddr, initrdSize)
}

func trimNUL(data []byte) []byte {
	if n := len(data); n > 0 && data[n-1] == 0 {
		return data[:n-1]
	}
	return data
}

// buildE820 converts fw's current memory map to the zero-page's E820
// representation, bridging internal/e820's Entry to this package's
// unexported wire-format mirror.
func buildE820(mmap firmware.MemoryMap) []e820Entry {
	src := e820.FromMemoryMap(mmap)
	out := make([]e820Entry, len(src))
	for i, e := range src {
		out[i] = e820Entry{Addr: e.Addr, Size: e.Size, Type: uint32(e.Type)}
	}
	return out
}
