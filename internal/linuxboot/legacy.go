// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package linuxboot

import (
	"unsafe"

	"github.com/acer51-doctom/superboot/internal/firmware"
	"github.com/acer51-doctom/superboot/internal/status"
)

const defaultKernelAddress = 0x100000 // 1 MiB

// bootLegacyBzImage prepares a zero page, relocates the protected-mode
// kernel to its preferred (or a relocated) physical address, captures
// the firmware memory map as E820, calls ExitBootServices, and jumps to
// the kernel's 64-bit entry point. Everything after ExitBootServices
// succeeds is the point of no return: no further Firmware calls are
// permitted, matching boot_legacy_bzimage exactly.
func bootLegacyBzImage(fw Firmware, kernel []byte, cmdline string, initrdAddr, initrdSize uint32) error {
	ssize := setupSize(kernel)
	rawSize := len(kernel) - ssize

	zp := NewZeroPage(kernel[offSetupHeader : offSetupHeader+setupHeaderSize])
	zp.SetInitrd(initrdAddr, initrdSize)
	if err := setCmdLine(fw, zp, cmdline); err != nil {
		return err
	}

	kernelAddr := prefAddress(kernel)
	if kernelAddr == 0 {
		kernelAddr = defaultKernelAddress
	}
	pages := uint64((rawSize + pageSize - 1) / pageSize)

	addr, err := fw.AllocatePages(firmware.AllocFixed, pages, kernelAddr)
	if err != nil {
		if !relocatable(kernel) {
			return status.New("linuxboot.bootLegacyBzImage", status.OutOfResources, err)
		}
		addr, err = fw.AllocatePages(firmware.AllocAny, pages, 0)
		if err != nil {
			return status.New("linuxboot.bootLegacyBzImage", status.OutOfResources, err)
		}
	}

	copyToPhysical(addr, kernel[ssize:])
	zp.SetCode32Start(uint32(addr))

	if err := captureMemoryMapAndExit(fw, zp); err != nil {
		return status.New("linuxboot.bootLegacyBzImage", status.LoadError, err)
	}

	entry := callAtAddress[legacyEntry](uintptr(addr))
	entry(unsafe.Pointer(zp), nil)

	// Unreached; entry does not return.
	return status.New("linuxboot.bootLegacyBzImage", status.LoadError, nil)
}

// captureMemoryMapAndExit fetches the current memory map, writes it to
// the zero page as E820, and calls ExitBootServices. GetMemoryMap and
// ExitBootServices must use the same map key from the same call; any
// intervening allocation invalidates it, so on the first failure this
// re-fetches the map (without allocating again) and retries exactly
// once, matching boot_legacy_bzimage's retry comment.
func captureMemoryMapAndExit(fw Firmware, zp *ZeroPage) error {
	mmap, err := fw.GetMemoryMap()
	if err != nil {
		return err
	}
	zp.SetE820(buildE820(mmap))

	if err := fw.ExitBootServices(mmap.MapKey); err == nil {
		return nil
	}

	mmap, err = fw.GetMemoryMap()
	if err != nil {
		return err
	}
	zp.SetE820(buildE820(mmap))
	if err := fw.ExitBootServices(mmap.MapKey); err != nil {
		return status.New("linuxboot.captureMemoryMapAndExit", status.Transient, err)
	}
	return nil
}
