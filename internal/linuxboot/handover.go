// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package linuxboot

import (
	"unsafe"

	"github.com/acer51-doctom/superboot/internal/firmware"
	"github.com/acer51-doctom/superboot/internal/status"
)

// bootEFIHandover prepares a zero page and jumps to the kernel's EFI
// handover entry point, keeping boot services alive so the kernel's own
// EFI stub can tear them down itself. Returns a status.Unsupported error
// if the kernel lacks a handover offset (checked by the caller before
// this is invoked) — in practice this function never returns at all on
// success, matching boot_efi_handover's "does not return" contract.
func bootEFIHandover(fw Firmware, kernel []byte, cmdline string, initrdAddr, initrdSize uint32, imageHandle firmware.Handle, systemTable unsafe.Pointer) error {
	ho := handoverOffset(kernel)
	if ho == 0 {
		return status.New("linuxboot.bootEFIHandover", status.Unsupported, nil)
	}

	ssize := setupSize(kernel)
	zp := NewZeroPage(kernel[offSetupHeader : offSetupHeader+setupHeaderSize])
	zp.SetInitrd(initrdAddr, initrdSize)

	if err := setCmdLine(fw, zp, cmdline); err != nil {
		return err
	}

	kernelBase := uintptr(unsafe.Pointer(&kernel[ssize]))
	entryAddr := kernelBase + uintptr(ho) + 512

	entry := callAtAddress[handoverEntry](entryAddr)
	entry(imageHandle, systemTable, unsafe.Pointer(zp))

	// Unreached on success; the handover entry point does not return.
	return status.New("linuxboot.bootEFIHandover", status.LoadError, nil)
}

// setCmdLine allocates a narrow, NUL-terminated command-line buffer and
// records its address in the zero page.
func setCmdLine(fw Firmware, zp *ZeroPage, cmdline string) error {
	buf := fw.AllocatePool(len(cmdline) + 1)
	if buf == nil {
		return status.New("linuxboot.setCmdLine", status.OutOfResources, nil)
	}
	copy(buf, cmdline)
	buf[len(cmdline)] = 0
	zp.SetCmdLine(uint32(uintptr(unsafe.Pointer(&buf[0]))))
	return nil
}
