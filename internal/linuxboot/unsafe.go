// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package linuxboot

import (
	"unsafe"

	"github.com/acer51-doctom/superboot/internal/firmware"
)

// copyToPhysical writes buf starting at the raw physical address addr.
// Every byte this program touches after ExitBootServices, and the initrd
// region before it, is addressed this way rather than through a Go
// slice: the destination is memory the allocator handed back as a bare
// address, never backed by a Go-managed object.
func copyToPhysical(addr uint64, buf []byte) {
	dest := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), len(buf))
	copy(dest, buf)
}

// handoverEntry is the EFI handover protocol's entry signature:
// void(EFI_HANDLE, EFI_SYSTEM_TABLE *, struct boot_params *).
type handoverEntry func(imageHandle firmware.Handle, systemTable unsafe.Pointer, zeroPage unsafe.Pointer)

// legacyEntry is the legacy bzImage protocol's 64-bit entry signature:
// void(struct boot_params *, void *unused).
type legacyEntry func(zeroPage unsafe.Pointer, unused unsafe.Pointer)

// callAtAddress reinterprets addr as a function value of type F and
// calls it. A Go func value is, on every architecture this program
// targets, a pointer to a word holding the code address, so constructing
// one in place over a local uintptr and dereferencing it through *(*F)
// produces a callable value without an assembly trampoline of our own.
// The kernel's handover/legacy entry points use the platform C calling
// convention, which Go's own calling convention does not match;
// go-efilib's own boot-service bindings solve the identical problem
// underneath its top-level functions, and this follows the same pattern
// rather than reimplementing a cgo-free ABI shim here.
func callAtAddress[F any](addr uintptr) F {
	return *(*F)(unsafe.Pointer(&addr))
}
