// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

// Package linuxboot prepares a Linux kernel's zero-page, concatenates its
// initrds into one contiguous region, captures the firmware memory map,
// and performs the hand-off jump — via the EFI handover entry point when
// the kernel supports it, otherwise via the legacy bzImage protocol.
package linuxboot

import "encoding/binary"

// Zero-page byte offsets (Documentation/arch/x86/boot.rst). The struct is
// not represented as a Go struct: a plain [4096]byte with offset-addressed
// accessors avoids any dependence on Go's field layout rules for a format
// whose layout is dictated by the kernel, not by this program.
const (
	zeroPageSize = 4096

	offE820Entries = 0x1E8
	offSetupHeader = 0x1F1
	offE820Table   = 0x2D0

	// Setup-header field offsets, relative to the start of the zero page
	// (i.e. already including the 0x1F1 base), matching loader.h exactly.
	offSetupSects       = 0x1F1
	offBootFlag         = 0x1FE
	offHeaderMagic      = 0x202
	offVersion          = 0x206
	offTypeOfLoader     = 0x210
	offLoadflags        = 0x211
	offCode32Start      = 0x214
	offRamdiskImage     = 0x218
	offRamdiskSize      = 0x21C
	offHeapEndPtr       = 0x224
	offCmdLinePtr       = 0x228
	offRelocatableKernel = 0x234
	offPrefAddress      = 0x258
	offHandoverOffset   = 0x264

	// setupHeaderSize is sizeof(LinuxSetupHeader): 0x268 - 0x1F1.
	setupHeaderSize = 0x268 - 0x1F1

	headerMagic = 0x53726448 // "HdrS"
	bootFlag    = 0xAA55

	loaderIDSuperboot = 0xFF
	loadflagCanUseHeap = 0x80

	minBootVersion     = 0x0206
	minHandoverVersion = 0x020B

	maxE820Entries = 128
)

// ZeroPage is the 4096-byte boot_params record handed to the kernel.
type ZeroPage [zeroPageSize]byte

// NewZeroPage returns a zeroed zero-page with the setup header copied in
// from the kernel image and the loader identity fields set, matching
// every hand-off path's common preamble.
func NewZeroPage(kernelSetupHeader []byte) *ZeroPage {
	zp := &ZeroPage{}
	copy(zp[offSetupHeader:offSetupHeader+setupHeaderSize], kernelSetupHeader)
	zp[offTypeOfLoader] = loaderIDSuperboot
	zp[offLoadflags] |= loadflagCanUseHeap
	binary.LittleEndian.PutUint16(zp[offHeapEndPtr:], 0xFE00)
	return zp
}

// The setup-header accessors below take a plain []byte rather than a
// *ZeroPage because the kernel image's bzImage carries the identical
// layout at the identical offsets before it is ever copied into a zero
// page — boot_legacy_bzimage and boot_efi_handover both read setup_sects,
// version, handover_offset and pref_address straight from kernel_buf.

func setupSects(b []byte) uint8 { return b[offSetupSects] }
func version(b []byte) uint16   { return binary.LittleEndian.Uint16(b[offVersion:]) }
func handoverOffset(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b[offHandoverOffset:])
}
func prefAddress(b []byte) uint64 { return binary.LittleEndian.Uint64(b[offPrefAddress:]) }
func relocatable(b []byte) bool   { return b[offRelocatableKernel] != 0 }

// setupSize computes (max(setup_sects, 4) + 1) * 512, the size in bytes
// of the real-mode setup code preceding the protected-mode kernel image.
func setupSize(kernel []byte) int {
	sects := int(setupSects(kernel))
	if sects < 4 {
		sects = 4
	}
	return (sects + 1) * 512
}

// SetCmdLine records the 32-bit physical address of a separately-allocated,
// NUL-terminated command-line buffer.
func (z *ZeroPage) SetCmdLine(addr uint32) {
	binary.LittleEndian.PutUint32(z[offCmdLinePtr:], addr)
}

// SetInitrd records the initrd region's physical address and size.
func (z *ZeroPage) SetInitrd(addr uint32, size uint32) {
	binary.LittleEndian.PutUint32(z[offRamdiskImage:], addr)
	binary.LittleEndian.PutUint32(z[offRamdiskSize:], size)
}

// SetCode32Start records where the protected-mode kernel image was placed
// (legacy path only; the handover path never reads this field back).
func (z *ZeroPage) SetCode32Start(addr uint32) {
	binary.LittleEndian.PutUint32(z[offCode32Start:], addr)
}

// SetE820 writes the E820 table (capped at maxE820Entries) and its count.
func (z *ZeroPage) SetE820(entries []e820Entry) {
	if len(entries) > maxE820Entries {
		entries = entries[:maxE820Entries]
	}
	z[offE820Entries] = uint8(len(entries))
	for i, e := range entries {
		off := offE820Table + i*e820EntrySize
		binary.LittleEndian.PutUint64(z[off:], e.Addr)
		binary.LittleEndian.PutUint64(z[off+8:], e.Size)
		binary.LittleEndian.PutUint32(z[off+16:], uint32(e.Type))
	}
}

// e820Entry mirrors e820.Entry without importing internal/e820, keeping
// this package's only external dependency on that package at the call
// site (buildE820 in internal/linuxboot/linuxboot.go) rather than in the
// zero-page codec.
type e820Entry struct {
	Addr uint64
	Size uint64
	Type uint32
}

const e820EntrySize = 20

// validateSetupHeader checks the two invariants every hand-off path
// requires before touching the kernel image further: the 0xAA55 boot
// flag and the "HdrS" magic at their documented offsets.
func validateSetupHeader(kernel []byte) error {
	if len(kernel) < offSetupHeader+setupHeaderSize {
		return errShortKernel
	}
	if binary.LittleEndian.Uint16(kernel[offBootFlag:]) != bootFlag {
		return errBadBootFlag
	}
	if binary.LittleEndian.Uint32(kernel[offHeaderMagic:]) != headerMagic {
		return errBadMagic
	}
	return nil
}
