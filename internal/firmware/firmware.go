// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

// Package firmware narrows the UEFI boot-time services surface to exactly
// what the rest of superboot needs: handle enumeration, block I/O, file
// I/O, policy-directed memory allocation, variable storage, timers and key
// input. The other packages program against the Services interface (or
// narrower slices of it) rather than go-efilib's protocol types, so tests
// can swap in a fake firmware; go-efilib is imported elsewhere only for
// well-known GUIDs and in the !test-tagged adapters.
package firmware

import (
	"time"

	efi "github.com/canonical/go-efilib"
)

// Handle is a firmware-owned handle, e.g. a partition or a loaded image.
type Handle = efi.Handle

// GUID identifies a protocol or a variable's namespace.
type GUID = efi.GUID

// AllocPolicy selects where a page allocation should land.
type AllocPolicy int

const (
	// AllocAny lets the firmware choose any available range.
	AllocAny AllocPolicy = iota
	// AllocBelowCeiling requests an allocation at or below a ceiling address
	// (used for the initrd region, which must stay addressable by 32-bit
	// boot_params fields when initrd_addr_max is 32-bit).
	AllocBelowCeiling
	// AllocFixed requests a specific physical address (used for the kernel's
	// preferred load address).
	AllocFixed
)

// MemoryType mirrors the EFI_MEMORY_TYPE values relevant to E820 mapping.
type MemoryType uint32

const (
	MemoryReservedType MemoryType = iota
	MemoryLoaderCode
	MemoryLoaderData
	MemoryBootServicesCode
	MemoryBootServicesData
	MemoryRuntimeServicesCode
	MemoryRuntimeServicesData
	MemoryConventional
	MemoryUnusable
	MemoryACPIReclaim
	MemoryACPINVS
	MemoryMappedIO
	MemoryMappedIOPortSpace
	MemoryPalCode
	MemoryPersistent
)

// MemoryDescriptor is one entry of a UEFI memory map.
type MemoryDescriptor struct {
	Type           MemoryType
	PhysicalStart  uint64
	VirtualStart   uint64
	NumberOfPages  uint64
	Attribute      uint64
}

// MemoryMap is the result of GetMemoryMap: the descriptor slice plus the
// bookkeeping ExitBootServices needs back.
type MemoryMap struct {
	Descriptors []MemoryDescriptor
	MapKey      uint64
	DescSize    uint64
}

// BlockIO is the narrow slice of EFI_BLOCK_IO_PROTOCOL the VFS and the
// extent-tree reader need.
type BlockIO interface {
	MediaID() uint32
	BlockSize() uint32
	LogicalPartition() bool
	MediaPresent() bool
	ReadBlocks(lba uint64, buf []byte) error
}

// DiskIO is the narrow slice of EFI_DISK_IO_PROTOCOL: byte-addressable
// reads, preferred over BlockIO when available.
type DiskIO interface {
	ReadDisk(mediaID uint32, offset uint64, buf []byte) error
}

// File is the narrow slice of EFI_FILE_PROTOCOL. EFI_FILE_PROTOCOL does
// not distinguish files from directories at the type level — the same
// handle opens children and reads directory entries when it happens to be
// a directory — so one interface serves both roles here too.
type File interface {
	Read(buf []byte) (int, error)
	Close() error
	Size() (uint64, error)
	Open(path string) (File, error)
	ReadDir() ([]DirEntry, error)
}

// SimpleFileSystem is the narrow slice of EFI_SIMPLE_FILE_SYSTEM_PROTOCOL.
type SimpleFileSystem interface {
	OpenVolume() (File, error)
}

// DirEntry is one entry returned by File.ReadDir.
type DirEntry struct {
	Name  string
	IsDir bool
	Size  uint64
}

// LoadedImage describes the currently executing application, as returned
// by EFI_LOADED_IMAGE_PROTOCOL.
type LoadedImage struct {
	DeviceHandle Handle
	FilePath     string
	LoadOptions  string
}

// VariableAttributes mirrors the UEFI variable attribute bits this project
// writes: non-volatile, boot-service, and runtime access.
type VariableAttributes uint32

const (
	VariableNonVolatile       VariableAttributes = 0x00000001
	VariableBootServiceAccess VariableAttributes = 0x00000002
	VariableRuntimeAccess     VariableAttributes = 0x00000004
)

// Services is the complete firmware adapter every other package programs
// against.
type Services interface {
	// Handles returns every handle implementing the given protocol.
	Handles(protocol GUID) ([]Handle, error)
	BlockIO(h Handle) (BlockIO, bool)
	DiskIO(h Handle) (DiskIO, bool)
	SimpleFileSystem(h Handle) (SimpleFileSystem, bool)
	DevicePathString(h Handle) (string, error)

	LoadedImage() (LoadedImage, error)

	AllocatePages(policy AllocPolicy, pages uint64, addr uint64) (uint64, error)
	FreePages(addr uint64, pages uint64) error
	AllocatePool(size int) []byte

	ListVariables(guid GUID) ([]string, error)
	GetVariable(guid GUID, name string) ([]byte, VariableAttributes, error)
	SetVariable(guid GUID, name string, data []byte, attrs VariableAttributes) error
	DelVariable(guid GUID, name string) error

	LoadImage(devicePath string, image []byte) (Handle, error)
	StartImage(h Handle) error
	UnloadImage(h Handle) error
	ConnectController() error

	GetMemoryMap() (MemoryMap, error)
	ExitBootServices(mapKey uint64) error

	// WaitForKey blocks until a key is pressed or timeout elapses,
	// returning true if a key was seen before the deadline.
	WaitForKey(timeout time.Duration) (bool, error)

	ResetCold()
}

// GlobalVariableGUID is the well-known namespace for Boot####, BootOrder
// and the other standard UEFI boot variables.
var GlobalVariableGUID = efi.GlobalVariable
