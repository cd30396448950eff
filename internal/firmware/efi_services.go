// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

//go:build !test

package firmware

import (
	"fmt"
	"time"

	efi "github.com/canonical/go-efilib"
)

// efiServices implements Services directly on top of go-efilib's
// package-level boot-services bindings. go-efilib arranges for these
// top-level functions to operate against the system table the firmware
// handed the application at entry, so there is no explicit BootServices
// value to thread through here.
type efiServices struct {
	imageHandle Handle
}

// NewEFIServices returns the real firmware adapter, bound to the running
// application's image handle.
func NewEFIServices(imageHandle Handle) Services {
	return &efiServices{imageHandle: imageHandle}
}

func (s *efiServices) Handles(protocol GUID) ([]Handle, error) {
	return efi.GetAllHandles(protocol)
}

func (s *efiServices) BlockIO(h Handle) (BlockIO, bool) {
	proto, err := efi.OpenProtocol(h, efi.BlockIOProtocolGUID)
	if err != nil {
		return nil, false
	}
	bio, ok := proto.(*efi.BlockIOProtocol)
	if !ok {
		return nil, false
	}
	return &efiBlockIO{bio}, true
}

func (s *efiServices) DiskIO(h Handle) (DiskIO, bool) {
	proto, err := efi.OpenProtocol(h, efi.DiskIOProtocolGUID)
	if err != nil {
		return nil, false
	}
	dio, ok := proto.(*efi.DiskIOProtocol)
	if !ok {
		return nil, false
	}
	return &efiDiskIO{dio}, true
}

func (s *efiServices) SimpleFileSystem(h Handle) (SimpleFileSystem, bool) {
	proto, err := efi.OpenProtocol(h, efi.SimpleFileSystemProtocolGUID)
	if err != nil {
		return nil, false
	}
	sfs, ok := proto.(*efi.SimpleFileSystemProtocol)
	if !ok {
		return nil, false
	}
	return &efiSimpleFileSystem{sfs}, true
}

func (s *efiServices) DevicePathString(h Handle) (string, error) {
	proto, err := efi.OpenProtocol(h, efi.DevicePathProtocolGUID)
	if err != nil {
		return "", err
	}
	dp, ok := proto.(efi.DevicePath)
	if !ok {
		return "", fmt.Errorf("handle does not expose a device path")
	}
	return dp.String(), nil
}

func (s *efiServices) LoadedImage() (LoadedImage, error) {
	proto, err := efi.OpenProtocol(s.imageHandle, efi.LoadedImageProtocolGUID)
	if err != nil {
		return LoadedImage{}, err
	}
	li, ok := proto.(*efi.LoadedImageProtocol)
	if !ok {
		return LoadedImage{}, fmt.Errorf("loaded-image protocol has unexpected type")
	}
	return LoadedImage{
		DeviceHandle: li.DeviceHandle,
		FilePath:     li.FilePath.String(),
		LoadOptions:  li.LoadOptionsString(),
	}, nil
}

func (s *efiServices) AllocatePages(policy AllocPolicy, pages uint64, addr uint64) (uint64, error) {
	var allocType efi.AllocateType
	switch policy {
	case AllocBelowCeiling:
		allocType = efi.AllocateMaxAddress
	case AllocFixed:
		allocType = efi.AllocateAddress
	default:
		allocType = efi.AllocateAnyPages
	}
	return efi.AllocatePages(allocType, efi.LoaderDataMemoryType, int(pages), efi.PhysicalAddress(addr))
}

func (s *efiServices) FreePages(addr uint64, pages uint64) error {
	return efi.FreePages(efi.PhysicalAddress(addr), int(pages))
}

func (s *efiServices) AllocatePool(size int) []byte {
	return make([]byte, size)
}

func (s *efiServices) ListVariables(guid GUID) ([]string, error) {
	all, err := efi.ListVariables()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, v := range all {
		if v.GUID == guid {
			names = append(names, v.Name)
		}
	}
	return names, nil
}

func (s *efiServices) GetVariable(guid GUID, name string) ([]byte, VariableAttributes, error) {
	data, attrs, err := efi.GetVariable(name, guid)
	return data, VariableAttributes(attrs), err
}

func (s *efiServices) SetVariable(guid GUID, name string, data []byte, attrs VariableAttributes) error {
	return efi.SetVariable(name, guid, efi.VariableAttributes(attrs), data)
}

func (s *efiServices) DelVariable(guid GUID, name string) error {
	return efi.SetVariable(name, guid, 0, nil)
}

func (s *efiServices) LoadImage(devicePath string, image []byte) (Handle, error) {
	dp, err := efi.ParseDevicePathString(devicePath)
	if err != nil {
		return nil, err
	}
	return efi.LoadImage(s.imageHandle, efi.LoadImageSourceAndPath(dp, image))
}

func (s *efiServices) StartImage(h Handle) error {
	_, err := efi.StartImage(h)
	return err
}

func (s *efiServices) UnloadImage(h Handle) error {
	return efi.UnloadImage(h)
}

func (s *efiServices) ConnectController() error {
	return efi.ConnectController(nil, nil, nil, true)
}

func (s *efiServices) GetMemoryMap() (MemoryMap, error) {
	m, err := efi.GetMemoryMap()
	if err != nil {
		return MemoryMap{}, err
	}
	descs := make([]MemoryDescriptor, len(m.Map))
	for i, d := range m.Map {
		descs[i] = MemoryDescriptor{
			Type:          MemoryType(d.Type),
			PhysicalStart: uint64(d.PhysicalStart),
			VirtualStart:  uint64(d.VirtualStart),
			NumberOfPages: d.NumberOfPages,
			Attribute:     uint64(d.Attribute),
		}
	}
	return MemoryMap{Descriptors: descs, MapKey: m.MapKey, DescSize: m.DescriptorSize}, nil
}

func (s *efiServices) ExitBootServices(mapKey uint64) error {
	return efi.ExitBootServices(s.imageHandle, mapKey)
}

func (s *efiServices) WaitForKey(timeout time.Duration) (bool, error) {
	ev, err := efi.CreateEvent(efi.EvtTimer, efi.TplCallback, nil, nil)
	if err != nil {
		return false, err
	}
	defer efi.CloseEvent(ev)

	if err := efi.SetTimer(ev, efi.TimerRelative, uint64(timeout/100)); err != nil {
		return false, err
	}

	idx, err := efi.WaitForEvent([]efi.Event{efi.ConIn().WaitForKeyEvent, ev})
	if err != nil {
		return false, err
	}
	return idx == 0, nil
}

func (s *efiServices) ResetCold() {
	efi.ResetSystem(efi.ResetCold, efi.Success, nil)
}

// EventLog returns the raw TCG event log EFI_TCG2_PROTOCOL has been
// accumulating since power-on. Not part of Services: no test fake has a
// real TPM to have logged anything to, so internal/measure probes for
// this with a type assertion instead of every Services implementation
// needing to carry it.
func (s *efiServices) EventLog() ([]byte, error) {
	handles, err := efi.GetAllHandles(efi.TCG2ProtocolGUID)
	if err != nil || len(handles) == 0 {
		return nil, fmt.Errorf("firmware: no TCG2 protocol present")
	}

	proto, err := efi.OpenProtocol(handles[0], efi.TCG2ProtocolGUID)
	if err != nil {
		return nil, err
	}
	tcg2, ok := proto.(*efi.TCG2Protocol)
	if !ok {
		return nil, fmt.Errorf("firmware: handle does not expose TCG2 protocol")
	}
	return tcg2.GetEventLog(efi.TCG2EventLogFormatTCG2)
}

type efiBlockIO struct{ p *efi.BlockIOProtocol }

func (b *efiBlockIO) MediaID() uint32         { return b.p.Media.MediaID }
func (b *efiBlockIO) BlockSize() uint32       { return b.p.Media.BlockSize }
func (b *efiBlockIO) LogicalPartition() bool  { return b.p.Media.LogicalPartition }
func (b *efiBlockIO) MediaPresent() bool      { return b.p.Media.MediaPresent }
func (b *efiBlockIO) ReadBlocks(lba uint64, buf []byte) error {
	return b.p.ReadBlocks(b.p.Media.MediaID, lba, buf)
}

type efiDiskIO struct{ p *efi.DiskIOProtocol }

func (d *efiDiskIO) ReadDisk(mediaID uint32, offset uint64, buf []byte) error {
	return d.p.ReadDisk(mediaID, offset, buf)
}

type efiSimpleFileSystem struct{ p *efi.SimpleFileSystemProtocol }

func (f *efiSimpleFileSystem) OpenVolume() (File, error) {
	root, err := f.p.OpenVolume()
	if err != nil {
		return nil, err
	}
	return &efiFile{root}, nil
}

// efiFile wraps a single EFI_FILE_PROTOCOL handle, serving as both File
// and directory: the protocol itself doesn't distinguish the two.
type efiFile struct{ p *efi.FileProtocol }

func (f *efiFile) Read(buf []byte) (int, error) { return f.p.Read(buf) }
func (f *efiFile) Close() error                 { return f.p.Close() }
func (f *efiFile) Size() (uint64, error) {
	info, err := f.p.GetInfo()
	if err != nil {
		return 0, err
	}
	return info.FileSize, nil
}

func (f *efiFile) Open(path string) (File, error) {
	child, err := f.p.Open(path, efi.FileModeRead, 0)
	if err != nil {
		return nil, err
	}
	return &efiFile{child}, nil
}

func (f *efiFile) ReadDir() ([]DirEntry, error) {
	var entries []DirEntry
	for {
		info, err := f.p.ReadDirEntry()
		if err != nil {
			return nil, err
		}
		if info == nil {
			break
		}
		entries = append(entries, DirEntry{Name: info.FileName, IsDir: info.IsDir(), Size: info.FileSize})
	}
	return entries, nil
}
