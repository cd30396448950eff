// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package scanner

import (
	"errors"
	"testing"

	"github.com/acer51-doctom/superboot/internal/bootconfig"
	"github.com/acer51-doctom/superboot/internal/firmware"
)

type fakeBlockIO struct {
	logical bool
	present bool
}

func (b fakeBlockIO) MediaID() uint32                       { return 1 }
func (b fakeBlockIO) BlockSize() uint32                     { return 512 }
func (b fakeBlockIO) LogicalPartition() bool                { return b.logical }
func (b fakeBlockIO) MediaPresent() bool                    { return b.present }
func (b fakeBlockIO) ReadBlocks(uint64, []byte) error       { return nil }

type fakeFirmware struct {
	handles []firmware.Handle
	block   map[firmware.Handle]firmware.BlockIO
}

func (f *fakeFirmware) Handles(firmware.GUID) ([]firmware.Handle, error) {
	return f.handles, nil
}

func (f *fakeFirmware) BlockIO(h firmware.Handle) (firmware.BlockIO, bool) {
	b, ok := f.block[h]
	return b, ok
}

type fakeVFS struct {
	files map[firmware.Handle]map[string][]byte
}

func (v *fakeVFS) Exists(device firmware.Handle, path string) bool {
	files, ok := v.files[device]
	if !ok {
		return false
	}
	_, ok = files[path]
	return ok
}

func (v *fakeVFS) Read(device firmware.Handle, path string) ([]byte, error) {
	files, ok := v.files[device]
	if !ok {
		return nil, errors.New("no device")
	}
	data, ok := files[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return append(append([]byte{}, data...), 0), nil
}

func TestScanAllSkipsWholeDisksAndAbsentMedia(t *testing.T) {
	fw := &fakeFirmware{
		handles: []firmware.Handle{"whole-disk", "no-media", "part0"},
		block: map[firmware.Handle]firmware.BlockIO{
			"whole-disk": fakeBlockIO{logical: false, present: true},
			"no-media":   fakeBlockIO{logical: true, present: false},
			"part0":      fakeBlockIO{logical: true, present: true},
		},
	}
	vfs := &fakeVFS{files: map[firmware.Handle]map[string][]byte{
		"part0": {
			`\limine.cfg`: []byte("/Arch\n  protocol: linux\n  kernel_path: /vmlinuz\n"),
		},
	}}

	list, err := ScanAll(fw, vfs, bootconfig.Registry())
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(list.Entries))
	}
	if list.Entries[0].DeviceHandle != firmware.Handle("part0") {
		t.Fatalf("unexpected device handle: %v", list.Entries[0].DeviceHandle)
	}
}

func TestScanAllTriesOnlyFirstMatchingPathPerParser(t *testing.T) {
	fw := &fakeFirmware{
		handles: []firmware.Handle{"part0"},
		block:   map[firmware.Handle]firmware.BlockIO{"part0": fakeBlockIO{logical: true, present: true}},
	}
	vfs := &fakeVFS{files: map[firmware.Handle]map[string][]byte{
		"part0": {
			`\boot\grub\grub.cfg`: []byte("menuentry \"A\" {\n  linux /vmlinuz-a\n}\n"),
			`\grub\grub.cfg`:      []byte("menuentry \"B\" {\n  linux /vmlinuz-b\n}\n"),
		},
	}}

	list, err := ScanAll(fw, vfs, bootconfig.Registry())
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Entries) != 1 {
		t.Fatalf("got %d entries, want 1 (only first matching path per parser)", len(list.Entries))
	}
	if list.Entries[0].Title != "A" {
		t.Fatalf("title = %q, want A (first probe path wins)", list.Entries[0].Title)
	}
}

func TestScanAllNoHandlesReturnsNotFound(t *testing.T) {
	fw := &fakeFirmware{handles: nil}
	vfs := &fakeVFS{files: map[firmware.Handle]map[string][]byte{}}

	_, err := ScanAll(fw, vfs, bootconfig.Registry())
	if err == nil {
		t.Fatal("expected error when no block devices are found")
	}
}

func TestScanAllSwallowsPerPartitionErrors(t *testing.T) {
	fw := &fakeFirmware{
		handles: []firmware.Handle{"bad", "good"},
		block: map[firmware.Handle]firmware.BlockIO{
			"bad":  fakeBlockIO{logical: true, present: true},
			"good": fakeBlockIO{logical: true, present: true},
		},
	}
	vfs := &fakeVFS{files: map[firmware.Handle]map[string][]byte{
		"good": {
			`\limine.cfg`: []byte("/Arch\n  protocol: linux\n  kernel_path: /vmlinuz\n"),
		},
	}}

	list, err := ScanAll(fw, vfs, bootconfig.Registry())
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(list.Entries))
	}
}
