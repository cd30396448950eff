// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

// Package explorer implements the external file-explorer collaborator
// spec §1 carves out of the core: when the scanner finds no entries, or
// the chosen entry fails to boot, the orchestrator falls back here so the
// user can browse every attached device by hand and pick an EFI
// application to chain-load. It reuses internal/menu's Display/KeyReader
// interfaces rather than redefining its own, since both collaborators
// share the same narrow console contract.
package explorer

import (
	"fmt"
	"strings"

	"github.com/acer51-doctom/superboot/internal/bootentry"
	"github.com/acer51-doctom/superboot/internal/firmware"
	"github.com/acer51-doctom/superboot/internal/menu"
	"github.com/acer51-doctom/superboot/internal/status"
)

// VFS is the narrow directory/file-existence surface this package needs;
// internal/vfs.VFS satisfies it structurally.
type VFS interface {
	ReadDirNames(device firmware.Handle, path string) ([]string, error)
	Exists(device firmware.Handle, path string) bool
}

// Firmware is the narrow handle-enumeration surface this package needs.
type Firmware interface {
	Handles(protocol firmware.GUID) ([]firmware.Handle, error)
	DevicePathString(h firmware.Handle) (string, error)
}

// Browser is the surface the orchestrator calls: browse every device and
// return the chain-load entry the user picked.
type Browser interface {
	Run() (*bootentry.Entry, error)
}

// TextExplorer is the concrete, digit-selection file browser: pick a
// device, then descend directories, then pick a ".efi" file to
// chain-load. "0" always means "go up one level" once inside a device.
type TextExplorer struct {
	FW       Firmware
	FS       VFS
	Disp     menu.Display
	Keys     menu.KeyReader
	Protocol firmware.GUID
}

// NewTextExplorer binds a TextExplorer to a running session's device
// enumeration, VFS, console, and the well-known simple-file-system
// protocol GUID the entry point resolves (internal/explorer has no
// go-efilib dependency of its own, staying a pure Firmware/VFS consumer).
func NewTextExplorer(fw Firmware, fs VFS, disp menu.Display, keys menu.KeyReader, protocol firmware.GUID) *TextExplorer {
	return &TextExplorer{FW: fw, FS: fs, Disp: disp, Keys: keys, Protocol: protocol}
}

// Run implements Browser.
func (x *TextExplorer) Run() (*bootentry.Entry, error) {
	devices, err := x.FW.Handles(x.Protocol)
	if err != nil {
		return nil, status.New("explorer.Run", status.NotFound, err)
	}
	if len(devices) == 0 {
		return nil, status.New("explorer.Run", status.NotFound, fmt.Errorf("no filesystem devices present"))
	}

	device, ok := x.chooseDevice(devices)
	if !ok {
		return nil, status.New("explorer.Run", status.NotFound, fmt.Errorf("no device selected"))
	}

	return x.browseDirectory(device, "\\")
}

func (x *TextExplorer) chooseDevice(devices []firmware.Handle) (firmware.Handle, bool) {
	x.write("SuperBoot file explorer — select a device:\r\n")
	for i, h := range devices {
		label, _ := x.FW.DevicePathString(h)
		x.write(fmt.Sprintf("  %d) %s\r\n", i, label))
	}

	idx, ok := x.readDigit(len(devices))
	if !ok {
		return "", false
	}
	return devices[idx], true
}

// browseDirectory lists dir on device; digit N descends into or selects
// entry N, "0" goes up a level (at the root it lists the root again).
func (x *TextExplorer) browseDirectory(device firmware.Handle, dir string) (*bootentry.Entry, error) {
	for {
		names, err := x.FS.ReadDirNames(device, dir)
		if err != nil {
			return nil, status.New("explorer.browseDirectory", status.NotFound, err)
		}

		x.write(fmt.Sprintf("SuperBoot file explorer — %s\r\n", dir))
		x.write("  0) ..\r\n")
		for i, name := range names {
			x.write(fmt.Sprintf("  %d) %s\r\n", i+1, name))
		}

		idx, ok := x.readDigit(len(names) + 1)
		if !ok {
			return nil, status.New("explorer.browseDirectory", status.NotFound, fmt.Errorf("no selection made"))
		}
		if idx == 0 {
			if i := strings.LastIndex(dir, "\\"); i > 0 {
				dir = dir[:i]
			} else {
				dir = "\\"
			}
			continue
		}

		name := names[idx-1]
		next := joinPath(dir, name)
		if strings.HasSuffix(strings.ToLower(name), ".efi") {
			return &bootentry.Entry{
				Title:        name,
				IsChainload:  true,
				EFIPath:      next,
				DeviceHandle: device,
			}, nil
		}
		dir = next
	}
}

func joinPath(dir, name string) string {
	if strings.HasSuffix(dir, "\\") {
		return dir + name
	}
	return dir + "\\" + name
}

// readDigit reads keystrokes until Enter, returning the accumulated
// decimal value if it is within [0, limit).
func (x *TextExplorer) readDigit(limit int) (int, bool) {
	typed := ""
	for {
		r, err := x.Keys.ReadKey()
		if err != nil {
			return 0, false
		}
		switch {
		case r == '\r' || r == '\n':
			var n int
			if _, err := fmt.Sscanf(typed, "%d", &n); err != nil || n < 0 || n >= limit {
				return 0, false
			}
			return n, true
		case r >= '0' && r <= '9':
			typed += string(r)
		}
	}
}

func (x *TextExplorer) write(s string) {
	if x.Disp == nil {
		return
	}
	_ = x.Disp.WriteString(s)
}
