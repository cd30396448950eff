// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package vfs

import (
	"log"
	"strings"

	"github.com/acer51-doctom/superboot/internal/firmware"
)

const externalDriverDir = `\EFI\superboot\drivers`

// ExternalLoader is the narrow firmware slice needed to stage external
// filesystem drivers before scanning: read the application's own
// directory, load and start any .efi images found there, then reconnect
// the handle database so their native SimpleFileSystem handles appear.
type ExternalLoader interface {
	LoadedImage() (firmware.LoadedImage, error)
	SimpleFileSystem(h firmware.Handle) (firmware.SimpleFileSystem, bool)
	LoadImage(devicePath string, image []byte) (firmware.Handle, error)
	StartImage(h firmware.Handle) error
	UnloadImage(h firmware.Handle) error
	ConnectController() error
}

// LoadExternalDrivers scans externalDriverDir on the application's own
// device for *.efi images, loads and starts each one, then reconnects the
// controller database so newly provided native filesystem handles become
// visible. This runs once at init; failures here are non-fatal, matching
// the spec's "no plugin discovery protocol beyond allowing firmware-native
// drivers to be loaded" stance.
func LoadExternalDrivers(fw ExternalLoader) {
	img, err := fw.LoadedImage()
	if err != nil {
		log.Printf("vfs: could not inspect own loaded image: %v", err)
		return
	}

	sfs, ok := fw.SimpleFileSystem(img.DeviceHandle)
	if !ok {
		return
	}
	root, err := sfs.OpenVolume()
	if err != nil {
		return
	}
	defer root.Close()

	dir, err := root.Open(externalDriverDir)
	if err != nil {
		return // no drivers directory is not an error
	}
	defer dir.Close()

	entries, err := dir.ReadDir()
	if err != nil {
		return
	}

	loaded := 0
	for _, e := range entries {
		if e.IsDir || !strings.HasSuffix(strings.ToLower(e.Name), ".efi") {
			continue
		}
		devicePath := externalDriverDir + `\` + e.Name

		f, err := dir.Open(e.Name)
		if err != nil {
			continue
		}
		image := make([]byte, e.Size)
		if _, err := readFull(f, image); err != nil {
			f.Close()
			continue
		}
		f.Close()

		h, err := fw.LoadImage(devicePath, image)
		if err != nil {
			continue
		}
		if err := fw.StartImage(h); err != nil {
			fw.UnloadImage(h)
			continue
		}
		log.Printf("vfs: loaded external FS driver %s", e.Name)
		loaded++
	}

	if loaded > 0 {
		if err := fw.ConnectController(); err != nil {
			log.Printf("vfs: ConnectController after driver load: %v", err)
		}
	}
}
