// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

// Package deploy implements the external deployment collaborator spec §1
// lists out of scope for the core three subsystems but specifies the
// operations of: copying the running SuperBoot binary to an internal EFI
// System Partition and registering it as a UEFI Boot#### variable. The
// orchestrator depends only on the Installer interface; this package's
// concrete Installer is the narrow, non-destructive implementation spec
// §9 and original_source/src/deploy/deploy.c describe.
package deploy

import (
	"fmt"

	efi "github.com/canonical/go-efilib"
	"github.com/google/uuid"

	"github.com/acer51-doctom/superboot/internal/firmware"
	"github.com/acer51-doctom/superboot/internal/status"
)

// ESPPartitionTypeGUID is the well-known GPT partition-type GUID for an
// EFI System Partition (C12A7328-F81F-11D2-BA4B-00A0C93EC93B).
var ESPPartitionTypeGUID = uuid.MustParse("C12A7328-F81F-11D2-BA4B-00A0C93EC93B")

var simpleFileSystemProtocolGUID = efi.SimpleFileSystemProtocolGUID

const (
	deployDir    = `\EFI\superboot`
	deployBinary = deployDir + `\bootx64.efi`
	deployLabel  = "SuperBoot"
)

// PartitionTyper reports a partition handle's own GPT partition-type GUID.
//
// original_source/src/deploy/deploy.c's find_internal_esp compares the
// HARDDRIVE_DEVICE_PATH node's Signature field directly against the ESP
// type GUID constant; that field, for SignatureType GUID, carries the
// partition's *unique* GUID, not its *type* GUID — comparing it against
// a type-GUID constant can never match the partition's actual type and
// is the defect spec §9 flags and tells us not to reproduce. This
// interface exists so the real type-GUID lookup (reading the GPT
// partition entry, or an EFI_PARTITION_INFO_PROTOCOL where present) is
// a pluggable collaborator rather than a field this package could
// mistakenly substitute with the unique-GUID signature again.
type PartitionTyper interface {
	PartitionTypeGUID(h firmware.Handle) (uuid.UUID, bool)
}

// Firmware is the narrow read/write slice this package needs: everything
// firmware.Services already offers for reads, plus a whole-file write
// primitive firmware.Services has no reason to expose to the read-only
// core. RealFirmware implements this directly against go-efilib so the
// shared firmware.Services/File interfaces stay exactly as narrow as the
// core three subsystems need them — this package is the only one in the
// tree that writes to a firmware-native filesystem.
type Firmware interface {
	Handles(protocol firmware.GUID) ([]firmware.Handle, error)
	BlockIO(h firmware.Handle) (firmware.BlockIO, bool)
	DevicePathString(h firmware.Handle) (string, error)
	LoadedImage() (firmware.LoadedImage, error)

	ListVariables(guid firmware.GUID) ([]string, error)
	GetVariable(guid firmware.GUID, name string) ([]byte, firmware.VariableAttributes, error)
	SetVariable(guid firmware.GUID, name string, data []byte, attrs firmware.VariableAttributes) error

	ReadFile(h firmware.Handle, path string) ([]byte, error)
	WriteFile(h firmware.Handle, path string, data []byte) error
}

// Installer is the narrow surface the orchestrator needs from the
// deployment collaborator: install the running image onto an internal
// ESP and register it for the firmware's own boot menu.
type Installer interface {
	Deploy(fw Firmware, typer PartitionTyper) error
}

// DefaultInstaller is the concrete, non-destructive installer described
// by original_source/src/deploy/deploy.c's sb_deploy_to_esp: it never
// modifies an existing boot entry or file, only adds its own.
type DefaultInstaller struct{}

// Deploy locates an internal ESP, other than the device SuperBoot itself
// booted from, with media present, copies the running binary there, and
// registers a Boot#### variable for it, prepending BootOrder.
func (DefaultInstaller) Deploy(fw Firmware, typer PartitionTyper) error {
	self, err := fw.LoadedImage()
	if err != nil {
		return status.New("deploy.Deploy", status.NotFound, err)
	}

	esp, ok := findInternalESP(fw, typer, self.DeviceHandle)
	if !ok {
		return status.New("deploy.Deploy", status.NotFound, fmt.Errorf("no internal ESP found"))
	}

	if err := copySelfToESP(fw, self, esp); err != nil {
		return status.New("deploy.Deploy", status.LoadError, err)
	}

	if err := createBootEntry(fw, esp); err != nil {
		return status.New("deploy.Deploy", status.OutOfResources, err)
	}

	return nil
}

// findInternalESP returns the first partition, other than exclude, whose
// own GPT partition-type GUID is the ESP type GUID and whose media is
// present.
func findInternalESP(fw Firmware, typer PartitionTyper, exclude firmware.Handle) (firmware.Handle, bool) {
	handles, err := fw.Handles(simpleFileSystemProtocolGUID)
	if err != nil {
		return "", false
	}

	for _, h := range handles {
		if h == exclude {
			continue
		}
		typ, ok := typer.PartitionTypeGUID(h)
		if !ok || typ != ESPPartitionTypeGUID {
			continue
		}
		block, ok := fw.BlockIO(h)
		if ok && block.MediaPresent() {
			return h, true
		}
	}
	return "", false
}
