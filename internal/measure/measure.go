// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package measure

import (
	"log"

	secboot_efi "github.com/snapcore/secboot/efi"
	secboot_tpm2 "github.com/snapcore/secboot/tpm2"

	"github.com/acer51-doctom/superboot/internal/bootentry"
	"github.com/acer51-doctom/superboot/internal/firmware"
)

// ComputeBootChainProfile builds a PCR protection profile over the boot
// chain a scan produced: the running SuperBoot image itself as the
// firmware-measured root, and every selectable target as a Shim-sourced
// child — SuperBoot plays the role shim plays in reseal.go's load chain,
// since it is SuperBoot, not the firmware, that loads and measures each
// kernel or chainloaded image in turn.
func ComputeBootChainProfile(vfs VFS, selfDevice firmware.Handle, selfPath string, list *bootentry.List) (*secboot_tpm2.PCRProtectionProfile, error) {
	root := &secboot_efi.ImageLoadEvent{
		Source: secboot_efi.Firmware,
		Image:  newImage(vfs, selfDevice, selfPath),
	}

	var children []*secboot_efi.ImageLoadEvent
	for _, e := range list.Entries {
		path := e.KernelPath
		if e.IsChainload {
			path = e.EFIPath
		}
		children = append(children, &secboot_efi.ImageLoadEvent{
			Source: secboot_efi.Shim,
			Image:  newImage(vfs, e.DeviceHandle, path),
		})
	}
	root.Next = children

	return computeProfile([]*secboot_efi.ImageLoadEvent{root})
}

// MeasureAndLog computes the boot-chain PCR profile and logs the result.
// Measurement here is diagnostic, not enforcing: SuperBoot runs before
// any kernel exists to supply the auth key an actual reseal needs (the
// same key reseal.go reads out of the running kernel's keyring), so
// updating a sealed key on disk is left to the OS's own provisioning
// step the way it always has been. A failure here is logged and never
// changes which entry boots, matching the rest of this program's
// scan/probe/parse swallow-failures posture.
func MeasureAndLog(fw any, vfs VFS, selfDevice firmware.Handle, selfPath string, list *bootentry.List) {
	if _, err := ComputeBootChainProfile(vfs, selfDevice, selfPath, list); err != nil {
		log.Printf("superboot: measured boot profile unavailable: %v", err)
	}
	logEventLog(fw)
}
