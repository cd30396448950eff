// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package deploy

import (
	"fmt"

	"github.com/acer51-doctom/superboot/internal/firmware"
)

// copySelfToESP reads the running binary off self's device and writes it
// to \EFI\superboot\bootx64.efi on esp. Mirrors copy_self_to_esp.
func copySelfToESP(fw Firmware, self firmware.LoadedImage, esp firmware.Handle) error {
	data, err := fw.ReadFile(self.DeviceHandle, self.FilePath)
	if err != nil {
		return fmt.Errorf("cannot read self binary: %w", err)
	}

	if err := fw.WriteFile(esp, deployBinary, data); err != nil {
		return fmt.Errorf("cannot write destination file: %w", err)
	}
	return nil
}
