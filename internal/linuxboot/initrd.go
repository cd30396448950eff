// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package linuxboot

import (
	"github.com/acer51-doctom/superboot/internal/bootentry"
	"github.com/acer51-doctom/superboot/internal/firmware"
	"github.com/acer51-doctom/superboot/internal/status"
)

const pageSize = 4096

// loadInitrds reads every initrd named by target, concatenates them into
// one freshly allocated region, requested below the 4 GiB line (so the
// 32-bit ramdisk_image/ramdisk_size fields can address it) and allocated
// at any address if that request fails, and returns that
// region's address and total size. A single unreadable initrd is
// skipped, matching load_initrds's per-file WARN-and-continue behavior;
// zero readable initrds returns a zero address and size, not an error.
func loadInitrds(fw Firmware, fs VFS, target bootentry.Entry) (addr uint32, size uint32, err error) {
	if len(target.InitrdPaths) == 0 {
		return 0, 0, nil
	}

	bufs := make([][]byte, 0, len(target.InitrdPaths))
	total := 0
	for _, path := range target.InitrdPaths {
		data, readErr := fs.Read(target.DeviceHandle, path)
		if readErr != nil {
			continue
		}
		data = trimNUL(data)
		bufs = append(bufs, data)
		total += len(data)
	}
	if total == 0 {
		return 0, 0, nil
	}

	pages := uint64((total + pageSize - 1) / pageSize)
	region, allocErr := fw.AllocatePages(firmware.AllocBelowCeiling, pages, maxInitrdAddress)
	if allocErr != nil {
		region, allocErr = fw.AllocatePages(firmware.AllocAny, pages, 0)
		if allocErr != nil {
			return 0, 0, status.New("linuxboot.loadInitrds", status.OutOfResources, allocErr)
		}
	}

	dest := region
	for _, buf := range bufs {
		copyToPhysical(dest, buf)
		dest += uint64(len(buf))
	}

	return uint32(region), uint32(total), nil
}
